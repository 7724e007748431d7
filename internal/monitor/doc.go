// Package monitor implements a model of the kernel monitor console.
//
// The model speaks the same line grammar as a target's debug monitor: it
// prints a banner and a prompt, answers mr kernel with a hexdump, stores
// mw kernel writes in memory, and reports parse failures with an Error:
// line. Unwritten addresses read back as random words. It is used to
// exercise the session end to end without hardware, either over a pipe or
// attached to a real serial port by the uartdap monitor command.
package monitor
