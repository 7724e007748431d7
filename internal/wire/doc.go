// Package wire handles the byte-level side of a monitor console: line
// termination in both directions, removal of the monitor's echo of our own
// commands, and cleanup of prompts and timestamps before parsing.
package wire
