// Package commands implements the uartdap command line: an interactive
// console, batch execution of command scripts, an MCP tool server, a model
// monitor and serial port listing.
package commands
