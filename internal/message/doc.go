// Package message defines the commands and events exchanged with a kernel
// monitor, and converts them to and from the monitor's text grammar.
//
// Commands are encoded with Encode and parsed from user input with
// ParseCommandLine. Monitor output lines are turned into events with Parse,
// and Matches decides whether an event resolves the outstanding command.
package message
