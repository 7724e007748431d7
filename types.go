package uartdap

import (
	"github.com/wagiedev/uartdap-go/internal/message"
	"github.com/wagiedev/uartdap-go/internal/protocol"
	"github.com/wagiedev/uartdap-go/internal/wire"
)

// ===== Commands =====

// Command is a request to the monitor: *ReadCommand or *WriteCommand.
type Command = message.Command

// ReadCommand reads one 32-bit word.
type ReadCommand = message.ReadCommand

// WriteCommand writes one 32-bit word.
type WriteCommand = message.WriteCommand

// NewReadCommand validates that addr fits in 32 bits.
func NewReadCommand(addr uint64) (*ReadCommand, error) {
	return message.NewReadCommand(addr)
}

// NewWriteCommand validates that addr and data fit in 32 bits.
func NewWriteCommand(addr, data uint64) (*WriteCommand, error) {
	return message.NewWriteCommand(addr, data)
}

// ParseCommandLine parses "mr kernel <addr>" or "mw kernel <addr> <data>".
// Numbers may be written as 0x hex, 0b binary or decimal.
func ParseCommandLine(line string) (Command, error) {
	return message.ParseCommandLine(line)
}

// EncodeCommand renders cmd in the monitor's command grammar, without a
// line terminator.
func EncodeCommand(cmd Command) (string, error) {
	return message.Encode(cmd)
}

// ===== Events =====

// Event is an outcome reported by the session.
type Event = message.Event

// ReadEvent carries the word read from an address.
type ReadEvent = message.ReadEvent

// WriteEvent acknowledges a write.
type WriteEvent = message.WriteEvent

// ErrorEvent carries a monitor error reply for the outstanding command.
type ErrorEvent = message.ErrorEvent

// ClosedEvent is the final event of every session.
type ClosedEvent = message.ClosedEvent

// ===== Line settings =====

// Echo selects how the console echoes transmitted commands.
type Echo = wire.Echo

// Echo modes.
const (
	EchoNone   = wire.EchoNone
	EchoLocal  = wire.EchoLocal
	EchoRemote = wire.EchoRemote
)

// LineEnding is the line terminator used in both directions.
type LineEnding = wire.LineEnding

// Line endings.
const (
	LineEndingLF   = wire.LineEndingLF
	LineEndingCRLF = wire.LineEndingCRLF
)

// Target identifies the monitor whose prompt decorates console lines.
type Target = wire.Target

// Targets.
const (
	TargetNone      = wire.TargetNone
	TargetVxWorks   = wire.TargetVxWorks
	TargetIntegrity = wire.TargetIntegrity
)

// ParseEcho parses "none", "local" or "remote".
func ParseEcho(s string) (Echo, error) {
	return wire.ParseEcho(s)
}

// ParseLineEnding parses "lf" or "crlf".
func ParseLineEnding(s string) (LineEnding, error) {
	return wire.ParseLineEnding(s)
}

// ParseTarget parses "none", "vxworks" or "integrity".
func ParseTarget(s string) (Target, error) {
	return wire.ParseTarget(s)
}

// ===== Session state =====

// State is the session lifecycle state.
type State = protocol.State

// Session states.
const (
	StateIdle     = protocol.StateIdle
	StateAwaiting = protocol.StateAwaiting
	StateClosed   = protocol.StateClosed
)
