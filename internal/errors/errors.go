package errors

import (
	"errors"
	"fmt"
)

// DAPError is the base interface for all uartdap errors.
type DAPError interface {
	error
	IsDAPError() bool
}

// Compile-time verification that all error types implement DAPError.
var (
	_ DAPError = (*TransportError)(nil)
	_ DAPError = (*ParseError)(nil)
	_ DAPError = (*ProtocolError)(nil)
	_ DAPError = (*CommandError)(nil)
	_ DAPError = (*ConfigError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.New("client not connected")

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.New("client already connected")

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed: clients are single-use, create a new one with NewClient()")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrSessionClosed indicates the session reached its terminal state and
	// no longer accepts commands.
	ErrSessionClosed = errors.New("session closed")

	// ErrInputClosed indicates the command queue was closed by the caller.
	ErrInputClosed = errors.New("command input closed")

	// ErrNoSerialPorts indicates device discovery found no serial ports.
	ErrNoSerialPorts = errors.New("no serial ports found")
)

// TransportError indicates an I/O failure on the underlying byte stream.
// It is fatal for the session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsDAPError implements DAPError.
func (e *TransportError) IsDAPError() bool { return true }

// ParseErrorKind classifies why an incoming line did not produce an event.
type ParseErrorKind int

const (
	// ParseErrorEmpty is a blank line.
	ParseErrorEmpty ParseErrorKind = iota
	// ParseErrorUnrecognized is console chatter matching no known pattern.
	ParseErrorUnrecognized
	// ParseErrorMismatch is a well-formed acknowledgement for a different
	// request than the one outstanding.
	ParseErrorMismatch
)

// String returns the kind name.
func (k ParseErrorKind) String() string {
	switch k {
	case ParseErrorEmpty:
		return "empty"
	case ParseErrorUnrecognized:
		return "unrecognized"
	case ParseErrorMismatch:
		return "mismatch"
	default:
		return fmt.Sprintf("ParseErrorKind(%d)", int(k))
	}
}

// ParseError indicates a monitor line could not be turned into an event.
// Parse errors are recoverable: the line is dropped and the session continues.
type ParseError struct {
	Kind ParseErrorKind
	Line string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ParseErrorEmpty:
		return "empty line"
	case ParseErrorMismatch:
		return fmt.Sprintf("response does not match pending request: %q", e.Line)
	default:
		return fmt.Sprintf("unrecognized line: %q", e.Line)
	}
}

// IsDAPError implements DAPError.
func (e *ParseError) IsDAPError() bool { return true }

// ProtocolError indicates the monitor answered a command with its error text.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "monitor error: " + e.Message
}

// IsDAPError implements DAPError.
func (e *ProtocolError) IsDAPError() bool { return true }

// CommandError indicates a malformed command supplied by the caller.
type CommandError struct {
	Field  string
	Value  string
	Reason string
}

func (e *CommandError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid command %s: %s", e.Field, e.Reason)
	}

	return fmt.Sprintf("invalid command %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsDAPError implements DAPError.
func (e *CommandError) IsDAPError() bool { return true }

// ConfigError indicates an invalid session configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// IsDAPError implements DAPError.
func (e *ConfigError) IsDAPError() bool { return true }
