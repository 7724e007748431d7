package uartdap

import "github.com/wagiedev/uartdap-go/internal/errors"

// Re-export error types from internal package

// TransportError indicates an I/O failure on the byte stream. It closes the session.
type TransportError = errors.TransportError

// ParseError indicates a console line that is not an acknowledgement.
type ParseError = errors.ParseError

// ParseErrorKind classifies a ParseError.
type ParseErrorKind = errors.ParseErrorKind

// ProtocolError carries an error reported by the monitor.
type ProtocolError = errors.ProtocolError

// CommandError indicates a malformed command.
type CommandError = errors.CommandError

// ConfigError indicates invalid construction options.
type ConfigError = errors.ConfigError

// DAPError is the base interface for all uartdap errors.
type DAPError = errors.DAPError

// Parse error kinds.
const (
	ParseErrorEmpty        = errors.ParseErrorEmpty
	ParseErrorUnrecognized = errors.ParseErrorUnrecognized
	ParseErrorMismatch     = errors.ParseErrorMismatch
)

// Re-export sentinel errors from internal package.
var (
	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.ErrClientNotConnected

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.ErrClientAlreadyConnected

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.ErrClientClosed

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrSessionClosed indicates the session ended and accepts no commands.
	ErrSessionClosed = errors.ErrSessionClosed

	// ErrInputClosed indicates the command queue was closed with EndInput.
	ErrInputClosed = errors.ErrInputClosed

	// ErrNoSerialPorts indicates device discovery found no serial ports.
	ErrNoSerialPorts = errors.ErrNoSerialPorts
)
