// Package config provides configuration types for uartdap sessions.
package config

import "context"

// Transport is the byte stream to a monitor console.
// Implement this to provide custom transports for testing, mocking,
// or alternative links (e.g., a pseudo terminal or a debug adapter).
//
// The default implementations are the serial port transport and the TCP
// stream transport. Custom transports can be injected via Options.Transport.
type Transport interface {
	// Start opens the underlying link.
	// This is called before any bytes are written or read.
	Start(ctx context.Context) error

	// ReadChunks returns channels for receiving raw bytes and errors.
	// Chunks carry arbitrary fragments of the stream with no line framing.
	// The error channel yields at most one error. Both channels are closed
	// when the stream ends; a close without an error is end-of-stream.
	ReadChunks(ctx context.Context) (<-chan []byte, <-chan error)

	// Write sends data to the console.
	// This method must be safe for concurrent use.
	Write(ctx context.Context, data []byte) error

	// Close terminates the transport and releases resources.
	// It's safe to call Close multiple times.
	Close() error

	// IsReady returns true if the transport is ready for communication.
	IsReady() bool
}
