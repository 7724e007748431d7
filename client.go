package uartdap

import (
	"context"
	"iter"
)

// Client is a connected DAP session.
//
// A Client opens the console, runs the session loop, and correlates each
// command with its acknowledgement. Only one command is outstanding at a
// time; further commands queue behind it.
//
// Lifecycle: Clients are single-use. After Close(), create a new client with NewClient().
//
// Example usage:
//
//	client := NewClient()
//	defer client.Close()
//
//	err := client.Start(ctx,
//	    WithDevice("/dev/ttyUSB0"),
//	    WithTarget(TargetVxWorks),
//	    WithEcho(EchoRemote),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.Write(ctx, 0xc0000010, 0x600df00d); err != nil {
//	    log.Fatal(err)
//	}
//
//	word, err := client.Read(ctx, 0xc0000010)
type Client interface {
	// Start opens the console and starts the session.
	// Must be called before any other methods.
	// Returns ConfigError for invalid options, TransportError if the console
	// cannot be opened.
	Start(ctx context.Context, opts ...Option) error

	// Send queues a command and returns without waiting for the reply.
	// It blocks while another command is already queued.
	Send(ctx context.Context, cmd Command) error

	// Receive waits for the next event. It returns io.EOF after the final
	// ClosedEvent, or the TransportError that closed the session.
	Receive(ctx context.Context) (Event, error)

	// ReceiveEvents returns an iterator over events that stops after the
	// ClosedEvent.
	// Use iter.Pull2 if you need pull-based iteration instead of range.
	ReceiveEvents(ctx context.Context) iter.Seq2[Event, error]

	// Do sends cmd and waits for the event that resolves it.
	// Do must not be mixed with concurrent Send/Receive callers.
	Do(ctx context.Context, cmd Command) (Event, error)

	// Read reads the 32-bit word at addr.
	// A monitor error reply is returned as a ProtocolError.
	Read(ctx context.Context, addr uint32) (uint32, error)

	// Write writes the 32-bit word data at addr.
	// A monitor error reply is returned as a ProtocolError.
	Write(ctx context.Context, addr, data uint32) error

	// EndInput stops accepting commands. Commands already queued still run,
	// then the session closes.
	EndInput() error

	// State returns the session state.
	State() State

	// Done returns a channel closed when the session ends.
	Done() <-chan struct{}

	// Close terminates the session and closes the console.
	// After Close(), the client cannot be reused. Safe to call multiple times.
	Close() error
}

// NewClient creates a new client.
//
// Call Start() with options to open the console:
//
//	client := NewClient()
//	err := client.Start(ctx,
//	    WithDevice("tcp://localhost:4000"),
//	    WithLineEnding(LineEndingCRLF),
//	)
func NewClient() Client {
	return newClientImpl()
}
