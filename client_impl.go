package uartdap

import (
	"context"
	"iter"

	"github.com/wagiedev/uartdap-go/internal/client"
)

// clientWrapper wraps the internal client to adapt it to the public interface.
type clientWrapper struct {
	impl *client.Client
}

// Compile-time check that *clientWrapper implements the Client interface.
var _ Client = (*clientWrapper)(nil)

// newClientImpl creates the internal client implementation.
func newClientImpl() Client {
	return &clientWrapper{impl: client.New()}
}

// Start opens the console and starts the session.
func (c *clientWrapper) Start(ctx context.Context, opts ...Option) error {
	return c.impl.Start(ctx, applyOptions(opts))
}

// Send queues a command.
func (c *clientWrapper) Send(ctx context.Context, cmd Command) error {
	return c.impl.Send(ctx, cmd)
}

// Receive waits for the next event.
func (c *clientWrapper) Receive(ctx context.Context) (Event, error) {
	return c.impl.Receive(ctx)
}

// ReceiveEvents returns an iterator over events.
func (c *clientWrapper) ReceiveEvents(ctx context.Context) iter.Seq2[Event, error] {
	return c.impl.ReceiveEvents(ctx)
}

// Do sends cmd and waits for its event.
func (c *clientWrapper) Do(ctx context.Context, cmd Command) (Event, error) {
	return c.impl.Do(ctx, cmd)
}

// Read reads a word.
func (c *clientWrapper) Read(ctx context.Context, addr uint32) (uint32, error) {
	return c.impl.Read(ctx, addr)
}

// Write writes a word.
func (c *clientWrapper) Write(ctx context.Context, addr, data uint32) error {
	return c.impl.Write(ctx, addr, data)
}

// EndInput stops accepting commands.
func (c *clientWrapper) EndInput() error {
	return c.impl.EndInput()
}

// State returns the session state.
func (c *clientWrapper) State() State {
	return c.impl.State()
}

// Done returns a channel closed when the session ends.
func (c *clientWrapper) Done() <-chan struct{} {
	return c.impl.Done()
}

// Close terminates the session.
func (c *clientWrapper) Close() error {
	return c.impl.Close()
}
