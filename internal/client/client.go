package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/uartdap-go/internal/config"
	"github.com/wagiedev/uartdap-go/internal/errors"
	"github.com/wagiedev/uartdap-go/internal/message"
	"github.com/wagiedev/uartdap-go/internal/protocol"
	"github.com/wagiedev/uartdap-go/internal/transport"
)

// Client owns a transport and the session running over it.
type Client struct {
	log       *slog.Logger
	transport config.Transport
	session   *protocol.Session
	options   *config.Options

	// Fatal error storage
	errMu    sync.RWMutex
	fatalErr error

	// Errgroup for goroutine management
	eg     *errgroup.Group
	cancel context.CancelFunc

	// Serializes request/response helpers
	doMu sync.Mutex
	// Commands Do gave up on that the session has not resolved yet.
	// Guarded by doMu.
	abandoned int

	// Lifecycle management
	mu        sync.Mutex
	connected bool
	closed    bool      // Tracks if Close() has been called
	closeOnce sync.Once // Ensures Close() only runs once
}

// New creates a new client.
//
// The client is not connected after creation. Call Start() with options to connect.
func New() *Client {
	return &Client{}
}

// setFatalError stores the first fatal error encountered.
func (c *Client) setFatalError(err error) {
	if err == nil {
		return
	}

	c.errMu.Lock()
	defer c.errMu.Unlock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}
}

// getFatalError returns the stored fatal error, if any.
func (c *Client) getFatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// isConnected returns true if the client is connected.
// This method is safe to call from any goroutine.
func (c *Client) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

// Start validates options, opens the transport and starts the session loop.
//
// Returns a *errors.ConfigError for invalid options and a
// *errors.TransportError if the link cannot be opened.
func (c *Client) Start(ctx context.Context, options *config.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.ErrClientClosed
	}

	if c.connected {
		return errors.ErrClientAlreadyConnected
	}

	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	c.log = log.With("component", "client")

	options.ApplyDefaults()

	if err := options.Validate(); err != nil {
		return err
	}

	c.options = options

	var t config.Transport

	if options.Transport != nil {
		t = options.Transport

		c.log.Debug("Using injected custom transport")
	} else {
		t = transport.New(log, options)
	}

	if err := t.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	c.transport = t

	c.session = protocol.NewSession(log, t, protocol.SessionConfig{
		Echo:       options.Echo,
		LineEnding: options.LineEnding,
		Target:     options.Target,
	})

	// The session outlives the caller's setup context; Close cancels it.
	runCtx, cancel := context.WithCancel(context.Background())

	var egCtx context.Context

	c.eg, egCtx = errgroup.WithContext(runCtx)
	c.cancel = cancel

	c.eg.Go(func() error {
		err := c.session.Run(egCtx)
		if err != nil && !stderrors.Is(err, context.Canceled) {
			c.log.Error("Session failed", "error", err)
			c.setFatalError(err)

			return err
		}

		return nil
	})

	c.connected = true
	c.log.Info("Client started", "device", options.Device, "baud_rate", options.BaudRate)

	return nil
}

// Send queues a command without waiting for its acknowledgement.
// Use Receive to collect events.
func (c *Client) Send(ctx context.Context, cmd message.Command) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	if err := c.session.Send(ctx, cmd); err != nil {
		if stderrors.Is(err, errors.ErrSessionClosed) {
			if fatal := c.getFatalError(); fatal != nil {
				return fmt.Errorf("%w: %w", err, fatal)
			}
		}

		return err
	}

	return nil
}

// Receive waits for the next event.
//
// It returns io.EOF after the final ClosedEvent has been delivered, or the
// transport error that closed the session.
func (c *Client) Receive(ctx context.Context) (message.Event, error) {
	if !c.isConnected() {
		return nil, errors.ErrClientNotConnected
	}

	select {
	case ev, ok := <-c.session.Events():
		if !ok {
			if err := c.wait(); err != nil {
				return nil, err
			}

			return nil, io.EOF
		}

		return ev, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// wait blocks until the session goroutine exits and returns its error.
func (c *Client) wait() error {
	if c.eg != nil {
		if err := c.eg.Wait(); err != nil {
			c.setFatalError(err)
		}
	}

	return c.getFatalError()
}

// ReceiveEvents returns an iterator over events. It stops after the
// ClosedEvent, on error, or when the context is cancelled.
func (c *Client) ReceiveEvents(ctx context.Context) iter.Seq2[message.Event, error] {
	return func(yield func(message.Event, error) bool) {
		for {
			ev, err := c.Receive(ctx)
			if stderrors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(ev, nil) {
				return
			}

			if _, ok := ev.(*message.ClosedEvent); ok {
				return
			}
		}
	}
}

// Do sends cmd and waits for the event that resolves it.
//
// If ctx ends after cmd was accepted, cmd stays pending in the session and
// its reply is discarded by the next Do instead of being returned for a
// different command.
//
// Do must not be mixed with concurrent Send/Receive callers on the same
// client; concurrent Do calls are serialized.
func (c *Client) Do(ctx context.Context, cmd message.Command) (message.Event, error) {
	c.doMu.Lock()
	defer c.doMu.Unlock()

	if err := c.Send(ctx, cmd); err != nil {
		return nil, err
	}

	for {
		ev, err := c.Receive(ctx)
		if stderrors.Is(err, io.EOF) {
			return nil, errors.ErrSessionClosed
		}

		if err != nil {
			c.abandoned++

			return nil, err
		}

		if _, ok := ev.(*message.ClosedEvent); ok {
			c.abandoned = 0

			if fatal := c.wait(); fatal != nil {
				return nil, fmt.Errorf("%w: %w", errors.ErrSessionClosed, fatal)
			}

			return nil, errors.ErrSessionClosed
		}

		if c.abandoned > 0 {
			c.abandoned--
			c.log.Debug("Discarding reply to abandoned command", "event_type", ev.EventType(), "remaining", c.abandoned)

			continue
		}

		if !message.Matches(cmd, ev) {
			c.log.Warn("Discarding event that does not answer command",
				"command_type", cmd.CommandType(),
				"addr", fmt.Sprintf("0x%08x", cmd.Address()),
				"event_type", ev.EventType(),
			)

			continue
		}

		return ev, nil
	}
}

// Read reads the 32-bit word at addr.
// A monitor error reply is returned as a *errors.ProtocolError.
func (c *Client) Read(ctx context.Context, addr uint32) (uint32, error) {
	ev, err := c.Do(ctx, &message.ReadCommand{Addr: addr})
	if err != nil {
		return 0, fmt.Errorf("read 0x%08x: %w", addr, err)
	}

	switch e := ev.(type) {
	case *message.ReadEvent:
		if e.Addr != addr {
			return 0, fmt.Errorf("read 0x%08x: reply for 0x%08x", addr, e.Addr)
		}

		return e.Data, nil
	case *message.ErrorEvent:
		return 0, fmt.Errorf("read 0x%08x: %w", addr, e.Err())
	default:
		return 0, fmt.Errorf("read 0x%08x: unexpected %s event", addr, ev.EventType())
	}
}

// Write writes the 32-bit word data at addr.
// A monitor error reply is returned as a *errors.ProtocolError.
func (c *Client) Write(ctx context.Context, addr, data uint32) error {
	ev, err := c.Do(ctx, &message.WriteCommand{Addr: addr, Data: data})
	if err != nil {
		return fmt.Errorf("write 0x%08x: %w", addr, err)
	}

	switch e := ev.(type) {
	case *message.WriteEvent:
		if e.Addr != addr {
			return fmt.Errorf("write 0x%08x: reply for 0x%08x", addr, e.Addr)
		}

		return nil
	case *message.ErrorEvent:
		return fmt.Errorf("write 0x%08x: %w", addr, e.Err())
	default:
		return fmt.Errorf("write 0x%08x: unexpected %s event", addr, ev.EventType())
	}
}

// EndInput closes the command queue. Commands already accepted still run;
// the session closes once they are resolved.
func (c *Client) EndInput() error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	c.session.CloseInput()

	return nil
}

// State returns the session state, or StateClosed before Start.
func (c *Client) State() protocol.State {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return protocol.StateClosed
	}

	return session.State()
}

// Done returns a channel closed when the session ends. It is nil before
// Start.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}

	return c.session.Done()
}

// Close terminates the session and closes the transport.
//
// After Close(), the client cannot be reused - create a new client with New().
// This method is safe to call multiple times.
func (c *Client) Close() error {
	var closeErr error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		wasConnected := c.connected
		c.connected = false
		c.mu.Unlock()

		if !wasConnected {
			return
		}

		c.log.Info("Closing client")

		if c.cancel != nil {
			c.cancel()
		}

		if c.transport != nil {
			closeErr = c.transport.Close()
		}

		if c.eg != nil {
			if err := c.eg.Wait(); err != nil && closeErr == nil {
				closeErr = err
			}
		}

		c.log.Info("Client closed")
	})

	return closeErr
}
