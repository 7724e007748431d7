package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/wagiedev/uartdap-go/internal/config"
	"github.com/wagiedev/uartdap-go/internal/errors"
)

// readBufferSize is the size of a single read from the stream.
const readBufferSize = 4096

// Opener opens the underlying stream when the transport starts.
type Opener func(ctx context.Context) (io.ReadWriteCloser, error)

// StreamTransport implements Transport over any io.ReadWriteCloser: a TCP
// connection to a serial bridge, a pseudo terminal, or one end of a pipe.
type StreamTransport struct {
	log  *slog.Logger
	name string
	open Opener

	writeMu sync.Mutex // Serializes writes
	mu      sync.Mutex // Protects conn and closing
	conn    io.ReadWriteCloser
	closing bool // Whether Close() has been called (intentional shutdown)
}

// Compile-time verification that StreamTransport implements the Transport interface.
var _ config.Transport = (*StreamTransport)(nil)

// NewStreamTransport creates a transport over an already open stream.
// The transport takes ownership of conn and closes it on Close.
func NewStreamTransport(log *slog.Logger, name string, conn io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{
		log:  log.With("component", "stream_transport", "device", name),
		name: name,
		open: func(context.Context) (io.ReadWriteCloser, error) { return conn, nil },
	}
}

// NewTCPTransport creates a transport that dials addr (host:port) on Start.
func NewTCPTransport(log *slog.Logger, addr string, timeout time.Duration) *StreamTransport {
	return &StreamTransport{
		log:  log.With("component", "tcp_transport", "device", addr),
		name: addr,
		open: func(ctx context.Context) (io.ReadWriteCloser, error) {
			dialer := &net.Dialer{Timeout: timeout}

			return dialer.DialContext(ctx, "tcp", addr)
		},
	}
}

// Start opens the stream.
func (t *StreamTransport) Start(ctx context.Context) error {
	t.log.Info("Opening stream")

	conn, err := t.open(ctx)
	if err != nil {
		t.log.Error("Failed to open stream", "error", err)

		return &errors.TransportError{Op: "open", Err: err}
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.log.Info("Stream opened")

	return nil
}

// ReadChunks reads raw bytes from the stream.
//
// This method starts a goroutine that copies each read into the chunk
// channel. The goroutine exits when the stream ends, Close is called, the
// context is cancelled, or a read fails. A read failure that is not caused
// by Close is reported on the error channel. Both channels are closed when
// the goroutine exits.
func (t *StreamTransport) ReadChunks(ctx context.Context) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte)
	errs := make(chan error, 1)

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	go func() {
		defer close(chunks)
		defer close(errs)
		defer t.log.Debug("ReadChunks goroutine stopped")

		if conn == nil {
			errs <- errors.ErrTransportNotConnected

			return
		}

		buf := make([]byte, readBufferSize)

		for {
			n, err := conn.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])

				select {
				case chunks <- chunk:
				case <-ctx.Done():
					t.log.Debug("Context cancelled during chunk send", "error", ctx.Err())

					return
				}
			}

			if err == nil {
				continue
			}

			if t.isClosing() || stderrors.Is(err, io.EOF) {
				t.log.Info("Stream ended")

				return
			}

			t.log.Error("Stream read failed", "error", err)

			errs <- fmt.Errorf("read %s: %w", t.name, err)

			return
		}
	}()

	return chunks, errs
}

// Write sends data to the stream.
//
// This method is safe for concurrent use and respects context cancellation
// even during blocking writes. If the context is cancelled during a blocked
// write, the stream is closed to unblock it.
func (t *StreamTransport) Write(ctx context.Context, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	conn, closing := t.conn, t.closing
	t.mu.Unlock()

	if conn == nil || closing {
		return errors.ErrTransportNotConnected
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.log.Debug("Writing to stream", "data_len", len(data))

	// Write in goroutine to respect context cancellation
	done := make(chan error, 1)

	go func() {
		_, err := conn.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.log.Error("Failed to write to stream", "error", err)

			return fmt.Errorf("write %s: %w", t.name, err)
		}

		return nil

	case <-ctx.Done():
		t.log.Debug("Context cancelled during write, closing stream")

		_ = t.Close()

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			t.log.Warn("Write goroutine did not exit after stream close, potential leak")
		}

		return ctx.Err()
	}
}

// IsReady returns true if the stream is open and not closing.
func (t *StreamTransport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conn != nil && !t.closing
}

// Close closes the stream. It's safe to call Close multiple times.
func (t *StreamTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil || t.closing {
		t.closing = true

		return nil
	}

	t.closing = true

	t.log.Debug("Closing stream")

	if err := t.conn.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.name, err)
	}

	return nil
}

func (t *StreamTransport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closing
}
