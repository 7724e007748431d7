package transport

import (
	"context"
	"io"

	"github.com/wagiedev/uartdap-go/internal/config"
)

// Conn adapts a started Transport to io.ReadWriteCloser, for consumers that
// read the console as a plain stream. A Conn is not safe for concurrent
// reads.
type Conn struct {
	ctx       context.Context
	transport config.Transport
	chunks    <-chan []byte
	errs      <-chan error
	pending   []byte
}

// Compile-time verification that Conn implements io.ReadWriteCloser.
var _ io.ReadWriteCloser = (*Conn)(nil)

// NewConn starts reading from t. ctx bounds the reader goroutine and every
// Write.
func NewConn(ctx context.Context, t config.Transport) *Conn {
	chunks, errs := t.ReadChunks(ctx)

	return &Conn{
		ctx:       ctx,
		transport: t,
		chunks:    chunks,
		errs:      errs,
	}
}

// Read returns buffered bytes, or blocks for the next chunk. It returns
// io.EOF at end of stream and the transport's error after a failure.
func (c *Conn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		chunk, ok := <-c.chunks
		if !ok {
			if err, ok := <-c.errs; ok && err != nil {
				return 0, err
			}

			return 0, io.EOF
		}

		c.pending = chunk
	}

	n := copy(p, c.pending)
	c.pending = c.pending[n:]

	return n, nil
}

// Write sends p through the transport.
func (c *Conn) Write(p []byte) (int, error) {
	if err := c.transport.Write(c.ctx, p); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Close closes the transport.
func (c *Conn) Close() error {
	return c.transport.Close()
}
