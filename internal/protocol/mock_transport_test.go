package protocol

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/uartdap-go/internal/message"
)

// mockTransport implements Transport for testing.
type mockTransport struct {
	mu       sync.Mutex
	writes   []string
	written  chan string
	chunks   chan []byte
	errs     chan error
	writeErr error
	endOnce  sync.Once
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		writes:  make([]string, 0, 10),
		written: make(chan string, 16),
		chunks:  make(chan []byte, 16),
		errs:    make(chan error, 1),
	}
}

func (m *mockTransport) ReadChunks(_ context.Context) (<-chan []byte, <-chan error) {
	return m.chunks, m.errs
}

func (m *mockTransport) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}

	m.writes = append(m.writes, string(data))
	m.written <- string(data)

	return nil
}

func (m *mockTransport) setWriteErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeErr = err
}

func (m *mockTransport) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.writes)
}

// feed delivers console output to the session.
func (m *mockTransport) feed(s string) {
	m.chunks <- []byte(s)
}

// end closes the stream without an error.
func (m *mockTransport) end() {
	m.endOnce.Do(func() {
		close(m.chunks)
		close(m.errs)
	})
}

// fail reports a read error and closes the stream.
func (m *mockTransport) fail(err error) {
	m.endOnce.Do(func() {
		m.errs <- err
		close(m.chunks)
		close(m.errs)
	})
}

// runningSession starts a session on a mock transport and returns a channel
// carrying Run's result.
func runningSession(t *testing.T, cfg SessionConfig) (*Session, *mockTransport, <-chan error) {
	t.Helper()

	transport := newMockTransport()
	session := NewSession(slog.New(slog.DiscardHandler), transport, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result := make(chan error, 1)

	go func() {
		result <- session.Run(ctx)
	}()

	return session, transport, result
}

func waitWrite(t *testing.T, transport *mockTransport) string {
	t.Helper()

	select {
	case line := <-transport.written:
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("command was not written in time")

		return ""
	}
}

func nextEvent(t *testing.T, session *Session) message.Event {
	t.Helper()

	select {
	case ev, ok := <-session.Events():
		require.True(t, ok, "event channel closed")

		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event in time")

		return nil
	}
}

func requireNoEvent(t *testing.T, session *Session) {
	t.Helper()

	select {
	case ev := <-session.Events():
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func runResult(t *testing.T, result <-chan error) error {
	t.Helper()

	select {
	case err := <-result:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return in time")

		return nil
	}
}
