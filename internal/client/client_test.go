package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/uartdap-go/internal/config"
	"github.com/wagiedev/uartdap-go/internal/errors"
	"github.com/wagiedev/uartdap-go/internal/message"
	"github.com/wagiedev/uartdap-go/internal/protocol"
)

// mockTransport implements config.Transport for testing.
// Each written line is passed to respond; a non-empty reply is fed back as
// console output.
type mockTransport struct {
	mu       sync.Mutex
	started  bool
	closed   bool
	startErr error
	respond  func(line string) string
	chunks   chan []byte
	errs     chan error
}

func newMockTransport(respond func(line string) string) *mockTransport {
	return &mockTransport{
		respond: respond,
		chunks:  make(chan []byte, 16),
		errs:    make(chan error, 1),
	}
}

func (m *mockTransport) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockTransport) ReadChunks(_ context.Context) (<-chan []byte, <-chan error) {
	return m.chunks, m.errs
}

func (m *mockTransport) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.ErrTransportNotConnected
	}

	if m.respond == nil {
		return nil
	}

	if reply := m.respond(strings.TrimRight(string(data), "\r\n")); reply != "" {
		m.chunks <- []byte(reply)
	}

	return nil
}

func (m *mockTransport) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		m.errs <- err
		close(m.chunks)
		close(m.errs)
	}
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.chunks)
		close(m.errs)
	}

	return nil
}

func (m *mockTransport) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.started && !m.closed
}

// memoryResponder answers reads and writes from a map, and reports an error
// for addresses at or above 0xf0000000.
func memoryResponder() func(string) string {
	mem := map[uint32]uint32{}

	return func(line string) string {
		cmd, err := message.ParseCommandLine(line)
		if err != nil {
			return "Error: unable to parse command\n"
		}

		if cmd.Address() >= 0xf0000000 {
			return fmt.Sprintf("Error: bus error at 0x%08x\n", cmd.Address())
		}

		switch c := cmd.(type) {
		case *message.ReadCommand:
			return fmt.Sprintf("0x%08x 0x%08x\n", c.Addr, mem[c.Addr])
		case *message.WriteCommand:
			mem[c.Addr] = c.Data

			return fmt.Sprintf("0x%08x: OK\n", c.Addr)
		}

		return ""
	}
}

func startClient(t *testing.T, transport *mockTransport) *Client {
	t.Helper()

	client := New()

	require.NoError(t, client.Start(t.Context(), &config.Options{
		Device:    "mock",
		Transport: transport,
	}))

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestClient_ReadWrite(t *testing.T) {
	client := startClient(t, newMockTransport(memoryResponder()))

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	require.NoError(t, client.Write(ctx, 0xc0000010, 0x600df00d))

	got, err := client.Read(ctx, 0xc0000010)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x600df00d), got)

	got, err = client.Read(ctx, 0xc0000014)
	require.NoError(t, err)
	assert.Zero(t, got)

	assert.Equal(t, protocol.StateIdle, client.State())
}

func TestClient_ErrorReplyBecomesProtocolError(t *testing.T) {
	client := startClient(t, newMockTransport(memoryResponder()))

	_, err := client.Read(t.Context(), 0xf0000000)

	protocolErr, ok := stderrors.AsType[*errors.ProtocolError](err)
	require.True(t, ok, "expected ProtocolError, got %v", err)
	assert.Equal(t, "bus error at 0xf0000000", protocolErr.Message)

	err = client.Write(t.Context(), 0xf0000004, 1)
	require.ErrorAs(t, err, &protocolErr)

	// The session is still usable after an error reply.
	require.NoError(t, client.Write(t.Context(), 0x10, 1))
}

func TestClient_SendReceive(t *testing.T) {
	client := startClient(t, newMockTransport(memoryResponder()))

	require.NoError(t, client.Send(t.Context(), &message.WriteCommand{Addr: 0x20, Data: 0xabcd}))

	ev, err := client.Receive(t.Context())
	require.NoError(t, err)
	assert.Equal(t, &message.WriteEvent{Addr: 0x20}, ev)

	require.NoError(t, client.Send(t.Context(), &message.ReadCommand{Addr: 0x20}))

	ev, err = client.Receive(t.Context())
	require.NoError(t, err)
	assert.Equal(t, &message.ReadEvent{Addr: 0x20, Data: 0xabcd}, ev)
}

func TestClient_EndInputClosesSession(t *testing.T) {
	client := startClient(t, newMockTransport(memoryResponder()))

	require.NoError(t, client.Send(t.Context(), &message.ReadCommand{Addr: 0x1}))
	require.NoError(t, client.EndInput())

	var events []message.Event

	for ev, err := range client.ReceiveEvents(t.Context()) {
		require.NoError(t, err)

		events = append(events, ev)
	}

	require.Equal(t, []message.Event{
		&message.ReadEvent{Addr: 0x1, Data: 0},
		&message.ClosedEvent{},
	}, events)

	_, err := client.Receive(t.Context())
	require.ErrorIs(t, err, io.EOF)

	require.ErrorIs(t, client.Send(t.Context(), &message.ReadCommand{Addr: 0x2}), errors.ErrSessionClosed)
	assert.Equal(t, protocol.StateClosed, client.State())
}

func TestClient_TransportFailure(t *testing.T) {
	transport := newMockTransport(nil)
	client := startClient(t, transport)

	boom := stderrors.New("device unplugged")

	require.NoError(t, client.Send(t.Context(), &message.ReadCommand{Addr: 0x1}))
	transport.fail(boom)

	ev, err := client.Receive(t.Context())
	require.NoError(t, err)
	require.Equal(t, &message.ClosedEvent{}, ev)

	_, err = client.Receive(t.Context())

	transportErr, ok := stderrors.AsType[*errors.TransportError](err)
	require.True(t, ok, "expected TransportError, got %v", err)
	assert.Equal(t, "read", transportErr.Op)
	require.ErrorIs(t, err, boom)

	_, err = client.Read(t.Context(), 0x1)
	require.ErrorIs(t, err, errors.ErrSessionClosed)
	require.ErrorIs(t, err, boom)
}

func TestClient_ReadAfterEndOfStream(t *testing.T) {
	transport := newMockTransport(nil)
	client := startClient(t, transport)

	result := make(chan error, 1)

	go func() {
		_, err := client.Read(t.Context(), 0x1)
		result <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, transport.Close())

	select {
	case err := <-result:
		require.ErrorIs(t, err, errors.ErrSessionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return after end of stream")
	}
}

func TestClient_Lifecycle(t *testing.T) {
	client := New()

	_, err := client.Receive(t.Context())
	require.ErrorIs(t, err, errors.ErrClientNotConnected)
	require.ErrorIs(t, client.Send(t.Context(), &message.ReadCommand{}), errors.ErrClientNotConnected)
	require.ErrorIs(t, client.EndInput(), errors.ErrClientNotConnected)
	assert.Equal(t, protocol.StateClosed, client.State())
	assert.Nil(t, client.Done())

	transport := newMockTransport(nil)
	require.NoError(t, client.Start(t.Context(), &config.Options{Transport: transport}))
	require.ErrorIs(t, client.Start(t.Context(), &config.Options{Transport: transport}), errors.ErrClientAlreadyConnected)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session not done after Close")
	}

	require.ErrorIs(t, client.Start(t.Context(), &config.Options{Transport: transport}), errors.ErrClientClosed)
}

func TestClient_InvalidOptions(t *testing.T) {
	client := New()

	err := client.Start(t.Context(), &config.Options{
		BaudRate:  -9600,
		Transport: newMockTransport(nil),
	})

	configErr, ok := stderrors.AsType[*errors.ConfigError](err)
	require.True(t, ok)
	assert.Equal(t, "baud_rate", configErr.Field)
}

func TestClient_TransportStartFailure(t *testing.T) {
	transport := newMockTransport(nil)
	transport.startErr = &errors.TransportError{Op: "open", Err: stderrors.New("no such device")}

	err := New().Start(t.Context(), &config.Options{Transport: transport})
	require.ErrorContains(t, err, "start transport")

	_, ok := stderrors.AsType[*errors.TransportError](err)
	require.True(t, ok)
}

// TestClient_StartContextCancellation verifies that the session outlives the
// context passed to Start.
func TestClient_StartContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := New()

	require.NoError(t, client.Start(ctx, &config.Options{
		Transport: newMockTransport(memoryResponder()),
	}))

	t.Cleanup(func() { _ = client.Close() })

	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)

	require.True(t, client.isConnected())
	require.NoError(t, client.Write(t.Context(), 0x4, 4))
}

// TestClient_DoHonoursContext verifies that a caller deadline ends a request
// the monitor never answers.
func TestClient_DoHonoursContext(t *testing.T) {
	client := startClient(t, newMockTransport(nil))

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Read(ctx, 0x1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// lateResponder answers only the addresses in replies; every other command
// is left for the test to resolve by pushing console output.
func lateResponder(replies map[uint32]string) func(string) string {
	return func(line string) string {
		cmd, err := message.ParseCommandLine(line)
		if err != nil {
			return ""
		}

		return replies[cmd.Address()]
	}
}

// TestClient_ReadAfterTimeoutIgnoresLateReply verifies that the reply to a
// request abandoned on its deadline is not handed to the next request.
func TestClient_ReadAfterTimeoutIgnoresLateReply(t *testing.T) {
	transport := newMockTransport(lateResponder(map[uint32]string{
		0x20: "0x00000020 0x22222222\n",
	}))
	client := startClient(t, transport)

	shortCtx, shortCancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer shortCancel()

	_, err := client.Read(shortCtx, 0x10)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	transport.chunks <- []byte("0x00000010 0x11111111\n")

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	got, err := client.Read(ctx, 0x20)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x22222222), got)
}

// TestClient_WriteAfterTimeoutIgnoresLateError verifies that a late error
// reply resolves the abandoned request rather than the next one.
func TestClient_WriteAfterTimeoutIgnoresLateError(t *testing.T) {
	transport := newMockTransport(lateResponder(map[uint32]string{
		0x14: "0x00000014 0x00000000\n",
		0x24: "0x00000024: OK\n",
		0x28: "0x00000028 0x0000beef\n",
	}))
	client := startClient(t, transport)

	for _, addr := range []uint32{0x10, 0x14} {
		shortCtx, shortCancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		_, err := client.Read(shortCtx, addr)

		shortCancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}

	transport.chunks <- []byte("Error: bus error at 0x00000010\n")

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	require.NoError(t, client.Write(ctx, 0x24, 1))

	got, err := client.Read(ctx, 0x28)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xbeef), got)
}

// TestClient_DoSkipsUnrelatedEvents verifies that Do only returns the event
// answering its own command.
func TestClient_DoSkipsUnrelatedEvents(t *testing.T) {
	client := startClient(t, newMockTransport(memoryResponder()))

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	require.NoError(t, client.Send(ctx, &message.WriteCommand{Addr: 0x30, Data: 7}))

	ev, err := client.Do(ctx, &message.ReadCommand{Addr: 0x30})
	require.NoError(t, err)
	assert.Equal(t, &message.ReadEvent{Addr: 0x30, Data: 7}, ev)
}
