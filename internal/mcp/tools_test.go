package mcp

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	mcpgo "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/uartdap-go/internal/errors"
)

// fakeDevice is an in-memory Device. Addresses at or above 0xf0000000
// fail like a bus error reported by the monitor.
type fakeDevice struct {
	mu  sync.Mutex
	mem map[uint32]uint32
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{mem: map[uint32]uint32{}}
}

func (d *fakeDevice) Read(_ context.Context, addr uint32) (uint32, error) {
	if addr >= 0xf0000000 {
		return 0, &errors.ProtocolError{Message: "bus error"}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.mem[addr], nil
}

func (d *fakeDevice) Write(_ context.Context, addr, data uint32) error {
	if addr >= 0xf0000000 {
		return &errors.ProtocolError{Message: "bus error"}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.mem[addr] = data

	return nil
}

func newTestServer() (*SDKServer, *fakeDevice) {
	dev := newFakeDevice()

	return NewDAPServer(slog.New(slog.DiscardHandler), "uartdap", "test", dev), dev
}

func TestDAPServer_Tools(t *testing.T) {
	server, _ := newTestServer()

	tools := server.ListTools()
	require.Len(t, tools, 2)
	require.Equal(t, ToolReadMemory, tools[0].Name)
	require.Equal(t, ToolWriteMemory, tools[1].Name)
}

func TestDAPServer_WriteThenRead(t *testing.T) {
	server, dev := newTestServer()
	ctx := t.Context()

	result := server.CallTool(ctx, ToolWriteMemory, map[string]any{"address": "0xc0000010", "data": "0x600df00d"})
	require.False(t, result.IsError, textOf(t, result))
	require.Equal(t, "write 0xc0000010 ok", textOf(t, result))
	require.Equal(t, uint32(0x600df00d), dev.mem[0xc0000010])

	result = server.CallTool(ctx, ToolReadMemory, map[string]any{"address": "3221225488"})
	require.False(t, result.IsError, textOf(t, result))
	require.Equal(t, "read 0xc0000010 = 0x600df00d", textOf(t, result))

	result = server.CallTool(ctx, ToolReadMemory, map[string]any{"address": float64(0xc0000010)})
	require.False(t, result.IsError, textOf(t, result))
}

func TestDAPServer_Errors(t *testing.T) {
	server, _ := newTestServer()
	ctx := t.Context()

	tests := []struct {
		name  string
		tool  string
		input map[string]any
		want  string
	}{
		{
			name:  "missing address",
			tool:  ToolReadMemory,
			input: map[string]any{},
			want:  `missing argument "address"`,
		},
		{
			name:  "address too wide",
			tool:  ToolReadMemory,
			input: map[string]any{"address": "0x100000000"},
			want:  `argument "address"`,
		},
		{
			name:  "negative number",
			tool:  ToolWriteMemory,
			input: map[string]any{"address": float64(-1), "data": "1"},
			want:  "is not a 32-bit word",
		},
		{
			name:  "wrong type",
			tool:  ToolWriteMemory,
			input: map[string]any{"address": "0x10", "data": true},
			want:  "expected string, got bool",
		},
		{
			name:  "monitor error",
			tool:  ToolReadMemory,
			input: map[string]any{"address": "0xf0000000"},
			want:  "monitor error: bus error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := server.CallTool(ctx, tt.tool, tt.input)
			require.True(t, result.IsError)
			require.Contains(t, textOf(t, result), tt.want)
		})
	}
}

// TestDAPServer_OverTransport drives the tools through a real MCP client
// session over in-memory transports.
func TestDAPServer_OverTransport(t *testing.T) {
	server, _ := newTestServer()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	serverTransport, clientTransport := mcpgo.NewInMemoryTransports()

	served := make(chan error, 1)

	go func() {
		served <- server.Run(ctx, serverTransport)
	}()

	mcpClient := mcpgo.NewClient(&mcpgo.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	session, err := mcpClient.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer session.Close()

	listed, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listed.Tools, 2)

	result, err := session.CallTool(ctx, &mcpgo.CallToolParams{
		Name:      ToolWriteMemory,
		Arguments: map[string]any{"address": "0x20", "data": "0b1010"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	result, err = session.CallTool(ctx, &mcpgo.CallToolParams{
		Name:      ToolReadMemory,
		Arguments: map[string]any{"address": "0x20"},
	})
	require.NoError(t, err)
	require.Equal(t, "read 0x00000020 = 0x0000000a", textOf(t, result))
}
