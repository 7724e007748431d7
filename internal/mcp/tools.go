package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/uartdap-go/internal/message"
)

// Tool names registered by NewDAPServer.
const (
	ToolReadMemory  = "read_memory"
	ToolWriteMemory = "write_memory"
)

// Device is the memory access the DAP tools need. *client.Client satisfies it.
type Device interface {
	Read(ctx context.Context, addr uint32) (uint32, error)
	Write(ctx context.Context, addr, data uint32) error
}

// NewDAPServer creates a server with the read_memory and write_memory tools
// bound to dev.
func NewDAPServer(log *slog.Logger, name, version string, dev Device) *SDKServer {
	log = log.With("component", "mcp_server")
	server := NewSDKServer(name, version)

	server.AddTool(
		NewTool(ToolReadMemory,
			"Read one 32-bit word from target memory through the kernel monitor.",
			ObjectSchema(map[string]string{
				"address": "Word address: 0x hex, 0b binary or decimal.",
			}),
		),
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, err := ParseArguments(req)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}

			addr, err := wordArgument(args, "address")
			if err != nil {
				return ErrorResult(err.Error()), nil
			}

			data, err := dev.Read(ctx, addr)
			if err != nil {
				log.Warn("read_memory failed", "addr", fmt.Sprintf("0x%08x", addr), "error", err)

				return ErrorResult(err.Error()), nil
			}

			return TextResult((&message.ReadEvent{Addr: addr, Data: data}).String()), nil
		},
	)

	server.AddTool(
		NewTool(ToolWriteMemory,
			"Write one 32-bit word to target memory through the kernel monitor.",
			ObjectSchema(map[string]string{
				"address": "Word address: 0x hex, 0b binary or decimal.",
				"data":    "Word value: 0x hex, 0b binary or decimal.",
			}),
		),
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, err := ParseArguments(req)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}

			addr, err := wordArgument(args, "address")
			if err != nil {
				return ErrorResult(err.Error()), nil
			}

			data, err := wordArgument(args, "data")
			if err != nil {
				return ErrorResult(err.Error()), nil
			}

			if err := dev.Write(ctx, addr, data); err != nil {
				log.Warn("write_memory failed", "addr", fmt.Sprintf("0x%08x", addr), "error", err)

				return ErrorResult(err.Error()), nil
			}

			return TextResult((&message.WriteEvent{Addr: addr}).String()), nil
		},
	)

	return server
}

// wordArgument reads a 32-bit argument given as a based string or a JSON
// number.
func wordArgument(args map[string]any, name string) (uint32, error) {
	raw, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}

	var (
		v   uint64
		err error
	)

	switch x := raw.(type) {
	case string:
		v, err = message.ParseBasedInt(x, 32)
	case float64:
		if x < 0 || x > 0xffffffff || x != float64(uint64(x)) {
			return 0, fmt.Errorf("argument %q: %v is not a 32-bit word", name, x)
		}

		v = uint64(x)
	default:
		return 0, fmt.Errorf("argument %q: expected string, got %T", name, raw)
	}

	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", name, err)
	}

	return uint32(v), nil
}
