package uartdap

import (
	"log/slog"

	internalmcp "github.com/wagiedev/uartdap-go/internal/mcp"
)

// MCPServer exposes memory access as Model Context Protocol tools.
// Serve it with Run over any go-sdk transport, such as &mcp.StdioTransport{}.
type MCPServer = internalmcp.SDKServer

// MCP tool names.
const (
	MCPToolReadMemory  = internalmcp.ToolReadMemory
	MCPToolWriteMemory = internalmcp.ToolWriteMemory
)

// NewMCPServer creates an MCP server with the read_memory and write_memory
// tools bound to a started client. A nil logger disables logging.
func NewMCPServer(client Client, log *slog.Logger) *MCPServer {
	if log == nil {
		log = NopLogger()
	}

	return internalmcp.NewDAPServer(log, "uartdap", Version, client)
}
