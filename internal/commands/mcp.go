package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	uartdap "github.com/wagiedev/uartdap-go"
)

// NewMCPCommand creates the MCP tool server command.
func NewMCPCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve memory access as MCP tools over stdio",
		Long: `Opens a session and serves the read_memory and write_memory tools to a
Model Context Protocol client on stdin/stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.sessionOptions()
			if err != nil {
				return err
			}

			client := uartdap.NewClient()
			defer client.Close()

			if err := client.Start(cmd.Context(), opts...); err != nil {
				return err
			}

			return serveMCP(cmd.Context(), flags.log, client, &mcp.StdioTransport{})
		},
	}
}

// serveMCP runs the tool server until the peer disconnects, ctx ends, or the
// session closes underneath it.
func serveMCP(ctx context.Context, log *slog.Logger, client uartdap.Client, transport mcp.Transport) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-client.Done():
			log.Warn("Session closed, stopping MCP server")
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info("Serving MCP tools", "name", "uartdap", "version", uartdap.Version)

	err := uartdap.NewMCPServer(client, log).Run(ctx, transport)

	select {
	case <-client.Done():
		return fmt.Errorf("mcp server: %w", uartdap.ErrSessionClosed)
	default:
	}

	if err != nil && ctx.Err() != nil {
		return nil
	}

	return err
}
