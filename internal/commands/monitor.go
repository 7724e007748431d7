package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	uartdap "github.com/wagiedev/uartdap-go"
	"github.com/wagiedev/uartdap-go/internal/config"
	"github.com/wagiedev/uartdap-go/internal/monitor"
	"github.com/wagiedev/uartdap-go/internal/transport"
)

// NewMonitorCommand creates the model monitor command.
func NewMonitorCommand(flags *globalFlags) *cobra.Command {
	var listen string

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run a model kernel monitor for testing without hardware",
		Long: `Serves an in-memory model of a kernel monitor, either on a serial port
(--device, e.g. one end of a null-modem pair) or on a TCP address (--listen)
that clients reach with --device tcp://host:port.

--target selects the banner and prompt; --echo remote makes the model echo
each received line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			echo, err := uartdap.ParseEcho(flags.echo)
			if err != nil {
				return &uartdap.ConfigError{Field: "echo", Reason: err.Error()}
			}

			target, err := uartdap.ParseTarget(flags.target)
			if err != nil {
				return &uartdap.ConfigError{Field: "target", Reason: err.Error()}
			}

			m := monitor.New(&monitor.Config{
				Target: target,
				Echo:   echo == uartdap.EchoRemote,
				Logger: flags.log,
			})

			if listen != "" {
				ln, err := net.Listen("tcp", listen)
				if err != nil {
					return fmt.Errorf("listen on %s: %w", listen, err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())

				return serveListener(cmd.Context(), flags.log, m, ln)
			}

			return serveDevice(cmd.Context(), flags.log, m, &config.Options{
				Logger:      flags.log,
				Device:      flags.device,
				BaudRate:    flags.baudRate,
				DataBits:    flags.dataBits,
				Parity:      flags.parity,
				StopBits:    flags.stopBits,
				DialTimeout: flags.dialTimeout,
			})
		},
	}

	monitorCmd.Flags().StringVarP(&listen, "listen", "l", "", "Serve on a TCP address instead of a serial port")

	return monitorCmd
}

// serveListener serves every accepted connection until ctx ends. Memory is
// shared between connections.
func serveListener(ctx context.Context, log *slog.Logger, m *monitor.Monitor, ln net.Listener) error {
	log = log.With("component", "monitor_listener", "addr", ln.Addr().String())

	eg, ctx := errgroup.WithContext(ctx)

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	eg.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}

				return fmt.Errorf("accept: %w", err)
			}

			log.Info("Client connected", "remote", conn.RemoteAddr().String())

			eg.Go(func() error {
				defer conn.Close()

				if err := m.Serve(ctx, conn); err != nil && !stderrors.Is(err, context.Canceled) {
					log.Warn("Connection ended", "remote", conn.RemoteAddr().String(), "error", err)
				}

				return nil
			})
		}
	})

	return eg.Wait()
}

// serveDevice serves a single session on the configured console device.
func serveDevice(ctx context.Context, log *slog.Logger, m *monitor.Monitor, options *config.Options) error {
	options.ApplyDefaults()

	if err := options.Validate(); err != nil {
		return err
	}

	t := transport.New(log, options)

	if err := t.Start(ctx); err != nil {
		return err
	}

	conn := transport.NewConn(ctx, t)
	defer conn.Close()

	err := m.Serve(ctx, conn)
	if err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, io.EOF) {
		return nil
	}

	return err
}
