package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	uartdap "github.com/wagiedev/uartdap-go"
	"github.com/wagiedev/uartdap-go/internal/config"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	logLevel    string
	device      string
	baudRate    int
	dataBits    int
	parity      string
	stopBits    string
	echo        string
	lineEnding  string
	target      string
	dialTimeout time.Duration

	log *slog.Logger
}

// NewRootCommand builds the uartdap command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "uartdap",
		Short: "Read and write target memory over a UART debug console",
		Long: `uartdap drives the memory read/write commands of a kernel debug monitor
over a serial console, either a local serial port or a network serial bridge
(tcp://host:port).

Commands are typed in monitor syntax:

    mr kernel <addr>
    mw kernel <addr> <data>`,
		Version:       uartdap.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(cmd.ErrOrStderr(), flags.logLevel)
			if err != nil {
				return err
			}

			flags.log = log

			return nil
		},
	}

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVarP(&flags.device, "device", "d", "",
		"Serial port or tcp://host:port (default $"+config.EnvDevice+", then the first serial port)")
	pf.IntVarP(&flags.baudRate, "baud", "b", 0,
		fmt.Sprintf("Baud rate (default $%s, then %d)", config.EnvBaudRate, config.DefaultBaudRate))
	pf.IntVar(&flags.dataBits, "data-bits", config.DefaultDataBits, "Data bits (5-8)")
	pf.StringVar(&flags.parity, "parity", config.DefaultParity, "Parity (none, odd, even, mark, space)")
	pf.StringVar(&flags.stopBits, "stop-bits", config.DefaultStopBits, "Stop bits (1, 1.5, 2)")
	pf.StringVar(&flags.echo, "echo", "none", "Echo handling (none, local, remote)")
	pf.StringVar(&flags.lineEnding, "line-ending", "lf", "Line ending (lf, crlf)")
	pf.StringVar(&flags.target, "target", "none", "Monitor flavour (none, vxworks, integrity)")
	pf.DurationVar(&flags.dialTimeout, "dial-timeout", config.DefaultDialTimeout, "Timeout for tcp:// devices")

	rootCmd.AddCommand(NewConsoleCommand(flags))
	rootCmd.AddCommand(NewExecCommand(flags))
	rootCmd.AddCommand(NewMCPCommand(flags))
	rootCmd.AddCommand(NewMonitorCommand(flags))
	rootCmd.AddCommand(NewPortsCommand())

	return rootCmd
}

// newLogger builds a text logger on w at the named level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level

	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// sessionOptions converts the console flags into client options.
func (f *globalFlags) sessionOptions() ([]uartdap.Option, error) {
	echo, err := uartdap.ParseEcho(f.echo)
	if err != nil {
		return nil, &uartdap.ConfigError{Field: "echo", Reason: err.Error()}
	}

	ending, err := uartdap.ParseLineEnding(f.lineEnding)
	if err != nil {
		return nil, &uartdap.ConfigError{Field: "line_ending", Reason: err.Error()}
	}

	target, err := uartdap.ParseTarget(f.target)
	if err != nil {
		return nil, &uartdap.ConfigError{Field: "target", Reason: err.Error()}
	}

	return []uartdap.Option{
		uartdap.WithLogger(f.log),
		uartdap.WithDevice(f.device),
		uartdap.WithBaudRate(f.baudRate),
		uartdap.WithSerialFraming(f.dataBits, f.parity, f.stopBits),
		uartdap.WithDialTimeout(f.dialTimeout),
		uartdap.WithEcho(echo),
		uartdap.WithLineEnding(ending),
		uartdap.WithTarget(target),
	}, nil
}
