package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	uartdap "github.com/wagiedev/uartdap-go"
)

const (
	consolePrompt   = "uartdap> "
	historyFileName = ".uartdap_history"
)

const consoleHelp = `Commands:
    mr kernel <addr>          read the word at addr
    mw kernel <addr> <data>   write data to addr
    help                      show this help
    exit                      leave the console
Numbers accept 0x, 0b or decimal notation.
`

// NewConsoleCommand creates the interactive console.
func NewConsoleCommand(flags *globalFlags) *cobra.Command {
	var history string

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Open an interactive memory console",
		Long: `Opens a session and reads commands line by line, printing the outcome of
each. Line editing and history are available when stdin is a terminal.`,
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

			editor := newLineEditor(flags.log, cmd.InOrStdin(), cmd.OutOrStdout(), history)
			defer editor.Close()

			if editor.interactive() {
				fmt.Fprintf(cmd.OutOrStdout(), "uartdap %s. Type help for commands.\n", uartdap.Version)
			}

			return runConsole(cmd.Context(), client, editor, cmd.OutOrStdout())
		},
	}

	consoleCmd.Flags().StringVar(&history, "history", defaultHistoryPath(), "History file (empty disables history)")

	return consoleCmd
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, historyFileName)
}

// runConsole executes one command per input line until end of input, exit,
// or a session failure.
func runConsole(ctx context.Context, client uartdap.Client, editor *lineEditor, out io.Writer) error {
	for {
		line, err := editor.readLine(consolePrompt)
		if stderrors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)

		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help", "?", "h":
			fmt.Fprint(out, consoleHelp)

			continue
		}

		if strings.HasPrefix(line, "#") {
			continue
		}

		cmd, err := uartdap.ParseCommandLine(line)
		if err != nil {
			fmt.Fprintln(out, "error:", err)

			continue
		}

		ev, err := client.Do(ctx, cmd)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		fmt.Fprintln(out, ev)
	}
}
