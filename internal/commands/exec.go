package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	uartdap "github.com/wagiedev/uartdap-go"
)

// Output formats accepted by exec.
const (
	formatText = "text"
	formatJSON = "json"
)

// eventRecord is the JSON line written for each event.
type eventRecord struct {
	Type  string        `json:"type"`
	Event uartdap.Event `json:"event,omitempty"`
}

// NewExecCommand creates the batch command runner.
func NewExecCommand(flags *globalFlags) *cobra.Command {
	var (
		commands []string
		format   string
	)

	execCmd := &cobra.Command{
		Use:   "exec [script...]",
		Short: "Run a batch of commands",
		Long: `Runs commands from --command flags, script files, or stdin when neither is
given ("-" also names stdin). Scripts hold one command per line; blank lines
and lines starting with # are ignored.

The exit status is non-zero if any command was answered with an error.`,
		Example: `  uartdap exec -d /dev/ttyUSB0 -c "mw kernel 0xc0000010 0x600df00d" -c "mr kernel 0xc0000010"
  uartdap exec -d tcp://localhost:4000 --format json init.dap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("invalid --format %q: must be %s or %s", format, formatText, formatJSON)
			}

			cmds, err := loadCommands(cmd.InOrStdin(), commands, args)
			if err != nil {
				return err
			}

			opts, err := flags.sessionOptions()
			if err != nil {
				return err
			}

			return runExec(cmd.Context(), cmd.OutOrStdout(), cmds, format, opts)
		},
	}

	execCmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "Command to run (repeatable)")
	execCmd.Flags().StringVar(&format, "format", formatText, "Output format (text, json)")

	return execCmd
}

// loadCommands collects commands from flags first, then scripts in order.
func loadCommands(stdin io.Reader, lines, scripts []string) ([]uartdap.Command, error) {
	cmds, err := uartdap.ParseCommandScript(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return nil, fmt.Errorf("--command: %w", err)
	}

	if len(lines) == 0 && len(scripts) == 0 {
		scripts = []string{"-"}
	}

	for _, name := range scripts {
		parsed, err := parseScript(stdin, name)
		if err != nil {
			return nil, err
		}

		cmds = append(cmds, parsed...)
	}

	return cmds, nil
}

func parseScript(stdin io.Reader, name string) ([]uartdap.Command, error) {
	if name == "-" {
		cmds, err := uartdap.ParseCommandScript(stdin)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}

		return cmds, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cmds, err := uartdap.ParseCommandScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return cmds, nil
}

// runExec sends cmds over a fresh session and prints every event.
func runExec(ctx context.Context, out io.Writer, cmds []uartdap.Command, format string, opts []uartdap.Option) error {
	enc := json.NewEncoder(out)
	answered, failed := 0, 0

	for ev, err := range uartdap.Exec(ctx, uartdap.CommandsFromSlice(cmds), opts...) {
		if err != nil {
			return err
		}

		switch ev.(type) {
		case *uartdap.ErrorEvent:
			answered++
			failed++
		case *uartdap.ReadEvent, *uartdap.WriteEvent:
			answered++
		}

		if format == formatJSON {
			if err := enc.Encode(eventRecord{Type: ev.EventType(), Event: ev}); err != nil {
				return fmt.Errorf("write event: %w", err)
			}

			continue
		}

		if _, ok := ev.(*uartdap.ClosedEvent); ok {
			continue
		}

		fmt.Fprintln(out, ev)
	}

	if answered < len(cmds) {
		return fmt.Errorf("session closed after %d of %d commands", answered, len(cmds))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d commands failed", failed, len(cmds))
	}

	return nil
}
