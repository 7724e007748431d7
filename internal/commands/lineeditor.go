package commands

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

// historySize is the number of console history entries kept on disk.
const historySize = 500

// lineEditor reads console input with readline when attached to a terminal
// and falls back to a plain scanner for piped input.
type lineEditor struct {
	rl      *readline.Instance
	scanner *bufio.Scanner
	out     io.Writer
}

// newLineEditor picks the editing mode for in. History is only kept in
// interactive mode, and only when historyPath is set.
func newLineEditor(log *slog.Logger, in io.Reader, out io.Writer, historyPath string) *lineEditor {
	if !isTerminal(in) || os.Getenv("INSIDE_EMACS") != "" {
		return &lineEditor{scanner: bufio.NewScanner(in), out: out}
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyPath,
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		log.Warn("readline unavailable, using basic input", "error", err)

		return &lineEditor{scanner: bufio.NewScanner(in), out: out}
	}

	return &lineEditor{rl: rl, out: out}
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// interactive reports whether readline is in use.
func (le *lineEditor) interactive() bool {
	return le.rl != nil
}

// readLine shows prompt and returns the next line. It returns io.EOF at end
// of input or on Ctrl-C.
func (le *lineEditor) readLine(prompt string) (string, error) {
	if le.rl == nil {
		fmt.Fprint(le.out, prompt)

		if !le.scanner.Scan() {
			if err := le.scanner.Err(); err != nil {
				return "", err
			}

			return "", io.EOF
		}

		return le.scanner.Text(), nil
	}

	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if stderrors.Is(err, readline.ErrInterrupt) {
			return "", io.EOF
		}

		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}

	return line, nil
}

// Close saves history and releases the terminal.
func (le *lineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}
