package uartdap

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
)

// CommandsFromSlice creates a command sequence from a slice.
// This is useful for sending a fixed batch with Exec.
func CommandsFromSlice(cmds []Command) iter.Seq[Command] {
	return func(yield func(Command) bool) {
		for _, cmd := range cmds {
			if !yield(cmd) {
				return
			}
		}
	}
}

// CommandsFromChannel creates a command sequence from a channel.
// This is useful for commands produced over time.
// The iterator completes when the channel is closed.
func CommandsFromChannel(ch <-chan Command) iter.Seq[Command] {
	return func(yield func(Command) bool) {
		for cmd := range ch {
			if !yield(cmd) {
				return
			}
		}
	}
}

// ParseCommandScript reads one command per line from r. Blank lines and
// lines starting with # are skipped. The first malformed line is reported
// with its line number.
func ParseCommandScript(r io.Reader) ([]Command, error) {
	var cmds []Command

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cmd, err := ParseCommandLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		cmds = append(cmds, cmd)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}

	return cmds, nil
}
