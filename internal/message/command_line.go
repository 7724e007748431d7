package message

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/wagiedev/uartdap-go/internal/errors"
)

const commandUsage = "expected \"mr kernel <addr>\" or \"mw kernel <addr> <data>\""

// ParseCommandLine parses a command typed in monitor syntax:
//
//	mr kernel <addr>
//	mw kernel <addr> <data>
//
// Numbers accept 0x, 0b or decimal notation. Values wider than 32 bits and
// the optional byte count of mr are rejected with a *errors.CommandError.
func ParseCommandLine(line string) (Command, error) {
	tokens := strings.Fields(line)

	switch {
	case len(tokens) == 3 && tokens[0] == "mr" && tokens[1] == "kernel":
		addr, err := parseField("addr", tokens[2])
		if err != nil {
			return nil, err
		}

		cmd, err := NewReadCommand(addr)
		if err != nil {
			return nil, err
		}

		return cmd, nil

	case len(tokens) == 4 && tokens[0] == "mr" && tokens[1] == "kernel":
		return nil, &errors.CommandError{
			Field:  "nbytes",
			Value:  tokens[3],
			Reason: "byte count is not supported, reads are one word",
		}

	case len(tokens) == 4 && tokens[0] == "mw" && tokens[1] == "kernel":
		addr, err := parseField("addr", tokens[2])
		if err != nil {
			return nil, err
		}

		data, err := parseField("data", tokens[3])
		if err != nil {
			return nil, err
		}

		cmd, err := NewWriteCommand(addr, data)
		if err != nil {
			return nil, err
		}

		return cmd, nil
	}

	return nil, &errors.CommandError{
		Field:  "command",
		Value:  strings.TrimSpace(line),
		Reason: commandUsage,
	}
}

func parseField(field, s string) (uint64, error) {
	v, err := ParseBasedInt(s, 64)
	if stderrors.Is(err, strconv.ErrRange) {
		return 0, &errors.CommandError{Field: field, Value: s, Reason: "exceeds 32 bits"}
	}

	if err != nil {
		return 0, &errors.CommandError{Field: field, Value: s, Reason: "not a number"}
	}

	return v, nil
}

// ParseBasedInt parses an unsigned integer written as 0x<hex>, 0b<binary>
// or decimal, checking it fits in bitSize bits.
func ParseBasedInt(s string, bitSize int) (uint64, error) {
	base := 10
	digits := s

	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base, digits = 16, s[2:]
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		base, digits = 2, s[2:]
	}

	return strconv.ParseUint(digits, base, bitSize)
}
