package message

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wagiedev/uartdap-go/internal/errors"
)

// Monitor acknowledgement grammar. Hex fields are limited to eight digits so
// wider values fail to match instead of being truncated.
var (
	errorPattern   = regexp.MustCompile(`^(?:Error|ERROR|error):\s*(.*)$`)
	readPattern    = regexp.MustCompile(`^0[xX]([0-9a-fA-F]{1,8}):?\s+0[xX]([0-9a-fA-F]{1,8})$`)
	writePattern   = regexp.MustCompile(`^(?:OK\s+)?0[xX]([0-9a-fA-F]{1,8})(?::?\s*OK)?$`)
	hexdumpPattern = regexp.MustCompile(`^(?:0[xX])?([0-9a-fA-F]{1,8}):((?:\s+[0-9a-fA-F]{1,2})+)\s*(?:\|.*\|)?$`)
)

// Parse converts one normalized monitor line into an Event.
//
// Recognized forms:
//
//	0x<addr>[:] 0x<data>            read acknowledgement
//	<addr>: b0 b1 b2 b3 ... |ascii|  read acknowledgement (hexdump, big-endian word)
//	0x<addr>[:] [OK] / OK 0x<addr>  write acknowledgement
//	Error: <message>                error acknowledgement
//
// Anything else, including the echo of our own commands, returns a
// *errors.ParseError. Parse never consults session state.
func Parse(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, &errors.ParseError{Kind: errors.ParseErrorEmpty}
	}

	if m := errorPattern.FindStringSubmatch(line); m != nil {
		return &ErrorEvent{Message: strings.TrimSpace(m[1])}, nil
	}

	if m := readPattern.FindStringSubmatch(line); m != nil {
		return &ReadEvent{Addr: hexField(m[1]), Data: hexField(m[2])}, nil
	}

	if m := writePattern.FindStringSubmatch(line); m != nil {
		return &WriteEvent{Addr: hexField(m[1])}, nil
	}

	if m := hexdumpPattern.FindStringSubmatch(line); m != nil {
		if ev, ok := parseHexdump(m[1], m[2]); ok {
			return ev, nil
		}
	}

	return nil, &errors.ParseError{Kind: errors.ParseErrorUnrecognized, Line: line}
}

// parseHexdump folds the first four dumped bytes into a big-endian word.
func parseHexdump(addr, dump string) (*ReadEvent, bool) {
	fields := strings.Fields(dump)
	if len(fields) < 4 {
		return nil, false
	}

	var data uint32

	for _, f := range fields[:4] {
		data = data<<8 | hexField(f)
	}

	return &ReadEvent{Addr: hexField(addr), Data: data}, true
}

// hexField parses a field the patterns have already limited to at most
// eight hex digits, so the conversion cannot fail.
func hexField(s string) uint32 {
	v, _ := strconv.ParseUint(s, 16, 32)

	return uint32(v)
}

// Matches reports whether ev resolves cmd. Read and write acknowledgements
// must carry the same kind and address; an error resolves any command.
func Matches(cmd Command, ev Event) bool {
	switch e := ev.(type) {
	case *ErrorEvent:
		return true
	case *ReadEvent:
		c, ok := cmd.(*ReadCommand)

		return ok && c != nil && c.Addr == e.Addr
	case *WriteEvent:
		c, ok := cmd.(*WriteCommand)

		return ok && c != nil && c.Addr == e.Addr
	default:
		return false
	}
}
