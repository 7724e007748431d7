package message

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/uartdap-go/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		want     Event
		wantKind errors.ParseErrorKind
	}{
		{
			name: "read ack",
			line: "0x600df00d 0x5a5a5a5a",
			want: &ReadEvent{Addr: 0x600df00d, Data: 0x5a5a5a5a},
		},
		{
			name: "read ack with colon",
			line: "0x00000010: 0x00000020",
			want: &ReadEvent{Addr: 0x10, Data: 0x20},
		},
		{
			name: "read ack upper case digits",
			line: "0XC0000010 0XDEADBEEF",
			want: &ReadEvent{Addr: 0xc0000010, Data: 0xdeadbeef},
		},
		{
			name: "hexdump read",
			line: "c0000010: 03 0a 30 18  00 00 00 00  00 00 00 80  00 07 00 00 |..0.............|",
			want: &ReadEvent{Addr: 0xc0000010, Data: 0x030a3018},
		},
		{
			name: "hexdump read without padding",
			line: "10: 5a 5a 5a 5a 1 2 3 4 |--------|",
			want: &ReadEvent{Addr: 0x10, Data: 0x5a5a5a5a},
		},
		{
			name: "hexdump read without ascii column",
			line: "c0e04004: 00 40 04 a0",
			want: &ReadEvent{Addr: 0xc0e04004, Data: 0x004004a0},
		},
		{
			name:     "hexdump too short",
			line:     "c0e04004: 00 40",
			wantKind: errors.ParseErrorUnrecognized,
		},
		{
			name: "write ack bare address",
			line: "0x00000010",
			want: &WriteEvent{Addr: 0x10},
		},
		{
			name: "write ack colon ok",
			line: "0x00000010: OK",
			want: &WriteEvent{Addr: 0x10},
		},
		{
			name: "write ack trailing ok",
			line: "0x10 OK",
			want: &WriteEvent{Addr: 0x10},
		},
		{
			name: "write ack leading ok",
			line: "OK 0x10",
			want: &WriteEvent{Addr: 0x10},
		},
		{
			name: "error",
			line: "Error: unable to parse addr: 0xZZ",
			want: &ErrorEvent{Message: "unable to parse addr: 0xZZ"},
		},
		{
			name: "error upper case",
			line: "ERROR: bus fault",
			want: &ErrorEvent{Message: "bus fault"},
		},
		{
			name:     "empty",
			line:     "   ",
			wantKind: errors.ParseErrorEmpty,
		},
		{
			name:     "banner",
			line:     "Welcome to kernel monitor",
			wantKind: errors.ParseErrorUnrecognized,
		},
		{
			name:     "echoed read",
			line:     "mr kernel 0x00000001",
			wantKind: errors.ParseErrorUnrecognized,
		},
		{
			name:     "echoed write",
			line:     "mw kernel 0x00000010 0x00000020",
			wantKind: errors.ParseErrorUnrecognized,
		},
		{
			name:     "bare ok",
			line:     "OK",
			wantKind: errors.ParseErrorUnrecognized,
		},
		{
			name:     "address wider than 32 bits",
			line:     "0x1000000000 0x00000001",
			wantKind: errors.ParseErrorUnrecognized,
		},
		{
			name:     "data wider than 32 bits",
			line:     "0x00000001 0x123456789",
			wantKind: errors.ParseErrorUnrecognized,
		},
		{
			name:     "help text",
			line:     "mr kernel <addr>",
			wantKind: errors.ParseErrorUnrecognized,
		},
		{
			name:     "case sensitive error prefix",
			line:     "eRRoR: nope",
			wantKind: errors.ParseErrorUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)

			if tt.want != nil {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)

				return
			}

			require.Nil(t, got)

			perr, ok := stderrors.AsType[*errors.ParseError](err)
			require.True(t, ok, "expected *ParseError, got %T", err)
			require.Equal(t, tt.wantKind, perr.Kind)
		})
	}
}

// TestParse_WriteRoundTrip verifies that the acknowledgement of an encoded
// write parses back to a write event for the same address.
func TestParse_WriteRoundTrip(t *testing.T) {
	addrs := []uint32{0, 1, 0x10, 0x600df00d, 0x7fffffff, 0x80000000, 0xffffffff}
	data := []uint32{0, 0x20, 0xffffffff}

	for _, addr := range addrs {
		for _, d := range data {
			cmd := &WriteCommand{Addr: addr, Data: d}

			_, err := Encode(cmd)
			require.NoError(t, err)

			for _, ack := range writeAcks(addr) {
				ev, err := Parse(ack)
				require.NoError(t, err, ack)
				require.Equal(t, &WriteEvent{Addr: addr}, ev, ack)
				require.True(t, Matches(cmd, ev))
			}
		}
	}
}

func writeAcks(addr uint32) []string {
	return []string{
		fmt.Sprintf("0x%08x", addr),
		fmt.Sprintf("0x%08x: OK", addr),
		fmt.Sprintf("0x%x OK", addr),
		fmt.Sprintf("OK 0x%08x", addr),
	}
}

func TestMatches(t *testing.T) {
	read := &ReadCommand{Addr: 0x1}
	write := &WriteCommand{Addr: 0x10, Data: 0x20}

	require.True(t, Matches(read, &ReadEvent{Addr: 0x1, Data: 7}))
	require.False(t, Matches(read, &ReadEvent{Addr: 0x2}))
	require.False(t, Matches(read, &WriteEvent{Addr: 0x1}))

	require.True(t, Matches(write, &WriteEvent{Addr: 0x10}))
	require.False(t, Matches(write, &WriteEvent{Addr: 0x20}))
	require.False(t, Matches(write, &ReadEvent{Addr: 0x10}))

	require.True(t, Matches(read, &ErrorEvent{Message: "x"}))
	require.True(t, Matches(write, &ErrorEvent{}))
	require.False(t, Matches(write, &ClosedEvent{}))
}
