package wire

import "fmt"

// Echo describes who, if anyone, retransmits written lines back to us.
type Echo int

const (
	// EchoNone means nothing is echoed.
	EchoNone Echo = iota
	// EchoLocal means the local terminal driver echoes; nothing reaches us.
	EchoLocal
	// EchoRemote means the monitor echoes each transmitted line once.
	EchoRemote
)

// String returns the flag spelling of the echo mode.
func (e Echo) String() string {
	switch e {
	case EchoNone:
		return "none"
	case EchoLocal:
		return "local"
	case EchoRemote:
		return "remote"
	default:
		return fmt.Sprintf("Echo(%d)", int(e))
	}
}

// Valid reports whether e is a known echo mode.
func (e Echo) Valid() bool {
	return e >= EchoNone && e <= EchoRemote
}

// ParseEcho parses "none", "local" or "remote".
func ParseEcho(s string) (Echo, error) {
	switch s {
	case "none", "":
		return EchoNone, nil
	case "local":
		return EchoLocal, nil
	case "remote":
		return EchoRemote, nil
	default:
		return 0, fmt.Errorf("unknown echo mode %q", s)
	}
}

// EchoFilter drops the single echoed copy of the last transmitted line.
type EchoFilter struct {
	echo     Echo
	expected string
	armed    bool
}

// NewEchoFilter creates a filter for the given echo mode.
func NewEchoFilter(echo Echo) *EchoFilter {
	return &EchoFilter{echo: echo}
}

// Expect records line as the last transmitted line. It replaces any earlier
// expectation and is a no-op unless the mode is EchoRemote.
func (f *EchoFilter) Expect(line string) {
	if f.echo != EchoRemote {
		return
	}

	f.expected = line
	f.armed = true
}

// Suppress reports whether line is the echo of the last transmitted line.
// A match disarms the filter, so an identical follow-up line passes.
func (f *EchoFilter) Suppress(line string) bool {
	if !f.armed || line != f.expected {
		return false
	}

	f.armed = false
	f.expected = ""

	return true
}

// Reset disarms the filter.
func (f *EchoFilter) Reset() {
	f.armed = false
	f.expected = ""
}
