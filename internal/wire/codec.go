package wire

import (
	"bytes"
	"fmt"
	"iter"
)

// MaxLineLength bounds the partial line buffer. An unterminated run longer
// than this is flushed as a line of its own.
const MaxLineLength = 4096

// LineEnding is the line terminator used in both directions.
type LineEnding int

const (
	// LineEndingLF terminates lines with "\n".
	LineEndingLF LineEnding = iota
	// LineEndingCRLF terminates lines with "\r\n".
	LineEndingCRLF
)

// String returns the flag spelling of the line ending.
func (e LineEnding) String() string {
	switch e {
	case LineEndingLF:
		return "lf"
	case LineEndingCRLF:
		return "crlf"
	default:
		return fmt.Sprintf("LineEnding(%d)", int(e))
	}
}

// Terminator returns the wire bytes that end a line.
func (e LineEnding) Terminator() []byte {
	if e == LineEndingCRLF {
		return []byte("\r\n")
	}

	return []byte("\n")
}

// Valid reports whether e is a known line ending.
func (e LineEnding) Valid() bool {
	return e == LineEndingLF || e == LineEndingCRLF
}

// Encode appends the terminator to line. Embedded terminator characters are
// passed through unchanged.
func (e LineEnding) Encode(line string) []byte {
	term := e.Terminator()

	out := make([]byte, 0, len(line)+len(term))
	out = append(out, line...)

	return append(out, term...)
}

// ParseLineEnding parses "lf" or "crlf".
func ParseLineEnding(s string) (LineEnding, error) {
	switch s {
	case "lf", "LF", "":
		return LineEndingLF, nil
	case "crlf", "CRLF":
		return LineEndingCRLF, nil
	default:
		return 0, fmt.Errorf("unknown line ending %q", s)
	}
}

// Splitter accumulates bytes read from the transport and yields complete
// lines with the terminator removed. Bytes after the last terminator are kept
// for the next Write. A Splitter is not safe for concurrent use.
type Splitter struct {
	term []byte
	buf  []byte
}

// NewSplitter creates a Splitter for the given line ending.
func NewSplitter(ending LineEnding) *Splitter {
	return &Splitter{term: ending.Terminator()}
}

// Write appends p to the buffer. It never fails.
func (s *Splitter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)

	return len(p), nil
}

// Lines yields every complete line currently buffered. Stopping early leaves
// the remaining lines buffered, so ranging again continues where it stopped.
func (s *Splitter) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, ok := s.next()
			if !ok {
				return
			}

			if !yield(line) {
				return
			}
		}
	}
}

// Pending returns the number of buffered bytes not yet part of a line.
func (s *Splitter) Pending() int {
	return len(s.buf)
}

func (s *Splitter) next() (string, bool) {
	idx := bytes.Index(s.buf, s.term)

	switch {
	case idx >= 0 && idx <= MaxLineLength:
		line := string(s.buf[:idx])
		s.consume(idx + len(s.term))

		return line, true
	case len(s.buf) > MaxLineLength:
		line := string(s.buf[:MaxLineLength])
		s.consume(MaxLineLength)

		return line, true
	default:
		return "", false
	}
}

func (s *Splitter) consume(n int) {
	rest := copy(s.buf, s.buf[n:])
	s.buf = s.buf[:rest]
}
