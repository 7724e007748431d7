package message

import (
	"fmt"

	"github.com/wagiedev/uartdap-go/internal/errors"
)

// Encode renders cmd as the monitor command line, without terminator.
//
//	Read  -> mr kernel 0x<addr>
//	Write -> mw kernel 0x<addr> 0x<data>
//
// Unknown or nil commands return a *errors.CommandError.
func Encode(cmd Command) (string, error) {
	switch c := cmd.(type) {
	case *ReadCommand:
		if c == nil {
			break
		}

		return fmt.Sprintf("mr kernel 0x%08x", c.Addr), nil
	case *WriteCommand:
		if c == nil {
			break
		}

		return fmt.Sprintf("mw kernel 0x%08x 0x%08x", c.Addr, c.Data), nil
	}

	return "", &errors.CommandError{Field: "command", Reason: fmt.Sprintf("unsupported command %T", cmd)}
}
