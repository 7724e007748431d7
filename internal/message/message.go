package message

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wagiedev/uartdap-go/internal/errors"
)

// Command represents a request sent to the monitor.
// Use type assertion or type switch to determine the concrete type.
type Command interface {
	CommandType() string
	// Address returns the target address the command operates on.
	Address() uint32
}

// Compile-time verification that all command types implement Command.
var (
	_ Command = (*ReadCommand)(nil)
	_ Command = (*WriteCommand)(nil)
)

// ReadCommand reads one 32-bit word.
type ReadCommand struct {
	Addr uint32 `json:"addr"`
}

// CommandType implements Command.
func (c *ReadCommand) CommandType() string { return "read" }

// Address implements Command.
func (c *ReadCommand) Address() uint32 { return c.Addr }

// WriteCommand writes one 32-bit word.
type WriteCommand struct {
	Addr uint32 `json:"addr"`
	Data uint32 `json:"data"`
}

// CommandType implements Command.
func (c *WriteCommand) CommandType() string { return "write" }

// Address implements Command.
func (c *WriteCommand) Address() uint32 { return c.Addr }

// NewReadCommand creates a ReadCommand, rejecting addresses wider than 32 bits.
func NewReadCommand(addr uint64) (*ReadCommand, error) {
	a, err := narrow("addr", addr)
	if err != nil {
		return nil, err
	}

	return &ReadCommand{Addr: a}, nil
}

// NewWriteCommand creates a WriteCommand, rejecting values wider than 32 bits.
func NewWriteCommand(addr, data uint64) (*WriteCommand, error) {
	a, err := narrow("addr", addr)
	if err != nil {
		return nil, err
	}

	d, err := narrow("data", data)
	if err != nil {
		return nil, err
	}

	return &WriteCommand{Addr: a, Data: d}, nil
}

func narrow(field string, v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, &errors.CommandError{
			Field:  field,
			Value:  "0x" + strconv.FormatUint(v, 16),
			Reason: "exceeds 32 bits",
		}
	}

	return uint32(v), nil
}

// Event represents an outcome reported by the session.
// Use type assertion or type switch to determine the concrete type.
type Event interface {
	EventType() string
}

// Compile-time verification that all event types implement Event.
var (
	_ Event = (*ReadEvent)(nil)
	_ Event = (*WriteEvent)(nil)
	_ Event = (*ErrorEvent)(nil)
	_ Event = (*ClosedEvent)(nil)
)

// ReadEvent reports the word read from an address.
type ReadEvent struct {
	Addr uint32 `json:"addr"`
	Data uint32 `json:"data"`
}

// EventType implements Event.
func (e *ReadEvent) EventType() string { return "read" }

func (e *ReadEvent) String() string {
	return fmt.Sprintf("read 0x%08x = 0x%08x", e.Addr, e.Data)
}

// WriteEvent acknowledges a write to an address.
type WriteEvent struct {
	Addr uint32 `json:"addr"`
}

// EventType implements Event.
func (e *WriteEvent) EventType() string { return "write" }

func (e *WriteEvent) String() string {
	return fmt.Sprintf("write 0x%08x ok", e.Addr)
}

// ErrorEvent carries the monitor's error text for the pending command.
type ErrorEvent struct {
	Message string `json:"message"`
}

// EventType implements Event.
func (e *ErrorEvent) EventType() string { return "error" }

func (e *ErrorEvent) String() string {
	return "error: " + e.Message
}

// Err converts the event into a *errors.ProtocolError.
func (e *ErrorEvent) Err() error {
	return &errors.ProtocolError{Message: e.Message}
}

// ClosedEvent reports that the transport ended. It is always the last event.
type ClosedEvent struct{}

// EventType implements Event.
func (e *ClosedEvent) EventType() string { return "closed" }

func (e *ClosedEvent) String() string { return "closed" }
