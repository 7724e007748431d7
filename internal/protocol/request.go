package protocol

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/uartdap-go/internal/message"
)

// State is the position of a Session in its lifecycle.
type State int32

const (
	// StateIdle means no request is outstanding.
	StateIdle State = iota
	// StateAwaiting means one request was written and awaits its response.
	StateAwaiting
	// StateClosed is terminal; the transport ended.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaiting:
		return "awaiting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// pendingRequest tracks the one command written and awaiting a response.
type pendingRequest struct {
	id     string
	cmd    message.Command
	line   string
	sentAt time.Time
}

func newPendingRequest(cmd message.Command, line string) *pendingRequest {
	return &pendingRequest{
		id:     generateRequestID(),
		cmd:    cmd,
		line:   line,
		sentAt: time.Now(),
	}
}

// generateRequestID creates a unique, time-ordered request ID for log correlation.
func generateRequestID() string {
	return "req_" + ulid.Make().String()
}
