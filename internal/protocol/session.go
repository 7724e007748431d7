package protocol

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wagiedev/uartdap-go/internal/errors"
	"github.com/wagiedev/uartdap-go/internal/message"
	"github.com/wagiedev/uartdap-go/internal/wire"
)

// Transport defines the minimal interface needed by a Session.
//
// This interface is satisfied by the serial and stream transports but
// allows for testing with mock transports.
type Transport interface {
	ReadChunks(ctx context.Context) (<-chan []byte, <-chan error)
	Write(ctx context.Context, data []byte) error
}

// SessionConfig holds the line handling settings fixed at construction.
type SessionConfig struct {
	Echo       wire.Echo
	LineEnding wire.LineEnding
	Target     wire.Target
}

var errAlreadyRunning = stderrors.New("session already running")

// Session drives one monitor console. It owns the transport, writes at most
// one command at a time, and turns the console output into events correlated
// with the command that caused them.
//
// All protocol state is owned by the goroutine executing Run. Callers
// interact only through Send, Events and CloseInput.
type Session struct {
	log       *slog.Logger
	transport Transport
	cfg       SessionConfig

	splitter   *wire.Splitter
	normalizer *wire.Normalizer
	echo       *wire.EchoFilter

	// Queues. Both hold a single element.
	commands chan message.Command
	events   chan message.Event

	inputOnce sync.Once
	inputDone chan struct{}

	// stopped is set once the loop reads no more commands. A Send that
	// queued its command after that takes it back and returns stopped.
	queueMu sync.Mutex
	stopped error

	// Owned by Run.
	pending *pendingRequest

	state   atomic.Int32
	running atomic.Bool

	// Fatal error handling - stores error and broadcasts via done channel
	errMu    sync.RWMutex
	fatalErr error

	closeOnce sync.Once
	done      chan struct{}
}

// NewSession creates a Session in the Idle state.
//
// The logger will receive debug, info, warn, and error messages during
// session operations. Nothing is read or written until Run is called.
func NewSession(log *slog.Logger, transport Transport, cfg SessionConfig) *Session {
	return &Session{
		log:        log.With("component", "session"),
		transport:  transport,
		cfg:        cfg,
		splitter:   wire.NewSplitter(cfg.LineEnding),
		normalizer: wire.NewNormalizer(cfg.Target),
		echo:       wire.NewEchoFilter(cfg.Echo),
		commands:   make(chan message.Command, 1),
		events:     make(chan message.Event, 1),
		inputDone:  make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run processes commands and console output until the transport ends, the
// command input is closed and drained, or ctx is cancelled.
//
// On return the session is Closed: any outstanding request has been
// discarded, a ClosedEvent has been delivered if the caller was still
// receiving, and the event channel is closed.
//
// Returns nil on end-of-stream or closed input, a *errors.TransportError on
// I/O failure, and ctx.Err() on cancellation. Run may only be called once.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}

	s.log.Info("Session started",
		"echo", s.cfg.Echo.String(),
		"line_ending", s.cfg.LineEnding.String(),
		"target", s.cfg.Target.String(),
	)

	chunks, errs := s.transport.ReadChunks(ctx)

	err := s.loop(ctx, chunks, errs)
	s.shutdown(ctx, err)

	return err
}

// loop is the single processing loop. It waits for the next of: a command
// (only while Idle), bytes from the transport, transport failure or closure,
// input closure, and cancellation.
func (s *Session) loop(ctx context.Context, chunks <-chan []byte, errs <-chan error) error {
	inputDone := s.inputDone
	inputClosed := false

	for {
		if inputClosed && s.pending == nil {
			cmd := s.nextQueued()
			if cmd == nil {
				s.log.Debug("Command input closed and drained")

				return nil
			}

			if err := s.dispatch(ctx, cmd); err != nil {
				return err
			}

			continue
		}

		var commands <-chan message.Command
		if s.pending == nil {
			commands = s.commands
		}

		select {
		case cmd := <-commands:
			if err := s.dispatch(ctx, cmd); err != nil {
				return err
			}

		case chunk, ok := <-chunks:
			if !ok {
				s.log.Debug("Transport chunk channel closed")

				chunks = nil
				if errs == nil {
					return nil
				}

				continue
			}

			if err := s.handleChunk(ctx, chunk); err != nil {
				return err
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				if chunks == nil {
					return nil
				}

				continue
			}

			if err != nil {
				s.log.Error("Transport read failed", "error", err)

				return &errors.TransportError{Op: "read", Err: err}
			}

		case <-inputDone:
			s.log.Debug("Command input closed")

			inputDone = nil
			inputClosed = true

		case <-ctx.Done():
			s.log.Debug("Context cancelled in session loop")

			return ctx.Err()
		}
	}
}

// nextQueued takes the queued command, if any. When the queue is empty it
// stops the queue so that later arrivals are rejected by Send.
func (s *Session) nextQueued() message.Command {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	select {
	case cmd := <-s.commands:
		return cmd
	default:
		s.stopped = errors.ErrInputClosed

		return nil
	}
}

// stopQueue marks the command queue as no longer read.
func (s *Session) stopQueue(err error) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if s.stopped == nil {
		s.stopped = err
	}
}

// confirmQueued checks a command Send has just queued. If the loop already
// stopped reading, the command is taken back out of the queue.
func (s *Session) confirmQueued() error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if s.stopped == nil {
		return nil
	}

	select {
	case <-s.commands:
	default:
	}

	return s.stopped
}

// dispatch writes cmd and records it as the pending request.
func (s *Session) dispatch(ctx context.Context, cmd message.Command) error {
	line, err := message.Encode(cmd)
	if err != nil {
		s.log.Warn("Rejecting command", "error", err)

		return s.emit(ctx, &message.ErrorEvent{Message: err.Error()})
	}

	req := newPendingRequest(cmd, line)
	s.pending = req
	s.setState(StateAwaiting)

	s.log.Debug("Sending command", "request_id", req.id, "command", line)

	if err := s.transport.Write(ctx, s.cfg.LineEnding.Encode(line)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.log.Error("Failed to write command", "request_id", req.id, "error", err)

		return &errors.TransportError{Op: "write", Err: err}
	}

	s.echo.Expect(line)

	return nil
}

// handleChunk feeds bytes to the splitter and processes each complete line.
func (s *Session) handleChunk(ctx context.Context, chunk []byte) error {
	_, _ = s.splitter.Write(chunk)

	for raw := range s.splitter.Lines() {
		if err := s.handleLine(ctx, raw); err != nil {
			return err
		}
	}

	return nil
}

// handleLine runs one line through the echo filter, the parser and
// correlation against the pending request.
func (s *Session) handleLine(ctx context.Context, raw string) error {
	line := s.normalizer.Normalize(raw)

	req := s.pending
	if req == nil {
		if ev, err := message.Parse(line); err == nil {
			s.log.Debug("Dropping unsolicited monitor output", "event", ev.EventType(), "line", line)
		}

		return nil
	}

	if s.echo.Suppress(line) {
		s.log.Debug("Suppressed command echo", "request_id", req.id)

		return nil
	}

	ev, err := message.Parse(line)
	if err != nil {
		if perr, ok := stderrors.AsType[*errors.ParseError](err); ok && perr.Kind != errors.ParseErrorEmpty {
			s.log.Debug("Ignoring console chatter", "request_id", req.id, "line", line)
		}

		return nil
	}

	if !message.Matches(req.cmd, ev) {
		mismatch := &errors.ParseError{Kind: errors.ParseErrorMismatch, Line: line}
		s.log.Debug("Ignoring response for another request", "request_id", req.id, "error", mismatch)

		return nil
	}

	s.pending = nil
	s.echo.Reset()
	s.setState(StateIdle)

	s.log.Debug("Request resolved",
		"request_id", req.id,
		"event", ev.EventType(),
		"elapsed", time.Since(req.sentAt),
	)

	return s.emit(ctx, ev)
}

// emit delivers ev, waiting for the caller to drain the event queue.
func (s *Session) emit(ctx context.Context, ev message.Event) error {
	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shutdown moves the session to Closed and publishes the final event.
func (s *Session) shutdown(ctx context.Context, cause error) {
	if req := s.pending; req != nil {
		s.log.Warn("Discarding pending request",
			"request_id", req.id,
			"command", req.line,
			"elapsed", time.Since(req.sentAt),
		)

		s.pending = nil
	}

	s.stopQueue(errors.ErrSessionClosed)
	s.setState(StateClosed)

	if _, ok := stderrors.AsType[*errors.TransportError](cause); ok {
		s.setFatalError(cause)
	}

	s.closeDone()

	closed := &message.ClosedEvent{}

	if ctx.Err() == nil {
		select {
		case s.events <- closed:
		case <-ctx.Done():
		}
	} else {
		select {
		case s.events <- closed:
		default:
		}
	}

	close(s.events)

	s.log.Info("Session closed", "error", cause)
}

// Send queues cmd for transmission. It blocks while the command queue is
// full, which is the case whenever a request is outstanding and another
// command is already waiting.
//
// Returns a *errors.CommandError for commands that cannot be encoded,
// errors.ErrSessionClosed after the session ended, errors.ErrInputClosed
// after CloseInput, or ctx.Err().
func (s *Session) Send(ctx context.Context, cmd message.Command) error {
	if _, err := message.Encode(cmd); err != nil {
		return err
	}

	select {
	case <-s.done:
		return errors.ErrSessionClosed
	case <-s.inputDone:
		return errors.ErrInputClosed
	default:
	}

	select {
	case s.commands <- cmd:
		return s.confirmQueued()
	case <-s.done:
		return errors.ErrSessionClosed
	case <-s.inputDone:
		return errors.ErrInputClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the event queue. It is closed after the final ClosedEvent.
func (s *Session) Events() <-chan message.Event {
	return s.events
}

// CloseInput closes the command queue. The session finishes commands it has
// already accepted, then closes. It's safe to call CloseInput multiple times.
func (s *Session) CloseInput() {
	s.inputOnce.Do(func() {
		close(s.inputDone)
	})
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		s.log.Debug("Session state changed", "from", prev.String(), "to", st.String())
	}
}

// Done returns a channel that is closed when the session reaches Closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the transport error that closed the session, if any.
func (s *Session) Err() error {
	s.errMu.RLock()
	defer s.errMu.RUnlock()

	return s.fatalErr
}

func (s *Session) setFatalError(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()

	if s.fatalErr == nil {
		s.fatalErr = err
	}
}

// closeDone safely closes the done channel exactly once.
func (s *Session) closeDone() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
