package monitor

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/wagiedev/uartdap-go/internal/message"
	"github.com/wagiedev/uartdap-go/internal/wire"
)

// DefaultReadBytes is the number of bytes dumped by mr without a count.
const DefaultReadBytes = 16

// MaxReadBytes bounds a single mr dump.
const MaxReadBytes = 1024

const readBufferSize = 1024

const helpText = "Available Commands\r\n" +
	"\r\n" +
	"    exit\r\n" +
	"\r\n" +
	"        Gracefully terminate the model.\r\n" +
	"\r\n" +
	"    mw kernel <addr> <data>\r\n" +
	"\r\n" +
	"        Write data to an address.\r\n" +
	"\r\n" +
	"    mr kernel <addr> [nbytes]\r\n" +
	"\r\n" +
	"        Read data from an address.\r\n" +
	"\r\n" +
	"    help\r\n" +
	"\r\n" +
	"        Displays available commands.\r\n"

// Config configures a Monitor.
type Config struct {
	// Target selects the banner and prompt.
	Target wire.Target

	// Echo repeats every received line before answering it.
	Echo bool

	// Rand fills unwritten addresses. If nil, a randomly seeded PCG is used.
	Rand *rand.Rand

	// Logger is an optional logger. If nil, the monitor is silent.
	Logger *slog.Logger
}

// Monitor is an in-memory model of a target's debug monitor.
// Memory persists across Serve calls and is safe for concurrent use.
type Monitor struct {
	log    *slog.Logger
	target wire.Target
	echo   bool

	mu  sync.Mutex
	rng *rand.Rand
	mem map[uint32]uint32
}

// action is the outcome of one request line.
type action struct {
	reply string
	err   string
	exit  bool
}

// New creates a Monitor.
func New(cfg *Config) *Monitor {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Monitor{
		log:    log.With("component", "monitor", "target", cfg.Target.String()),
		target: cfg.Target,
		echo:   cfg.Echo,
		rng:    rng,
		mem:    make(map[uint32]uint32),
	}
}

// Poke stores a word without going through the console.
func (m *Monitor) Poke(addr, data uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mem[addr] = data
}

// Peek returns a stored word and whether it was ever written.
func (m *Monitor) Peek(addr uint32) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.mem[addr]

	return data, ok
}

// Serve runs the console on conn until the peer sends exit, the stream ends,
// or ctx is cancelled. If conn is an io.Closer it is closed on cancellation
// to unblock the pending read.
//
// Returns nil on exit or end of stream and ctx.Err() on cancellation.
func (m *Monitor) Serve(ctx context.Context, conn io.ReadWriter) error {
	if closer, ok := conn.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = closer.Close() })
		defer stop()
	}

	m.log.Info("Monitor started", "echo", m.echo)

	if err := m.write(conn, "Modeling "+m.target.DisplayName()+"\r\n"+m.target.Prompt()); err != nil {
		return m.ioErr(ctx, err)
	}

	splitter := wire.NewSplitter(wire.LineEndingLF)
	buf := make([]byte, readBufferSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			_, _ = splitter.Write(buf[:n])

			for line := range splitter.Lines() {
				exit, werr := m.serveLine(conn, strings.TrimRight(line, "\r"))
				if werr != nil {
					return m.ioErr(ctx, werr)
				}

				if exit {
					m.log.Info("Monitor exiting on request")

					return nil
				}
			}
		}

		if err == nil {
			continue
		}

		if stderrors.Is(err, io.EOF) {
			m.log.Info("Console closed")

			return nil
		}

		return m.ioErr(ctx, err)
	}
}

func (m *Monitor) ioErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	m.log.Error("Console I/O failed", "error", err)

	return fmt.Errorf("monitor console: %w", err)
}

// serveLine answers one request and writes the trailing prompt.
func (m *Monitor) serveLine(w io.Writer, req string) (bool, error) {
	m.log.Debug("Received request", "request", req)

	var out strings.Builder

	if m.echo {
		out.WriteString(req + "\r\n")
	}

	act := m.process(req)

	switch {
	case act.exit:
		if out.Len() > 0 {
			return true, m.write(w, out.String())
		}

		return true, nil
	case act.err != "":
		out.WriteString("Error: " + act.err + "\r\n")
	default:
		out.WriteString(act.reply + "\r\n")
	}

	out.WriteString(m.target.Prompt())

	return false, m.write(w, out.String())
}

func (m *Monitor) write(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)

	return err
}

// process evaluates one request line against the model's memory.
// Unknown requests produce an empty reply.
func (m *Monitor) process(req string) action {
	tokens := strings.Fields(req)

	switch {
	case len(tokens) == 1 && tokens[0] == "exit":
		return action{exit: true}

	case len(tokens) == 1 && (tokens[0] == "?" || tokens[0] == "h" || tokens[0] == "help"):
		return action{reply: helpText}

	case len(tokens) == 4 && tokens[0] == "mw" && tokens[1] == "kernel":
		addr, err := message.ParseBasedInt(tokens[2], 32)
		if err != nil {
			return action{err: "unable to parse addr: " + tokens[2]}
		}

		data, err := message.ParseBasedInt(tokens[3], 32)
		if err != nil {
			return action{err: "unable to parse data: " + tokens[3]}
		}

		m.Poke(uint32(addr), uint32(data))
		m.log.Debug("Stored word", "addr", fmt.Sprintf("0x%08x", addr), "data", fmt.Sprintf("0x%08x", data))

		return action{reply: fmt.Sprintf("0x%08x: OK", addr)}

	case (len(tokens) == 3 || len(tokens) == 4) && tokens[0] == "mr" && tokens[1] == "kernel":
		addr, err := message.ParseBasedInt(tokens[2], 32)
		if err != nil {
			return action{err: "unable to parse addr: " + tokens[2]}
		}

		nbytes := uint64(DefaultReadBytes)

		if len(tokens) == 4 {
			nbytes, err = message.ParseBasedInt(tokens[3], 32)
			if err != nil {
				return action{err: "unable to parse nbytes: " + tokens[3]}
			}

			if nbytes > MaxReadBytes {
				return action{err: fmt.Sprintf("nbytes exceeds %d: %s", MaxReadBytes, tokens[3])}
			}
		}

		return action{reply: m.dump(uint32(addr), nbytes)}

	default:
		return action{}
	}
}

// dump renders nbytes from addr, rounded up to whole words, as a hexdump
// line: big-endian bytes in unpadded hex followed by an ASCII column.
func (m *Monitor) dump(addr uint32, nbytes uint64) string {
	words := (nbytes + 3) / 4
	if words == 0 {
		words = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fields := make([]string, 0, words*4)

	var word [4]byte

	for i := range uint32(words) {
		wordAddr := addr + 4*i

		data, ok := m.mem[wordAddr]
		if !ok {
			data = m.rng.Uint32()
		}

		binary.BigEndian.PutUint32(word[:], data)

		for _, b := range word {
			fields = append(fields, fmt.Sprintf("%x", b))
		}
	}

	return fmt.Sprintf("%x: %s |--------|", addr, strings.Join(fields, " "))
}
