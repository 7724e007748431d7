package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gxcommon "github.com/Gurux/gxcommon-go"
	gxserial "github.com/Gurux/gxserial-go"

	"github.com/wagiedev/uartdap-go/internal/config"
	"github.com/wagiedev/uartdap-go/internal/errors"
)

// serialQueueSize bounds received fragments waiting for ReadChunks.
const serialQueueSize = 64

// SerialTransport implements Transport over a local serial port using the
// Gurux serial media. Received bytes arrive on the media's reader goroutine
// and are handed to ReadChunks through an internal queue.
type SerialTransport struct {
	log     *slog.Logger
	options *config.Options
	device  string

	writeMu sync.Mutex // Serializes writes
	mu      sync.Mutex // Protects media and closing
	media   *gxserial.GXSerial
	closing bool

	incoming chan []byte
	failures chan error

	closeOnce sync.Once
	done      chan struct{}
}

// Compile-time verification that SerialTransport implements the Transport interface.
var _ config.Transport = (*SerialTransport)(nil)

// NewSerialTransport creates a serial transport.
//
// Port discovery is deferred to Start(): if options.Device is empty, the
// first port reported by the OS is opened.
func NewSerialTransport(log *slog.Logger, options *config.Options) *SerialTransport {
	return &SerialTransport{
		log:      log.With("component", "serial_transport"),
		options:  options,
		incoming: make(chan []byte, serialQueueSize),
		failures: make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Start discovers and opens the serial port with the configured framing.
func (t *SerialTransport) Start(ctx context.Context) error {
	device, err := NewDiscoverer(&Config{
		Device: t.options.Device,
		Logger: t.log,
	}).Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover serial port: %w", err)
	}

	parity, err := parseParity(t.options.Parity)
	if err != nil {
		return err
	}

	stopBits, err := parseStopBits(t.options.StopBits)
	if err != nil {
		return err
	}

	t.log.Info("Opening serial port",
		"device", device,
		"baud_rate", t.options.BaudRate,
		"data_bits", t.options.DataBits,
		"parity", t.options.Parity,
		"stop_bits", t.options.StopBits,
	)

	media := gxserial.NewGXSerial(device,
		gxcommon.BaudRate(t.options.BaudRate),
		t.options.DataBits,
		parity,
		stopBits,
	)

	media.SetOnReceived(t.onReceived)
	media.SetOnError(t.onError)
	media.SetOnMediaStateChange(t.onMediaStateChange)

	if err := media.Validate(); err != nil {
		return &errors.ConfigError{Field: "device", Reason: err.Error()}
	}

	if err := media.Open(); err != nil {
		t.log.Error("Failed to open serial port", "device", device, "error", err)

		return &errors.TransportError{Op: "open", Err: fmt.Errorf("%s: %w", device, err)}
	}

	t.mu.Lock()
	t.media = media
	t.device = device
	t.mu.Unlock()

	t.log.Info("Serial port opened", "device", device)

	return nil
}

// onReceived runs on the media reader goroutine.
func (t *SerialTransport) onReceived(_ gxcommon.IGXMedia, e gxcommon.ReceiveEventArgs) {
	data := receivedBytes(e.Data())
	if len(data) == 0 {
		return
	}

	select {
	case t.incoming <- data:
	case <-t.done:
	}
}

func (t *SerialTransport) onError(_ gxcommon.IGXMedia, err error) {
	if t.isClosing() {
		return
	}

	t.log.Error("Serial port error", "device", t.device, "error", err)

	select {
	case t.failures <- err:
	default:
	}
}

func (t *SerialTransport) onMediaStateChange(_ gxcommon.IGXMedia, e gxcommon.MediaStateEventArgs) {
	t.log.Debug("Serial port state changed", "state", e.State().String())

	if e.State() == gxcommon.MediaStateClosed {
		t.closeDone()
	}
}

// ReadChunks forwards bytes received from the serial port.
//
// The returned channels are closed when the port closes, a port error is
// reported, or the context is cancelled. A port error that is not caused by
// Close is sent on the error channel first.
func (t *SerialTransport) ReadChunks(ctx context.Context) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)
		defer t.log.Debug("ReadChunks goroutine stopped")

		for {
			select {
			case data := <-t.incoming:
				select {
				case chunks <- data:
				case <-ctx.Done():
					return
				}

			case err := <-t.failures:
				errs <- err

				return

			case <-t.done:
				t.drain(ctx, chunks)
				t.log.Info("Serial port closed")

				return

			case <-ctx.Done():
				t.log.Debug("Context cancelled in serial read loop", "error", ctx.Err())

				return
			}
		}
	}()

	return chunks, errs
}

// drain delivers fragments received before the port closed.
func (t *SerialTransport) drain(ctx context.Context, chunks chan<- []byte) {
	for {
		select {
		case data := <-t.incoming:
			select {
			case chunks <- data:
			case <-ctx.Done():
				return
			}
		default:
			return
		}
	}
}

// Write sends data to the serial port.
//
// This method is safe for concurrent use and respects context cancellation
// even during blocking writes. If the context is cancelled during a blocked
// write, the port is closed to unblock it.
func (t *SerialTransport) Write(ctx context.Context, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	media, closing := t.media, t.closing
	t.mu.Unlock()

	if media == nil || closing {
		return errors.ErrTransportNotConnected
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.log.Debug("Writing to serial port", "data_len", len(data))

	done := make(chan error, 1)

	go func() {
		done <- media.Send(data, "")
	}()

	select {
	case err := <-done:
		if err != nil {
			t.log.Error("Failed to write to serial port", "error", err)

			return fmt.Errorf("write %s: %w", t.device, err)
		}

		return nil

	case <-ctx.Done():
		t.log.Debug("Context cancelled during write, closing serial port")

		_ = t.Close()

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			t.log.Warn("Write goroutine did not exit after port close, potential leak")
		}

		return ctx.Err()
	}
}

// IsReady returns true if the port is open.
func (t *SerialTransport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.media != nil && !t.closing && t.media.IsOpen()
}

// Close closes the serial port. It's safe to call Close multiple times.
func (t *SerialTransport) Close() error {
	t.mu.Lock()

	if t.closing {
		t.mu.Unlock()

		return nil
	}

	t.closing = true
	media := t.media
	t.mu.Unlock()

	defer t.closeDone()

	if media == nil {
		return nil
	}

	t.log.Debug("Closing serial port", "device", t.device)

	if err := media.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.device, err)
	}

	return nil
}

func (t *SerialTransport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closing
}

// closeDone safely closes the done channel exactly once.
func (t *SerialTransport) closeDone() {
	t.closeOnce.Do(func() {
		close(t.done)
	})
}

// receivedBytes copies the payload of a receive event.
func receivedBytes(data any) []byte {
	switch v := data.(type) {
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)

		return out
	case string:
		return []byte(v)
	default:
		return nil
	}
}

func parseParity(s string) (gxcommon.Parity, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return gxcommon.ParityNone, nil
	case "odd":
		return gxcommon.ParityOdd, nil
	case "even":
		return gxcommon.ParityEven, nil
	case "mark":
		return gxcommon.ParityMark, nil
	case "space":
		return gxcommon.ParitySpace, nil
	default:
		return gxcommon.ParityNone, &errors.ConfigError{Field: "parity", Reason: fmt.Sprintf("unknown parity %q", s)}
	}
}

func parseStopBits(s string) (gxcommon.StopBits, error) {
	switch s {
	case "", "1":
		return gxcommon.StopBitsOne, nil
	case "2":
		return gxcommon.StopBitsTwo, nil
	case "1.5":
		bits, err := gxcommon.StopBitsParse("OnePointFive")
		if err != nil {
			return gxcommon.StopBitsOne, &errors.ConfigError{Field: "stop_bits", Reason: err.Error()}
		}

		return bits, nil
	default:
		return gxcommon.StopBitsOne, &errors.ConfigError{Field: "stop_bits", Reason: fmt.Sprintf("unknown stop bits %q", s)}
	}
}
