package uartdap

import (
	"log/slog"
	"time"

	"github.com/wagiedev/uartdap-go/internal/config"
)

// Options holds the session configuration assembled from Option values.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithDevice selects the console: a serial port such as /dev/ttyUSB0 or
// COM3, or tcp://host:port for a network serial bridge.
// If not set, UARTDAP_DEVICE is used, then the first serial port found.
func WithDevice(device string) Option {
	return func(o *Options) {
		o.Device = device
	}
}

// WithBaudRate sets the serial line speed.
// If not set, UARTDAP_BAUD is used, then 115200.
func WithBaudRate(baud int) Option {
	return func(o *Options) {
		o.BaudRate = baud
	}
}

// WithSerialFraming sets data bits (5-8), parity ("none", "odd", "even",
// "mark", "space") and stop bits ("1", "1.5", "2"). The default is 8N1.
func WithSerialFraming(dataBits int, parity, stopBits string) Option {
	return func(o *Options) {
		o.DataBits = dataBits
		o.Parity = parity
		o.StopBits = stopBits
	}
}

// WithDialTimeout bounds connecting to a tcp:// device.
func WithDialTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.DialTimeout = timeout
	}
}

// ===== Console Behaviour =====

// WithEcho selects echo handling. Use EchoRemote when the monitor repeats
// each command back before answering.
func WithEcho(echo Echo) Option {
	return func(o *Options) {
		o.Echo = echo
	}
}

// WithLineEnding sets the line terminator for both directions.
func WithLineEnding(ending LineEnding) Option {
	return func(o *Options) {
		o.LineEnding = ending
	}
}

// WithTarget selects the monitor prompt stripped from console lines.
func WithTarget(target Target) Option {
	return func(o *Options) {
		o.Target = target
	}
}

// ===== Advanced =====

// WithTransport injects a custom transport, bypassing device selection.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}
