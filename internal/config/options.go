package config

import (
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/wagiedev/uartdap-go/internal/errors"
	"github.com/wagiedev/uartdap-go/internal/wire"
)

// Environment variables consulted for unset options.
const (
	EnvDevice   = "UARTDAP_DEVICE"
	EnvBaudRate = "UARTDAP_BAUD"
)

// Serial framing defaults.
const (
	DefaultBaudRate    = 115200
	DefaultDataBits    = 8
	DefaultParity      = "none"
	DefaultStopBits    = "1"
	DefaultDialTimeout = 5 * time.Second
)

// TCPScheme prefixes device identifiers that name a network serial bridge.
const TCPScheme = "tcp://"

var (
	validParities = []string{"none", "odd", "even", "mark", "space"}
	validStopBits = []string{"1", "1.5", "2"}
)

// Options configures a DAP session and the transport beneath it.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Device identifies the target console: a serial port path such as
	// /dev/ttyUSB0 or COM3, or tcp://host:port for a network serial bridge.
	// If empty and no Transport is set, the first serial port reported by
	// the OS is used.
	Device string

	// BaudRate is the serial line speed. Must be positive.
	BaudRate int

	// DataBits is the serial character size (5-8).
	DataBits int

	// Parity is one of "none", "odd", "even", "mark", "space".
	Parity string

	// StopBits is one of "1", "1.5", "2".
	StopBits string

	// Echo selects echo handling for transmitted commands.
	Echo wire.Echo

	// LineEnding selects the terminator for both directions.
	LineEnding wire.LineEnding

	// Target selects the monitor prompt to strip from incoming lines.
	Target wire.Target

	// DialTimeout bounds connecting to a tcp:// device.
	DialTimeout time.Duration

	// Transport allows injecting a custom transport implementation.
	// If nil, a transport is created from Device.
	Transport Transport `json:"-"`
}

// ApplyDefaults fills unset fields from the environment and built-in
// defaults. Explicitly set fields are left alone.
func (o *Options) ApplyDefaults() {
	if o.Device == "" {
		o.Device = os.Getenv(EnvDevice)
	}

	if o.BaudRate == 0 {
		o.BaudRate = DefaultBaudRate

		if v := os.Getenv(EnvBaudRate); v != "" {
			if baud, err := strconv.Atoi(v); err == nil {
				o.BaudRate = baud
			}
		}
	}

	if o.DataBits == 0 {
		o.DataBits = DefaultDataBits
	}

	if o.Parity == "" {
		o.Parity = DefaultParity
	}

	if o.StopBits == "" {
		o.StopBits = DefaultStopBits
	}

	if o.DialTimeout == 0 {
		o.DialTimeout = DefaultDialTimeout
	}
}

// Validate checks the options once at construction time.
func (o *Options) Validate() error {
	if o.BaudRate <= 0 {
		return &errors.ConfigError{Field: "baud_rate", Reason: "must be positive"}
	}

	if o.DataBits < 5 || o.DataBits > 8 {
		return &errors.ConfigError{Field: "data_bits", Reason: "must be between 5 and 8"}
	}

	if !slices.Contains(validParities, strings.ToLower(o.Parity)) {
		return &errors.ConfigError{
			Field:  "parity",
			Reason: "must be one of " + strings.Join(validParities, ", "),
		}
	}

	if !slices.Contains(validStopBits, o.StopBits) {
		return &errors.ConfigError{
			Field:  "stop_bits",
			Reason: "must be one of " + strings.Join(validStopBits, ", "),
		}
	}

	if !o.Echo.Valid() {
		return &errors.ConfigError{Field: "echo", Reason: "unknown echo mode " + o.Echo.String()}
	}

	if !o.LineEnding.Valid() {
		return &errors.ConfigError{Field: "line_ending", Reason: "unknown line ending " + o.LineEnding.String()}
	}

	if !o.Target.Valid() {
		return &errors.ConfigError{Field: "target", Reason: "unknown target " + o.Target.String()}
	}

	if o.DialTimeout < 0 {
		return &errors.ConfigError{Field: "dial_timeout", Reason: "must not be negative"}
	}

	if addr, ok := strings.CutPrefix(o.Device, TCPScheme); ok && addr == "" {
		return &errors.ConfigError{Field: "device", Reason: "tcp device needs host:port"}
	}

	return nil
}

// IsTCP reports whether Device names a network serial bridge.
func (o *Options) IsTCP() bool {
	return strings.HasPrefix(o.Device, TCPScheme)
}
