package transport

import (
	"log/slog"
	"strings"

	"github.com/wagiedev/uartdap-go/internal/config"
)

// New creates the transport named by options.Device.
//
// A tcp://host:port device dials a network serial bridge; anything else is
// opened as a local serial port. options must already have defaults applied.
func New(log *slog.Logger, options *config.Options) config.Transport {
	if options.IsTCP() {
		addr := strings.TrimPrefix(options.Device, config.TCPScheme)

		return NewTCPTransport(log, addr, options.DialTimeout)
	}

	return NewSerialTransport(log, options)
}
