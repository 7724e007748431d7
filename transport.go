package uartdap

import (
	"io"
	"log/slog"

	"github.com/wagiedev/uartdap-go/internal/config"
	"github.com/wagiedev/uartdap-go/internal/transport"
)

// Transport defines the byte stream to the monitor console.
// Implement this to provide custom transports for testing, mocking,
// or alternative links (e.g., a pseudo terminal or a debug adapter).
//
// The default implementations open a serial port, or dial a network serial
// bridge for tcp://host:port devices. Custom transports can be injected via
// WithTransport.
type Transport = config.Transport

// NewStreamTransport wraps an open stream, such as a pseudo terminal or one
// end of a net.Pipe, as a Transport. The transport closes conn on Close.
// A nil logger disables logging.
func NewStreamTransport(log *slog.Logger, name string, conn io.ReadWriteCloser) Transport {
	if log == nil {
		log = NopLogger()
	}

	return transport.NewStreamTransport(log, name, conn)
}

// ListSerialPorts returns the serial ports reported by the OS.
func ListSerialPorts() ([]string, error) {
	return transport.ListPorts()
}
