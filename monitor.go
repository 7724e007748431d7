package uartdap

import "github.com/wagiedev/uartdap-go/internal/monitor"

// Monitor is an in-memory model of a kernel monitor console, useful for
// exercising a session without hardware.
type Monitor = monitor.Monitor

// MonitorConfig configures a Monitor.
type MonitorConfig = monitor.Config

// NewMonitor creates a model monitor. Serve it on one end of a stream and
// point a client at the other.
func NewMonitor(cfg *MonitorConfig) *Monitor {
	return monitor.New(cfg)
}
