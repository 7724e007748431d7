package transport

import (
	"context"
	"log/slog"
	"slices"

	gxserial "github.com/Gurux/gxserial-go"

	"github.com/wagiedev/uartdap-go/internal/errors"
)

// PortLister returns the serial ports known to the OS.
type PortLister func() ([]string, error)

// Config holds configuration for serial device discovery.
type Config struct {
	// Device is an explicit device that skips discovery.
	Device string

	// ListPorts enumerates candidate ports.
	// If nil, the OS port list from gxserial is used.
	ListPorts PortLister

	// Logger is an optional logger for discovery operations.
	// If nil, discovery is silent.
	Logger *slog.Logger
}

// Discoverer locates the serial port to open.
type Discoverer interface {
	// Discover returns the device to open or errors.ErrNoSerialPorts.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg  *Config
	list PortLister
	log  *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new serial port discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	list := cfg.ListPorts
	if list == nil {
		list = ListPorts
	}

	return &discoverer{
		cfg:  cfg,
		list: list,
		log:  log,
	}
}

// Discover returns the explicit device if set, otherwise the first port the
// OS reports in sorted order.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	if d.cfg.Device != "" {
		d.log.Debug("Using explicit serial device", "device", d.cfg.Device)

		return d.cfg.Device, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.log.Debug("Discovering serial ports")

	ports, err := d.list()
	if err != nil {
		d.log.Error("Failed to list serial ports", "error", err)

		return "", err
	}

	if len(ports) == 0 {
		d.log.Warn("No serial ports found")

		return "", errors.ErrNoSerialPorts
	}

	ports = slices.Sorted(slices.Values(ports))

	d.log.Info("Selected serial port", "device", ports[0], "candidates", ports)

	return ports[0], nil
}

// ListPorts returns the serial ports reported by the OS.
func ListPorts() ([]string, error) {
	return gxserial.GetPortNames()
}
