package uartdap_test

import (
	"math/rand/v2"
	"net"
	"testing"

	uartdap "github.com/wagiedev/uartdap-go"
)

// monitorTransport serves a model VxWorks monitor with echo on one end of a
// pipe and returns the matching options for the other end.
func monitorTransport(t *testing.T) ([]uartdap.Option, *uartdap.Monitor) {
	t.Helper()

	local, remote := net.Pipe()

	m := uartdap.NewMonitor(&uartdap.MonitorConfig{
		Target: uartdap.TargetVxWorks,
		Echo:   true,
		Rand:   rand.New(rand.NewPCG(7, 7)),
	})

	go func() {
		_ = m.Serve(t.Context(), remote)
		_ = remote.Close()
	}()

	t.Cleanup(func() { _ = remote.Close() })

	return []uartdap.Option{
		uartdap.WithTransport(uartdap.NewStreamTransport(nil, "pipe", local)),
		uartdap.WithTarget(uartdap.TargetVxWorks),
		uartdap.WithEcho(uartdap.EchoRemote),
		uartdap.WithLineEnding(uartdap.LineEndingCRLF),
	}, m
}
