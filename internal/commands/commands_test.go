package commands

import (
	"bytes"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/uartdap-go/internal/monitor"
	"github.com/wagiedev/uartdap-go/internal/wire"
)

// startModel serves a model monitor on a loopback listener and returns the
// device flag value that reaches it.
func startModel(t *testing.T, target wire.Target, echo bool) (string, *monitor.Monitor) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	m := monitor.New(&monitor.Config{Target: target, Echo: echo})

	done := make(chan error, 1)

	go func() {
		done <- serveListener(t.Context(), slog.New(slog.DiscardHandler), m, ln)
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		<-done
	})

	return "tcp://" + ln.Addr().String(), m
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(t.Context())

	return stdout.String(), stderr.String(), err
}
