package commands

import (
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uartdap "github.com/wagiedev/uartdap-go"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, err := newLogger(io.Discard, tt.level)
			require.NoError(t, err)

			assert.True(t, log.Enabled(t.Context(), tt.want))
			assert.False(t, log.Enabled(t.Context(), tt.want-1))
		})
	}

	_, err := newLogger(io.Discard, "loud")
	require.ErrorContains(t, err, "--log-level")
}

func TestSessionOptions_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		flags globalFlags
		field string
	}{
		{"echo", globalFlags{echo: "both", lineEnding: "lf", target: "none"}, "echo"},
		{"line ending", globalFlags{echo: "none", lineEnding: "cr", target: "none"}, "line_ending"},
		{"target", globalFlags{echo: "none", lineEnding: "lf", target: "linux"}, "target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.sessionOptions()

			configErr, ok := stderrors.AsType[*uartdap.ConfigError](err)
			require.True(t, ok, "expected ConfigError, got %v", err)
			assert.Equal(t, tt.field, configErr.Field)
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}

	assert.Subset(t, names, []string{"console", "exec", "mcp", "monitor", "ports"})
}

func TestRootCommand_Version(t *testing.T) {
	stdout, _, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, uartdap.Version)
}

func TestRootCommand_InvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "", "--log-level", "chatty", "ports")
	require.ErrorContains(t, err, "chatty")
}
