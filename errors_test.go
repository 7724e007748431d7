package uartdap

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransportError(t *testing.T) {
	err := &TransportError{Op: "read", Err: io.ErrUnexpectedEOF}

	require.Contains(t, err.Error(), "read")
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.True(t, err.IsDAPError())

	wrapped := fmt.Errorf("session: %w", err)

	got, ok := errors.AsType[*TransportError](wrapped)
	require.True(t, ok)
	require.Same(t, err, got)
}

func TestProtocolError(t *testing.T) {
	err := &ProtocolError{Message: "unable to parse addr: zz"}

	require.Equal(t, "monitor error: unable to parse addr: zz", err.Error())

	var dapErr DAPError
	require.ErrorAs(t, err, &dapErr)
}

func TestCommandAndConfigErrors(t *testing.T) {
	_, err := NewReadCommand(1 << 32)

	cmdErr, ok := errors.AsType[*CommandError](err)
	require.True(t, ok)
	require.Equal(t, "addr", cmdErr.Field)

	_, err = ParseCommandLine("mr kernel 0x10 4")
	_, ok = errors.AsType[*CommandError](err)
	require.True(t, ok)

	cfgErr := &ConfigError{Field: "baud_rate", Reason: "must be positive"}
	require.Equal(t, "invalid configuration baud_rate: must be positive", cfgErr.Error())
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrClientNotConnected,
		ErrClientAlreadyConnected,
		ErrClientClosed,
		ErrTransportNotConnected,
		ErrSessionClosed,
		ErrInputClosed,
		ErrNoSerialPorts,
	}

	for i, a := range sentinels {
		require.NotEmpty(t, a.Error())

		for j, b := range sentinels {
			if i != j {
				require.NotErrorIs(t, a, b)
			}
		}
	}
}
