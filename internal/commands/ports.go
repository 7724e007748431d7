package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	uartdap "github.com/wagiedev/uartdap-go"
)

// listSerialPorts is replaced in tests.
var listSerialPorts = uartdap.ListSerialPorts

// NewPortsCommand creates the serial port listing command.
func NewPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := listSerialPorts()
			if err != nil {
				return fmt.Errorf("list serial ports: %w", err)
			}

			if len(ports) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No serial ports found")

				return nil
			}

			for _, port := range slices.Sorted(slices.Values(ports)) {
				fmt.Fprintln(cmd.OutOrStdout(), port)
			}

			return nil
		},
	}
}
