package main

import (
	"github.com/spf13/cobra"

	"github.com/tracewell/remotedbg/pkg/cli"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the device registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator()
			if err != nil {
				return err
			}
			cli.RenderDevices(o.Devices())
			return nil
		},
	}
}
