package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tracewell/remotedbg/pkg/config"
	"github.com/tracewell/remotedbg/pkg/sshexec"
)

var tunnelRemoteAddr string

func newTunnelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tunnel <device-id>",
		Short: "Open a local port-forward to a device for manual incident response",
		Long: `tunnel dials the named device over SSH and forwards a local TCP port to
a fixed remote address (default: the device's own SSH port) — useful for
reaching a debug-server log directory or a stray process by hand. It is
never used on the session start path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID := args[0]

			reg, err := config.LoadRegistry(registryPath)
			if err != nil {
				return err
			}
			var found *config.DeviceInfo
			for i := range reg.Devices {
				if reg.Devices[i].ID == deviceID {
					found = &reg.Devices[i]
					break
				}
			}
			if found == nil {
				return fmt.Errorf("device %q not found in %s", deviceID, registryPath)
			}

			ws, err := config.LoadWorkspace(workspacePath)
			if err != nil {
				return err
			}

			client, err := sshexec.Connect(found.Host, found.SSHPort, found.SSHUser, sshexec.Credentials{
				PrivateKeyPath: ws.PrivateKeyPath(),
				PublicKeyPath:  ws.PublicKeyPath(),
			})
			if err != nil {
				return err
			}
			defer client.Close()

			remote := tunnelRemoteAddr
			if remote == "" {
				remote = fmt.Sprintf("127.0.0.1:%d", found.SSHPort)
			}

			t, err := sshexec.NewTunnel(client, remote)
			if err != nil {
				return err
			}
			defer t.Close()

			fmt.Printf("%s -> %s (device %s) — forwarding, press Ctrl-C to stop\n", t.LocalAddr(), remote, deviceID)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			<-sigCh
			return nil
		},
	}
	cmd.Flags().StringVar(&tunnelRemoteAddr, "remote", "", "remote host:port to forward to (default: the device's own SSH port)")
	return cmd
}
