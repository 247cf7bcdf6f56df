// remotedbgd — remote debug session orchestrator
//
// remotedbgd wires pkg/orchestrator into a runnable process: a JSON-line
// request/response loop over stdin/stdout for driving sessions by hand or
// from a scripted caller, plus a small inspection CLI for on-call debugging.
//
// Usage:
//
//	remotedbgd serve                 # JSON-line request/response loop
//	remotedbgd devices                # list the device registry
//	remotedbgd sessions                # list live sessions
//	remotedbgd audit --agent A        # query the session audit trail
//	remotedbgd tunnel <device-id>     # local port-forward to a device
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/cli"
	"github.com/tracewell/remotedbg/pkg/version"
)

var (
	registryPath  string
	overridesPath string
	seedPath      string
	workspacePath string
	auditPath     string
	verbose       bool

	capCacheRedisAddr string
	capCacheRedisDB   int
	capCacheRedisTTL  time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "remotedbgd",
	Short:             "Remote debug session orchestrator",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `remotedbgd coordinates reverse-engineering agents sharing a pool of
jailbroken iOS devices over SSH and a local debugger driver.

  remotedbgd serve                   # JSON-line request/response loop
  remotedbgd devices                 # inspect the device registry
  remotedbgd sessions                # inspect live sessions
  remotedbgd audit                   # query the session audit trail
  remotedbgd tunnel <device-id>      # local port-forward for incident response`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			return obs.SetLogLevel("debug")
		}
		return obs.SetLogLevel("warn")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", defaultRegistryPath(), "device registry document path")
	rootCmd.PersistentFlags().StringVar(&overridesPath, "overrides", defaultOverridesPath(), "workspace overrides document path")
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "devices.yaml to seed registry/overrides on first run")
	rootCmd.PersistentFlags().StringVar(&workspacePath, "workspace", defaultWorkspacePath(), "workspace collaborator document path")
	rootCmd.PersistentFlags().StringVar(&auditPath, "audit-log", defaultAuditPath(), "session audit log path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.PersistentFlags().StringVar(&capCacheRedisAddr, "cap-cache-redis-addr", "",
		"Redis host:port for the capability cache; empty keeps the in-memory cache")
	rootCmd.PersistentFlags().IntVar(&capCacheRedisDB, "cap-cache-redis-db", 0, "Redis DB index for the capability cache")
	rootCmd.PersistentFlags().DurationVar(&capCacheRedisTTL, "cap-cache-redis-ttl", time.Hour, "capability cache entry TTL; 0 disables expiry")

	rootCmd.AddCommand(
		newServeCmd(),
		newDevicesCmd(),
		newSessionsCmd(),
		newAuditCmd(),
		newTunnelCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Info())
		},
	}
}

// Color helpers — delegate to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
