// Go2n-ctl is a command line utility for 2N intercom and access
// control devices.
//
// It provides device discovery, identity and status queries, switch and
// IO port control, event log streaming, and a live terminal monitor.
// All communication uses the device's HTTP API; the HTTP API service
// and an account with suitable privileges must be enabled on the device.
//
// Usage:
//
//	go2n-ctl [command] [flags]
//
// See 'go2n-ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/go2n/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "go2n-ctl",
	Short: "2N Device Control Utility",
	Long: `A command line utility for 2N intercom and access control devices.

Provides device discovery, identity and status queries, switch and IO
port control, event log streaming, and a live terminal monitor.

Devices are addressed with --device by IP, hostname, or a registered
alias (see 'go2n-ctl device add'). When --device is omitted the
configured default device is used.`,
	Version: version.Version,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("go2n-ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
