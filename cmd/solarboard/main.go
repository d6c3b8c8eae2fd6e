// Package main is the entry point for the solarboard CLI.
//
// solarboard can be run either as a library (SDK) or as a standalone binary
// with optional YAML configuration. This CLI provides the standalone binary
// approach.
//
// Usage:
//
//	solarboard serve                          # Serve ./dashboard-config.json on :8099
//	solarboard serve -c solarboard.yaml       # Start with a config file
//	solarboard validate -c solarboard.yaml    # Validate config and document
//	solarboard version                        # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "solarboard",
	Short: "Serve and edit a JSON gauge dashboard",
	Long: `solarboard serves a Grafana-style JSON dashboard document.

It exposes a simplified per-panel view at /api/solar-data and lets clients
change a panel's gauge range through /api/update-panel-range. Every change
is written back to the document file.

Quick start:
  1. Put your dashboard JSON at ./dashboard-config.json
  2. Run: solarboard serve
  3. Open http://localhost:8099 in your browser

Example config:
  title: Rooftop Array
  port: 8099
  dashboard_path: /srv/solar/dashboard-config.json
  rate_limit: 60`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this solarboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("solarboard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
