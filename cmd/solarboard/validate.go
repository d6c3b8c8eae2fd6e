package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/solarboard/internal/document"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file and its dashboard document",
	Long: `Validate a solarboard configuration file without starting the server.

This command parses the YAML, expands environment variables, validates all
fields, then loads the dashboard document the config points at and checks
that it has a panels array with an id on every panel. It's useful for CI/CD
pipelines or pre-deployment checks.

Exit codes:
  0 - Config and document are valid
  1 - Something is invalid (error details printed to stderr)

Example:
  solarboard validate -c solarboard.yaml
  solarboard validate -c solarboard.yaml --dashboard ./staging-panels.json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	validateCmd.Flags().String("dashboard", "", "path to the dashboard document (overrides config)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	doc, err := document.Load(cfg.DashboardPath)
	if err != nil {
		return fmt.Errorf("invalid dashboard document: %w", err)
	}

	panels := doc.Panels()
	gauges := 0
	for _, p := range panels {
		if p.Type() == "gauge" {
			gauges++
		}
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:      %d\n", cfg.Port)
	fmt.Printf("  Dashboard: %s\n", cfg.DashboardPath)
	fmt.Printf("  Panels:    %d (%d gauges)\n", len(panels), gauges)

	return nil
}
