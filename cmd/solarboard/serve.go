package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/solarboard"
	"github.com/jpalmerr/solarboard/config"
	xlog "github.com/jpalmerr/solarboard/internal/log"
)

const (
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the solarboard server.

The server will:
  - Load configuration from the YAML file, if one is given
  - Serve the dashboard document and its landing page on the configured port
  - Publish document changes on /api/events

Without a config file the defaults apply (port 8099, ./dashboard-config.json),
overridable through PORT, DASHBOARD_CONFIG_PATH and LOG_LEVEL.

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  solarboard serve
  solarboard serve -c /etc/solarboard/solarboard.yaml
  solarboard serve --port 9000 --dashboard ./panels.json`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file")
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides config)")
	serveCmd.Flags().String("dashboard", "", "path to the dashboard document (overrides config)")
}

// loadConfig reads the config file named by --config, or the defaults, and
// applies --port and --dashboard on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if f := cmd.Flags().Lookup("dashboard"); f != nil && f.Changed {
		cfg.DashboardPath, _ = cmd.Flags().GetString("dashboard")
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := xlog.Configure(xlog.Config{Level: cfg.LogLevel, Output: os.Stderr})

	logger.Info().
		Int("port", cfg.Port).
		Str("dashboard_path", cfg.DashboardPath).
		Bool("watch", cfg.WatchEnabled()).
		Int("rate_limit", cfg.UpdateRateLimit()).
		Msg("config loaded")

	opts := append(config.BuildOptions(cfg), solarboard.WithLogger(logger))
	sb, err := solarboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create solarboard: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- sb.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info().Msg("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info().Msg("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn().
				Dur("timeout", shutdownTimeout).
				Str("action", "forcing exit").
				Msg("shutdown timed out")
			return nil
		}
	}
}
