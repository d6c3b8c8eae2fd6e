package solarboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jpalmerr/solarboard/dashboard"
	xlog "github.com/jpalmerr/solarboard/internal/log"
	"github.com/jpalmerr/solarboard/internal/server"
	"github.com/jpalmerr/solarboard/internal/store"
)

// Defaults applied by [New] and by the config package.
const (
	DefaultPort            = 8099
	DefaultDashboardPath   = "dashboard-config.json"
	DefaultUpdateRateLimit = 60
)

// SolarBoard serves a dashboard document over HTTP.
//
// It is created using [New] with functional options and started with
// [SolarBoard.Start]:
//
//	sb, err := solarboard.New(solarboard.WithDashboardPath("dashboard-config.json"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	sb.Start(ctx) // blocks until context cancelled
type SolarBoard struct {
	title           string
	port            int
	dashboardPath   string
	staticDir       string
	watch           bool
	updateRateLimit int
	logger          zerolog.Logger
}

// New creates a new [SolarBoard] instance with the given options.
//
// Defaults:
//   - Port: 8099
//   - Dashboard document: dashboard-config.json in the working directory
//   - External change watching: enabled
//   - Update rate limit: 60 per client per minute
//
// The document is not read until a request needs it.
func New(opts ...Option) (*SolarBoard, error) {
	cfg := &sbConfig{
		port:            DefaultPort,
		dashboardPath:   DefaultDashboardPath,
		watch:           true,
		updateRateLimit: DefaultUpdateRateLimit,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.dashboardPath == "" {
		return nil, errors.New("dashboard path is required")
	}

	logger := xlog.Base()
	if cfg.logger != nil {
		logger = *cfg.logger
	}

	return &SolarBoard{
		title:           cfg.title,
		port:            cfg.port,
		dashboardPath:   cfg.dashboardPath,
		staticDir:       cfg.staticDir,
		watch:           cfg.watch,
		updateRateLimit: cfg.updateRateLimit,
		logger:          logger,
	}, nil
}

// Start serves the dashboard until ctx is cancelled.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start. A document watcher that cannot be set up is logged and
// skipped.
func (sb *SolarBoard) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	sb.logger.Info().
		Str("dashboard_path", sb.dashboardPath).
		Bool("watch", sb.watch).
		Msg("solarboard starting")

	broker := store.NewBroker()
	fileStore := store.NewFileStore(sb.dashboardPath, broker, xlog.WithComponent(sb.logger, "store"))

	// a missing document is not fatal: requests report it until it appears
	if _, err := fileStore.Load(ctx); err != nil {
		sb.logger.Warn().Err(err).Msg("dashboard document not loadable yet")
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	var watcher *store.Watcher
	if sb.watch {
		watcher = store.NewWatcher(fileStore, xlog.WithComponent(sb.logger, "watcher"))
		if err := watcher.Start(watchCtx); err != nil {
			sb.logger.Warn().Err(err).Msg("external changes to the dashboard document will not be announced")
			watcher = nil
		}
	}

	httpServer := server.NewServer(fileStore, server.Config{
		Port:            sb.port,
		Assets:          dashboard.Assets,
		StaticDir:       sb.staticDir,
		Title:           sb.title,
		UpdateRateLimit: sb.updateRateLimit,
		Logger:          xlog.WithComponent(sb.logger, "server"),
	})
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	sb.logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", sb.port)).
		Msg("dashboard available")

	<-ctx.Done()
	stopWatch()
	if watcher != nil {
		<-watcher.Done()
	}
	sb.logger.Info().Msg("solarboard stopped")
	return nil
}

// Port returns the configured HTTP port.
func (sb *SolarBoard) Port() int {
	return sb.port
}

// DashboardPath returns the path of the dashboard document.
func (sb *SolarBoard) DashboardPath() string {
	return sb.dashboardPath
}
