package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/jpalmerr/solarboard"
	xlog "github.com/jpalmerr/solarboard/internal/log"
)

func main() {
	logger := xlog.Configure(xlog.Config{Level: "debug"})

	// serve the sample document that sits next to this file
	_, file, _, _ := runtime.Caller(0)
	dashboard := filepath.Join(filepath.Dir(file), "dashboard-config.json")

	sb, err := solarboard.New(
		solarboard.WithDashboardPath(dashboard),
		solarboard.WithTitle("Rooftop Array"),
		solarboard.WithPort(8099),
		solarboard.WithLogger(logger),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create solarboard")
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  solarboard demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8099 in your browser")
	fmt.Println("  Edit " + dashboard + " and watch the page refresh")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sb.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("solarboard error")
		os.Exit(1)
	}
}
