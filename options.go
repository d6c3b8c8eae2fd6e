package solarboard

import (
	"errors"

	"github.com/rs/zerolog"
)

// sbConfig holds mutable state during SolarBoard construction.
type sbConfig struct {
	title           string
	port            int
	dashboardPath   string
	staticDir       string
	watch           bool
	updateRateLimit int
	logger          *zerolog.Logger
}

// Option configures a [SolarBoard] during construction.
// Options return an error if validation fails.
type Option func(*sbConfig) error

// WithPort sets the HTTP port. Defaults to 8099.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *sbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithDashboardPath sets the path of the dashboard JSON document.
//
// Returns an error if path is empty.
func WithDashboardPath(path string) Option {
	return func(cfg *sbConfig) error {
		if path == "" {
			return errors.New("dashboard path cannot be empty")
		}
		cfg.dashboardPath = path
		return nil
	}
}

// WithStaticDir serves files from dir at "/". An index.html in dir replaces
// the embedded landing page.
func WithStaticDir(dir string) Option {
	return func(cfg *sbConfig) error {
		cfg.staticDir = dir
		return nil
	}
}

// WithTitle sets the title shown on the landing page.
func WithTitle(title string) Option {
	return func(cfg *sbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithWatch enables or disables publishing external edits of the document
// to /api/events. Enabled by default.
func WithWatch(enabled bool) Option {
	return func(cfg *sbConfig) error {
		cfg.watch = enabled
		return nil
	}
}

// WithUpdateRateLimit sets how many range updates one client may make per
// minute. Zero disables the limit.
//
// Returns an error if n is negative.
func WithUpdateRateLimit(n int) Option {
	return func(cfg *sbConfig) error {
		if n < 0 {
			return errors.New("update rate limit cannot be negative")
		}
		cfg.updateRateLimit = n
		return nil
	}
}

// WithLogger sets the logger. Defaults to the process-wide logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *sbConfig) error {
		cfg.logger = &logger
		return nil
	}
}
