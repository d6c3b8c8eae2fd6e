package config

import (
	"github.com/jpalmerr/solarboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger is left to the caller, which owns log setup.
func BuildOptions(cfg *Config) []solarboard.Option {
	opts := []solarboard.Option{
		solarboard.WithPort(cfg.Port),
		solarboard.WithDashboardPath(cfg.DashboardPath),
		solarboard.WithWatch(cfg.WatchEnabled()),
		solarboard.WithUpdateRateLimit(cfg.UpdateRateLimit()),
	}

	if cfg.Title != "" {
		opts = append(opts, solarboard.WithTitle(cfg.Title))
	}
	if cfg.StaticDir != "" {
		opts = append(opts, solarboard.WithStaticDir(cfg.StaticDir))
	}

	return opts
}
