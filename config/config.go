// Package config provides YAML configuration parsing for solarboard.
//
// This package enables running solarboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Rooftop Array
//	port: 8099
//	dashboard_path: ${DASHBOARD_DIR:-.}/dashboard-config.json
//	log_level: info
//	watch: true
//	rate_limit: 60
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/solarboard"
)

// Environment variables that override values from the file.
const (
	EnvPort          = "PORT"
	EnvDashboardPath = "DASHBOARD_CONFIG_PATH"
	EnvLogLevel      = "LOG_LEVEL"
)

// Config is the root configuration structure for solarboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML, or [Default] when no
// file is given.
type Config struct {
	// Title is shown on the landing page. Defaults to "Solar Dashboard".
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8099.
	Port int `yaml:"port"`

	// DashboardPath is the JSON dashboard document served and updated.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	DashboardPath string `yaml:"dashboard_path"`

	// StaticDir optionally serves files at "/". Supports substitution.
	StaticDir string `yaml:"static_dir"`

	// LogLevel is a zerolog level name. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// Watch publishes external edits of the document to /api/events.
	// Defaults to true.
	Watch *bool `yaml:"watch"`

	// RateLimit is the number of range updates one client may make per
	// minute. Zero disables the limit. Defaults to 60.
	RateLimit *int `yaml:"rate_limit"`
}

// WatchEnabled reports whether external edits should be watched.
func (c *Config) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// UpdateRateLimit returns the configured rate limit or its default.
func (c *Config) UpdateRateLimit() int {
	if c.RateLimit == nil {
		return solarboard.DefaultUpdateRateLimit
	}
	return *c.RateLimit
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Default returns the configuration used when no file is given, with
// environment overrides applied.
func Default() (*Config, error) {
	return Parse(nil)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in dashboard_path and static_dir, then
// PORT, DASHBOARD_CONFIG_PATH and LOG_LEVEL override the file. Defaults are
// applied for Port (8099) and DashboardPath (dashboard-config.json).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Port == 0 {
		cfg.Port = solarboard.DefaultPort
	}
	if cfg.DashboardPath == "" {
		cfg.DashboardPath = solarboard.DefaultDashboardPath
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expand() error {
	expanded, err := expandEnvVars(c.DashboardPath)
	if err != nil {
		return fmt.Errorf("dashboard_path: %w", err)
	}
	c.DashboardPath = expanded

	expanded, err = expandEnvVars(c.StaticDir)
	if err != nil {
		return fmt.Errorf("static_dir: %w", err)
	}
	c.StaticDir = expanded
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		c.Port = port
	}
	if v, ok := os.LookupEnv(EnvDashboardPath); ok && v != "" {
		c.DashboardPath = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.RateLimit != nil && *c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %d", *c.RateLimit)
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	return nil
}
