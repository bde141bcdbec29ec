// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Build the Config once at startup (Load) and pass it down; handlers never
//   read the environment themselves.
// - All loading functions accept context.Context as the first parameter.
// - Load failures wrap ErrLoadConfig, validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"net"
	"strconv"
)

// EnvProduction is the only environment value that suppresses error detail.
const EnvProduction = "production"

// Default origins accepted by the cross-origin filter.
const (
	OriginLocalDev      = "http://localhost:3000"
	OriginStaticHosting = "https://your-static-app.azurestaticapps.net"
	OriginAppHosting    = "https://your-app-service.azurewebsites.net"
)

const maxPort = 65535

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the record encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Host is the listen host; empty listens on all interfaces.
	Host string `koanf:"host"`

	// Port is the listen port, also reported by /api/wakeup and /test.
	Port int `koanf:"port"`

	// Env is the deployment mode. Only "production" hides error detail.
	Env string `koanf:"env"`

	// ServerName identifies the server in /api/health.
	ServerName string `koanf:"server_name"`

	// StaticDir is served at the root path when it exists.
	StaticDir string `koanf:"static_dir"`

	// AllowedOrigins is the exact-match allow-list of the cross-origin filter.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// MetricsEnabled exposes /metrics and turns on the collectors.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// DocsEnabled exposes /api-docs and /openapi.yaml.
	DocsEnabled bool `koanf:"docs_enabled"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		LogFormat:  "text",
		Host:       "",
		Port:       3000,
		Env:        "development",
		ServerName: "Node.js Express on Azure",
		StaticDir:  "client",
		AllowedOrigins: []string{
			OriginLocalDev,
			OriginStaticHosting,
			OriginAppHosting,
		},
		MetricsEnabled: true,
		DocsEnabled:    true,
	}
}

// Addr is the listen address derived from Host and Port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Production reports whether error detail must be suppressed.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > maxPort {
		return fmt.Errorf("%w: port must be between 1 and %d, got %d", ErrInvalidConfig, maxPort, c.Port)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	for i, o := range c.AllowedOrigins {
		if o == "" {
			return fmt.Errorf("%w: allowed_origins[%d] is empty", ErrInvalidConfig, i)
		}
	}
	return nil
}
