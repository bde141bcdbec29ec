package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvConfigFile = "DICE_CONFIG"
	envPrefix     = "DICE_"
)

// platformVars maps the variables hosting platforms set to config keys.
var platformVars = map[string]string{ //nolint:gochecknoglobals // fixed mapping
	"PORT":     "port",
	"NODE_ENV": "env",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if DICE_CONFIG is set
//  3. platform variables PORT and NODE_ENV
//  4. env (prefix DICE_), e.g. DICE_PORT, DICE_ALLOWED_ORIGINS=a,b
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(defaults{New()}, nil); err != nil {
		return nil, fmt.Errorf("%w: defaults: %w", ErrLoadConfig, err)
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	platform := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		name, ok := platformVars[key]
		if !ok || value == "" {
			return "", nil
		}
		return name, value
	})
	if err := k.Load(platform, nil); err != nil {
		return nil, fmt.Errorf("%w: platform env: %w", ErrLoadConfig, err)
	}

	// DICE_STATIC_DIR -> static_dir; list values are comma separated.
	prefixed := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		name := strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		switch name {
		case "config":
			return "", nil
		case "allowed_origins":
			return name, splitList(value)
		}
		return name, value
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// defaults exposes a Config as the lowest koanf layer.
type defaults struct{ cfg *Config }

func (d defaults) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("defaults provider does not support ReadBytes")
}

func (d defaults) Read() (map[string]any, error) {
	c := d.cfg
	return map[string]any{
		"log_level":       c.LogLevel,
		"log_format":      c.LogFormat,
		"host":            c.Host,
		"port":            c.Port,
		"env":             c.Env,
		"server_name":     c.ServerName,
		"static_dir":      c.StaticDir,
		"allowed_origins": append([]string(nil), c.AllowedOrigins...),
		"metrics_enabled": c.MetricsEnabled,
		"docs_enabled":    c.DocsEnabled,
	}, nil
}
