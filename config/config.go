// Package config loads, validates, and normalises renderer and middleware
// settings from YAML files with environment variable overrides, so services
// embedding the library share one schema.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/theroutercompany/problem"
)

const (
	defaultStatus          = 500
	defaultBodyLimitBytes  = 1 << 20
	defaultRateLimitWindow = 60 * time.Second
	defaultRateLimitMax    = 120

	envConfigPath      = "PROBLEM_CONFIG"
	envDefaultStatus   = "PROBLEM_DEFAULT_STATUS"
	envFormats         = "PROBLEM_FORMATS"
	envBodyLimit       = "PROBLEM_BODY_LIMIT_BYTES"
	envRateLimitWindow = "PROBLEM_RATE_LIMIT_WINDOW_MS"
	envRateLimitMax    = "PROBLEM_RATE_LIMIT_MAX"
	envCorsOrigins     = "PROBLEM_CORS_ALLOWED_ORIGINS"
	envJWTSecret       = "PROBLEM_JWT_SECRET"
	envJWTAudience     = "PROBLEM_JWT_AUDIENCE"
	envJWTIssuer       = "PROBLEM_JWT_ISSUER"
)

// Config captures renderer and middleware settings.
type Config struct {
	DefaultStatus int             `yaml:"defaultStatus"`
	Formats       []string        `yaml:"formats"`
	BodyLimit     int64           `yaml:"bodyLimitBytes"`
	RateLimit     RateLimitConfig `yaml:"rateLimit"`
	CORS          CORSConfig      `yaml:"cors"`
	Auth          AuthConfig      `yaml:"auth"`
}

// RateLimitConfig controls per-client request limiting.
type RateLimitConfig struct {
	WindowMillis int64 `yaml:"windowMs"`
	Max          int   `yaml:"max"`
}

// Window returns the configured window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMillis) * time.Millisecond
}

// CORSConfig controls origin filtering.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// AuthConfig controls bearer token validation.
type AuthConfig struct {
	Secret    string   `yaml:"secret"`
	Audiences []string `yaml:"audiences"`
	Issuer    string   `yaml:"issuer"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		DefaultStatus: defaultStatus,
		Formats:       []string{"json"},
		BodyLimit:     defaultBodyLimitBytes,
		RateLimit: RateLimitConfig{
			WindowMillis: defaultRateLimitWindow.Milliseconds(),
			Max:          defaultRateLimitMax,
		},
	}
}

// Load reads the configuration file named by path, or by PROBLEM_CONFIG when
// path is empty, applies environment overrides, and validates the result. A
// missing file yields the defaults with overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration the middleware cannot run with.
func (c Config) Validate() error {
	if c.DefaultStatus < 100 || c.DefaultStatus > 599 {
		return fmt.Errorf("defaultStatus %d outside 100-599", c.DefaultStatus)
	}
	if c.BodyLimit < 0 {
		return fmt.Errorf("bodyLimitBytes must not be negative")
	}
	if _, err := c.RendererFormats(); err != nil {
		return err
	}
	return nil
}

// RendererFormats maps the configured format names onto renderer formats.
func (c Config) RendererFormats() ([]problem.Format, error) {
	formats := make([]problem.Format, 0, len(c.Formats))
	for _, name := range c.Formats {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "json":
			formats = append(formats, problem.JSON)
		case "xml":
			formats = append(formats, problem.XML)
		default:
			return nil, fmt.Errorf("unknown format %q", name)
		}
	}
	if len(formats) == 0 {
		formats = append(formats, problem.JSON)
	}
	return formats, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envDefaultStatus); v != "" {
		if status, err := strconv.Atoi(v); err == nil {
			cfg.DefaultStatus = status
		}
	}
	if v := os.Getenv(envFormats); v != "" {
		cfg.Formats = splitList(v)
	}
	if v := os.Getenv(envBodyLimit); v != "" {
		if limit, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.BodyLimit = limit
		}
	}
	if v := os.Getenv(envRateLimitWindow); v != "" {
		if window, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.RateLimit.WindowMillis = window
		}
	}
	if v := os.Getenv(envRateLimitMax); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Max = max
		}
	}
	if v := os.Getenv(envCorsOrigins); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv(envJWTSecret); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv(envJWTAudience); v != "" {
		cfg.Auth.Audiences = splitList(v)
	}
	if v := os.Getenv(envJWTIssuer); v != "" {
		cfg.Auth.Issuer = v
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
