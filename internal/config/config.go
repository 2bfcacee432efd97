// Package config содержит логику чтения конфигурации веб-сервиса 123Geleverd.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultBackendURL     = "http://localhost:8001"
	defaultAppEnv         = "development"
	defaultDisplayTZ      = "Europe/Amsterdam"
	defaultBackendTimeout = 10 * time.Second
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	BackendURL     string        `env:"BACKEND_URL"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	CookieSecure   bool          `env:"COOKIE_SECURE"`
	AppEnv         string        `env:"APP_ENV"`
	DisplayTZ      string        `env:"DISPLAY_TZ"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT"`

	displayLocation *time.Location
}

// DisplayLocation возвращает часовой пояс для отображения дат.
func (c *Config) DisplayLocation() *time.Location {
	if c.displayLocation == nil {
		return time.Local
	}
	return c.displayLocation
}

// Parse считывает конфигурацию из .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.BackendURL, "b", defaultBackendURL, "courier backend base URL")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for server-side sessions")
	flag.StringVar(&cfg.SessionSecret, "s", "", "session cookie signing secret")
	flag.BoolVar(&cfg.CookieSecure, "secure", false, "mark session cookies as Secure")
	flag.StringVar(&cfg.AppEnv, "e", defaultAppEnv, "application environment (development|production)")
	flag.StringVar(&cfg.DisplayTZ, "z", defaultDisplayTZ, "time zone for displayed dates")
	flag.DurationVar(&cfg.BackendTimeout, "t", defaultBackendTimeout, "backend request timeout")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.BackendURL != "" {
		cfg.BackendURL = fromEnv.BackendURL
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.SessionSecret != "" {
		cfg.SessionSecret = fromEnv.SessionSecret
	}
	if fromEnv.CookieSecure {
		cfg.CookieSecure = true
	}
	if fromEnv.AppEnv != "" {
		cfg.AppEnv = fromEnv.AppEnv
	}
	if fromEnv.DisplayTZ != "" {
		cfg.DisplayTZ = fromEnv.DisplayTZ
	}
	if fromEnv.BackendTimeout != 0 {
		cfg.BackendTimeout = fromEnv.BackendTimeout
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = defaultBackendTimeout
	}

	loc, err := time.LoadLocation(cfg.DisplayTZ)
	if err != nil {
		return nil, fmt.Errorf("load display time zone %q: %w", cfg.DisplayTZ, err)
	}
	cfg.displayLocation = loc

	return cfg, nil
}
