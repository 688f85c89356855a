package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/tourclimb/internal/tsp"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Database struct {
		Type     string `env:"DB_TYPE" envDefault:"sqlite"`
		DSN      string `env:"DB_DSN"`
		MaxConns int    `env:"DB_MAX_CONNS" envDefault:"1"`
	}
	Search struct {
		Iterations     int    `env:"SEARCH_ITERATIONS" envDefault:"1000"`
		Policy         string `env:"SEARCH_POLICY" envDefault:"simple"`
		Steepest       bool   `env:"SEARCH_STEEPEST" envDefault:"true"`
		SampleSize     int    `env:"SEARCH_SAMPLE_SIZE" envDefault:"20"`
		Seed           int64  `env:"SEARCH_SEED" envDefault:"0"`
		MaxExactCities int    `env:"SEARCH_MAX_EXACT_CITIES" envDefault:"10"`
		StrictMatrix   bool   `env:"SEARCH_STRICT_MATRIX" envDefault:"true"`
		Workers        int    `env:"SEARCH_WORKERS" envDefault:"4"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Verbose by default while developing
	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if cfg.Database.DSN == "" && cfg.Database.Type == "sqlite" {
		cfg.Database.DSN = filepath.Join("data", "tourclimb.db")
	}

	if cfg.Search.Workers < 1 {
		cfg.Search.Workers = 1
	}

	if _, err := tsp.ParsePolicy(cfg.Search.Policy); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchConfig converts the search section into solver settings.
func (c *Config) SearchConfig() (tsp.SearchConfig, error) {
	policy, err := tsp.ParsePolicy(c.Search.Policy)
	if err != nil {
		return tsp.SearchConfig{}, err
	}
	return tsp.SearchConfig{
		Iterations: c.Search.Iterations,
		Policy:     policy,
		Steepest:   c.Search.Steepest,
		SampleSize: c.Search.SampleSize,
		Seed:       c.Search.Seed,
	}, nil
}

// StoreEnabled reports whether runs should be persisted.
func (c *Config) StoreEnabled() bool {
	return c.Database.Type == "sqlite" && c.Database.DSN != ""
}

// GetEnv returns the value of the environment variable or the default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
