// Package config loads service configuration from an optional YAML file
// with environment overrides layered on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `yaml:"port"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

type Finnhub struct {
	APIKey                string `yaml:"api_key"`
	BaseURL               string `yaml:"base_url"`
	TimeoutSec            int    `yaml:"timeout_sec"`
	MaxRequestsPerMinute  int    `yaml:"max_requests_per_minute"`
	Burst                 int    `yaml:"burst"`
	MinRequestIntervalSec int    `yaml:"min_request_interval_sec"`
}

type Cache struct {
	TTLSeconds int `yaml:"ttl_sec"`
	MaxEntries int `yaml:"max_entries"`
}

type Search struct {
	MaxResults int `yaml:"max_results"`
}

type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Config struct {
	Server  Server  `yaml:"server"`
	Finnhub Finnhub `yaml:"finnhub"`
	Cache   Cache   `yaml:"cache"`
	Search  Search  `yaml:"search"`
	Logging Logging `yaml:"logging"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Finnhub: Finnhub{
			TimeoutSec:           5,
			MaxRequestsPerMinute: 60,
			Burst:                10,
		},
		Cache:   Cache{TTLSeconds: 60, MaxEntries: 10000},
		Search:  Search{MaxResults: 10},
		Logging: Logging{Level: "info"},
	}
}

// Load reads YAML config from path. If path is empty it falls back to
// config.yaml when present. A .env file is loaded best-effort first, then
// environment variables override file values, so secrets stay out of
// config files.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	overrideInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec)

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Finnhub.APIKey = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		cfg.Finnhub.BaseURL = v
	}
	overrideInt("UPSTREAM_TIMEOUT_SEC", &cfg.Finnhub.TimeoutSec)
	overrideInt("UPSTREAM_MAX_RPM", &cfg.Finnhub.MaxRequestsPerMinute)
	overrideInt("UPSTREAM_BURST", &cfg.Finnhub.Burst)
	overrideInt("UPSTREAM_MIN_INTERVAL_SEC", &cfg.Finnhub.MinRequestIntervalSec)

	overrideInt("CACHE_TTL_SEC", &cfg.Cache.TTLSeconds)
	overrideInt("CACHE_MAX_ENTRIES", &cfg.Cache.MaxEntries)
	overrideInt("SEARCH_MAX_RESULTS", &cfg.Search.MaxResults)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}

// overrideInt replaces *dst when the variable holds a non-negative
// integer; zero is a valid override (it disables rate limits, cache
// bounds and similar knobs).
func overrideInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	x, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || x < 0 {
		return
	}
	*dst = x
}
