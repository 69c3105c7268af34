package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Log struct {
	Level string `json:"level" split_words:"true"`
	Env   string `json:"env" split_words:"true"`
}

// Backend is the remote watchlist store the client talks to.
type Backend struct {
	BaseURL           string `json:"base_url" split_words:"true"`
	RequestTimeoutSec int    `json:"request_timeout_sec" split_words:"true"`
}

type Watchlist struct {
	// RollbackOnFailure removes an optimistically added entry when the
	// remote persist fails. Off by default: the entry stays until the next
	// successful refresh.
	RollbackOnFailure bool `json:"rollback_on_failure" split_words:"true"`
}

type AlphaVantage struct {
	APIKey            string `json:"api_key" split_words:"true"`
	Endpoint          string `json:"endpoint" split_words:"true"`
	MaxRPM            int    `json:"max_requests_per_minute" split_words:"true"`
	MinIntervalSec    int    `json:"min_request_interval_sec" split_words:"true"`
	Burst             int    `json:"burst" split_words:"true"`
	CacheTTLSec       int    `json:"cache_ttl_sec" split_words:"true"`
	CacheMaxItems     int    `json:"cache_max_items" split_words:"true"`
	RequestTimeoutSec int    `json:"request_timeout_sec" split_words:"true"`
}

// Server configures the reference watchlist store (cmd/watchlistd).
type Server struct {
	// Port is read from SERVER_PORT, then PORT.
	Port              string `json:"port" envconfig:"PORT"`
	RequestTimeoutSec int    `json:"request_timeout_sec" split_words:"true"`
	Store             string `json:"store" split_words:"true"` // memory|redis
	RedisAddr         string `json:"redis_addr" split_words:"true"`
	RedisPassword     string `json:"redis_password" split_words:"true"`
	RedisDB           int    `json:"redis_db" split_words:"true"`
	RedisKeyPrefix    string `json:"redis_key_prefix" split_words:"true"`
}

type Config struct {
	Log          Log          `json:"log" envconfig:"LOG"`
	Backend      Backend      `json:"backend" envconfig:"BACKEND"`
	Watchlist    Watchlist    `json:"watchlist" envconfig:"WATCHLIST"`
	AlphaVantage AlphaVantage `json:"alphavantage" envconfig:"ALPHAVANTAGE"`
	Server       Server       `json:"server" envconfig:"SERVER"`
}

func Default() Config {
	return Config{
		Log: Log{Level: "info", Env: "development"},
		Backend: Backend{
			BaseURL:           "http://localhost:5000",
			RequestTimeoutSec: 10,
		},
		AlphaVantage: AlphaVantage{
			Endpoint: "https://www.alphavantage.co",
			// free tier: 5 requests per minute
			MaxRPM:            5,
			Burst:             1,
			CacheTTLSec:       300,
			CacheMaxItems:     500,
			RequestTimeoutSec: 15,
		},
		Server: Server{
			Port:              "5000",
			RequestTimeoutSec: 10,
			Store:             "memory",
			RedisAddr:         "localhost:6379",
			RedisKeyPrefix:    "stocktracker",
		},
	}
}

// Load reads JSON config from path. If path is empty, config.json in the
// working directory is used when present; otherwise defaults apply.
// A .env file is loaded into the environment, then environment variables
// override individual fields. Keys are the section prefix plus the field
// name, e.g. LOG_LEVEL or ALPHAVANTAGE_API_KEY.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// .env is optional, variables already set in the environment win
	_ = godotenv.Load()

	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("env config: %w", err)
	}
	return cfg, nil
}
