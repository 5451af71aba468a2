package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"stockbench/internal/strategy"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockbench services.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Screen   ScreenConfig   `yaml:"screen"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey          string `yaml:"api_key"`
	APISecret       string `yaml:"api_secret"`
	BaseURL         string `yaml:"base_url"`
	DataURL         string `yaml:"data_url"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScreenConfig controls the screening pipeline and its cache.
type ScreenConfig struct {
	Workers       int           `yaml:"workers"`
	CacheBucket   time.Duration `yaml:"cache_bucket"`
	CacheCapacity int           `yaml:"cache_capacity"`
}

// BacktestConfig holds backtest defaults applied when a request leaves them
// unset.
type BacktestConfig struct {
	InitialCash float64         `yaml:"initial_cash"`
	Strategy    strategy.Config `yaml:"strategy"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills zero-valued fields with working defaults.
func (c *Config) applyDefaults() {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/stockbench.db"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Alpaca.RateLimitPerMin == 0 {
		c.Alpaca.RateLimitPerMin = 200
	}
	if c.Screen.Workers == 0 {
		c.Screen.Workers = 10
	}
	if c.Screen.CacheBucket == 0 {
		c.Screen.CacheBucket = 5 * time.Minute
	}
	if c.Screen.CacheCapacity == 0 {
		c.Screen.CacheCapacity = 1024
	}
	if c.Backtest.InitialCash == 0 {
		c.Backtest.InitialCash = 10000
	}
	if c.Backtest.Strategy.Kind == "" {
		c.Backtest.Strategy.Kind = strategy.KindRSI
	}
	c.Backtest.Strategy.ApplyDefaults()
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
