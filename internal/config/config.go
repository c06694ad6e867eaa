// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/chatlens/chatlens/internal/batch"
	postgrescache "github.com/chatlens/chatlens/internal/cache/postgres"
	"github.com/chatlens/chatlens/internal/detector"
	collyfetcher "github.com/chatlens/chatlens/internal/fetcher/colly"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Detector DetectorConfig `mapstructure:"detector"`
	Batch    BatchConfig    `mapstructure:"batch"`
	DB       DBConfig       `mapstructure:"db"`
	Denylist DenylistConfig `mapstructure:"denylist"`
	Progress ProgressConfig `mapstructure:"progress"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port               int `mapstructure:"port"`
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds"`
	ShutdownSeconds    int `mapstructure:"shutdown_seconds"`
}

// FetchConfig configures the page fetcher and its retry behavior.
type FetchConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes     int    `mapstructure:"max_body_bytes"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
}

// DetectorConfig governs classification thresholds and caching.
type DetectorConfig struct {
	ConfidenceFloor float64 `mapstructure:"confidence_floor"`
	CacheTTLHours   int     `mapstructure:"cache_ttl_hours"`
}

// BatchConfig governs batch execution.
type BatchConfig struct {
	Concurrency         int `mapstructure:"concurrency"`
	ChunkSize           int `mapstructure:"chunk_size"`
	ChunkDelaySeconds   int `mapstructure:"chunk_delay_seconds"`
	URLAttempts         int `mapstructure:"url_attempts"`
	AttemptDelaySeconds int `mapstructure:"attempt_delay_seconds"`
	MaxBatchSize        int `mapstructure:"max_batch_size"`
}

// DBConfig controls the Postgres result cache. An empty DSN selects the
// in-memory cache instead.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	Table           string `mapstructure:"table"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// DenylistConfig augments the built-in false-positive host list.
type DenylistConfig struct {
	ExtraHosts []string `mapstructure:"extra_hosts"`
}

// ProgressConfig sizes the progress event hub.
type ProgressConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHATLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.shutdown_seconds", 15)
	v.SetDefault("fetch.user_agent", "chatlens-bot/0.1")
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_initial_ms", 500)
	v.SetDefault("fetch.backoff_max_ms", 10000)
	v.SetDefault("detector.confidence_floor", 0.1)
	v.SetDefault("detector.cache_ttl_hours", 24)
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("batch.chunk_size", 10)
	v.SetDefault("batch.chunk_delay_seconds", 1)
	v.SetDefault("batch.url_attempts", 3)
	v.SetDefault("batch.attempt_delay_seconds", 1)
	v.SetDefault("batch.max_batch_size", 500)
	v.SetDefault("db.table", "chat_analysis_cache")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.conn_lifetime_minutes", 30)
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Detector.ConfidenceFloor < 0 || c.Detector.ConfidenceFloor > 1 {
		return fmt.Errorf("detector.confidence_floor must be within [0, 1]")
	}
	if c.Detector.CacheTTLHours <= 0 {
		return fmt.Errorf("detector.cache_ttl_hours must be > 0")
	}
	if c.Batch.Concurrency < 3 || c.Batch.Concurrency > 10 {
		return fmt.Errorf("batch.concurrency must be within [3, 10]")
	}
	if c.Batch.MaxBatchSize <= 0 {
		return fmt.Errorf("batch.max_batch_size must be > 0")
	}
	return nil
}

// FetcherSettings adapts fetch knobs into the fetcher's option struct.
func (c Config) FetcherSettings() collyfetcher.Config {
	return collyfetcher.Config{
		UserAgent:    c.Fetch.UserAgent,
		Timeout:      time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		MaxBodyBytes: c.Fetch.MaxBodyBytes,
		MaxAttempts:  c.Fetch.MaxRetries,
		BackoffBase:  time.Duration(c.Fetch.BackoffInitialMs) * time.Millisecond,
		BackoffMax:   time.Duration(c.Fetch.BackoffMaxMs) * time.Millisecond,
	}
}

// DetectorSettings adapts detector knobs.
func (c Config) DetectorSettings() detector.Config {
	return detector.Config{
		CacheTTL: time.Duration(c.Detector.CacheTTLHours) * time.Hour,
	}
}

// BatchSettings adapts batch knobs.
func (c Config) BatchSettings() batch.Config {
	return batch.Config{
		Concurrency:  c.Batch.Concurrency,
		ChunkSize:    c.Batch.ChunkSize,
		ChunkDelay:   time.Duration(c.Batch.ChunkDelaySeconds) * time.Second,
		URLAttempts:  c.Batch.URLAttempts,
		AttemptDelay: time.Duration(c.Batch.AttemptDelaySeconds) * time.Second,
		MaxBatchSize: c.Batch.MaxBatchSize,
	}
}

// CacheSettings adapts database knobs for the Postgres cache.
func (c Config) CacheSettings() postgrescache.Config {
	return postgrescache.Config{
		DSN:             c.DB.DSN,
		Table:           c.DB.Table,
		MaxConns:        int32(c.DB.MaxConns),
		MinConns:        int32(c.DB.MinConns),
		MaxConnLifetime: time.Duration(c.DB.ConnLifetimeMin) * time.Minute,
	}
}
