// Package config loads the application configuration from a YAML file with
// environment variable overrides. Environment variables use the FXDASH_
// prefix and win over file values, so deployments can keep secrets like the
// provider API key out of the file entirely.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Provider   ProviderConfig   `yaml:"provider"`
	Cache      CacheConfig      `yaml:"cache"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AppConfig represents application configuration
type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// ProviderConfig represents rate provider configuration
type ProviderConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// CacheConfig represents response cache configuration
type CacheConfig struct {
	Redis            RedisConfig   `yaml:"redis"`
	MaxMemoryEntries int           `yaml:"max_memory_entries"`
	CurrencyListTTL  time.Duration `yaml:"currency_list_ttl"`
	LiveRateTTL      time.Duration `yaml:"live_rate_ttl"`
	HistoryTTL       time.Duration `yaml:"history_ttl"`
}

// RedisConfig represents Redis configuration. An empty addr disables Redis
// and the service runs on the in-memory store alone.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// RefreshConfig represents the background currency-list refresh schedule
type RefreshConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CronSpec string `yaml:"cron_spec"`
}

// MonitoringConfig represents monitoring configuration
type MonitoringConfig struct {
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusPath    string `yaml:"prometheus_path"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// RateLimitConfig represents inbound rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load loads configuration from a YAML file, applies environment overrides
// and validates the result.
func Load(filename string) (*Config, error) {
	config := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnv(NewEnvManager(""))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns the built-in configuration used when the file omits a field.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "fxdash",
			Version: "dev",
			Env:     "development",
		},
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		Provider: ProviderConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Cache: CacheConfig{
			MaxMemoryEntries: 10000,
			CurrencyListTTL:  time.Hour,
			LiveRateTTL:      time.Minute,
			HistoryTTL:       5 * time.Minute,
		},
		Refresh: RefreshConfig{
			Enabled:  true,
			CronSpec: "@hourly",
		},
		Monitoring: MonitoringConfig{
			PrometheusEnabled: true,
			PrometheusPath:    "/metrics",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 120,
			Burst:             30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

func (c *Config) applyEnv(env *EnvManager) {
	c.App.Env = env.GetString("ENV", c.App.Env)

	c.Server.Port = env.GetInt("SERVER_PORT", c.Server.Port)
	c.Server.Host = env.GetString("SERVER_HOST", c.Server.Host)

	c.Provider.APIKey = env.GetString("API_KEY", c.Provider.APIKey)
	c.Provider.BaseURL = env.GetString("API_BASE_URL", c.Provider.BaseURL)
	c.Provider.Timeout = env.GetDuration("API_TIMEOUT", c.Provider.Timeout)

	c.Cache.Redis.Addr = env.GetString("REDIS_ADDR", c.Cache.Redis.Addr)
	c.Cache.Redis.Password = env.GetString("REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Cache.Redis.DB = env.GetInt("REDIS_DB", c.Cache.Redis.DB)

	c.Refresh.Enabled = env.GetBool("REFRESH_ENABLED", c.Refresh.Enabled)
	c.Refresh.CronSpec = env.GetString("REFRESH_CRON", c.Refresh.CronSpec)

	c.Logging.Level = env.GetString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = env.GetString("LOG_FORMAT", c.Logging.Format)
}
