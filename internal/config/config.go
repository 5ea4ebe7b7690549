// Package config loads service settings from an optional YAML file and
// applies environment overrides on top.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/HAAN6892/real-estate-monitor/internal/env"
	"github.com/HAAN6892/real-estate-monitor/naver"
)

var (
	ErrInvalidPort     = errors.New("server.port must be between 1 and 65535")
	ErrInvalidMaxPages = errors.New("provider.max_pages must be at least 1")
	ErrInvalidAttempts = errors.New("provider.secondary_attempts must be at least 1")
	ErrMissingEndpoint = errors.New("provider.endpoints must all be set")
	ErrInvalidCacheTTL = errors.New("cache.ttl must be positive")
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Provider  ProviderConfig  `yaml:"provider"`
	Cache     CacheConfig     `yaml:"cache"`
	Rehydrate RehydrateConfig `yaml:"rehydrate"`
}

type ServerConfig struct {
	Port          int `yaml:"port"`
	RatePerMinute int `yaml:"rate_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ProviderConfig struct {
	Endpoints         naver.Endpoints `yaml:"endpoints"`
	UserAgent         string          `yaml:"user_agent"`
	RequestsPerSecond float64         `yaml:"requests_per_second"`
	Burst             int             `yaml:"burst"`
	ListTimeout       time.Duration   `yaml:"list_timeout"`
	DetailTimeout     time.Duration   `yaml:"detail_timeout"`
	MaxPages          int             `yaml:"max_pages"`
	SecondaryAttempts int             `yaml:"secondary_attempts"`
	CallPause         time.Duration   `yaml:"call_pause"`
}

type CacheConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	StaleAfter  time.Duration `yaml:"stale_after"`
	DegradedTTL time.Duration `yaml:"degraded_ttl"`
	LockTTL     time.Duration `yaml:"lock_ttl"`
}

type RehydrateConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Pause     time.Duration `yaml:"pause"`
	BatchSize int           `yaml:"batch_size"`
	RunOnce   bool          `yaml:"run_once"`
}

func Default() Config {
	return Config{
		Server:  ServerConfig{Port: 4002, RatePerMinute: 60},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Provider: ProviderConfig{
			Endpoints:         naver.DefaultEndpoints(),
			RequestsPerSecond: 2,
			Burst:             1,
			ListTimeout:       15 * time.Second,
			DetailTimeout:     10 * time.Second,
			MaxPages:          naver.DefaultMaxPages,
			SecondaryAttempts: naver.DefaultSecondaryAttempts,
			CallPause:         time.Second,
		},
		Cache: CacheConfig{
			TTL:         24 * time.Hour,
			StaleAfter:  6 * time.Hour,
			DegradedTTL: 10 * time.Minute,
			LockTTL:     90 * time.Second,
		},
		Rehydrate: RehydrateConfig{
			Interval:  6 * time.Hour,
			Pause:     5 * time.Second,
			BatchSize: 20,
		},
	}
}

// Load reads path over the defaults (an empty path or a missing file keeps
// the defaults), applies env overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, eris.Wrapf(err, "config: parse %s", path)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, eris.Wrapf(err, "config: read %s", path)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = env.GetInt("PORT", c.Server.Port)
	c.Logging.Level = env.Get("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = env.Get("LOG_FORMAT", c.Logging.Format)
	c.Provider.RequestsPerSecond = env.GetFloat("PROVIDER_RPS", c.Provider.RequestsPerSecond)
	c.Provider.CallPause = env.GetDuration("PROVIDER_CALL_PAUSE", c.Provider.CallPause)
	c.Provider.MaxPages = env.GetInt("PROVIDER_MAX_PAGES", c.Provider.MaxPages)
	c.Cache.TTL = env.GetDuration("CACHE_TTL", c.Cache.TTL)
	c.Cache.StaleAfter = env.GetDuration("CACHE_STALE_AFTER", c.Cache.StaleAfter)
	c.Rehydrate.Interval = env.GetDuration("REHYDRATE_INTERVAL", c.Rehydrate.Interval)
	c.Rehydrate.Pause = env.GetDuration("REHYDRATE_PAUSE", c.Rehydrate.Pause)
	c.Rehydrate.BatchSize = env.GetInt("REHYDRATE_BATCH_SIZE", c.Rehydrate.BatchSize)
	c.Rehydrate.RunOnce = env.GetBool("REHYDRATE_RUN_ONCE", c.Rehydrate.RunOnce)
}

func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Provider.MaxPages < 1 {
		return ErrInvalidMaxPages
	}
	if c.Provider.SecondaryAttempts < 1 {
		return ErrInvalidAttempts
	}
	ep := c.Provider.Endpoints
	if ep.Mobile == "" || ep.Complex == "" || ep.Finance == "" {
		return ErrMissingEndpoint
	}
	if c.Cache.TTL <= 0 {
		return ErrInvalidCacheTTL
	}
	return nil
}

// ClientOptions maps the provider section onto naver.Options.
func (c Config) ClientOptions() naver.Options {
	return naver.Options{
		Endpoints:         c.Provider.Endpoints,
		UserAgent:         c.Provider.UserAgent,
		RequestsPerSecond: c.Provider.RequestsPerSecond,
		Burst:             c.Provider.Burst,
		ListTimeout:       c.Provider.ListTimeout,
		DetailTimeout:     c.Provider.DetailTimeout,
		SecondaryAttempts: c.Provider.SecondaryAttempts,
	}
}
