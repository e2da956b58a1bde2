package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the aggregation engine.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Cache        CacheConfig
	Retention    RetentionConfig
	Pipeline     PipelineConfig
	Sources      SourcesConfig
	Search       SearchConfig
	Searches     []WarmSearch
	Scheduler    SchedulerConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig points at the SQLite file backing the cache and postings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls search-cache TTLs.
type CacheConfig struct {
	DefaultTTL             time.Duration // standard entry lifetime
	PopularTTL             time.Duration // extended lifetime for high-traffic fingerprints
	PopularAccessThreshold int           // access count at which an entry counts as popular
}

// RetentionConfig controls the weekly postings cleanup, independent of cache TTL.
type RetentionConfig struct {
	Window time.Duration
}

// PipelineConfig bounds a batch run.
type PipelineConfig struct {
	RunDeadline    time.Duration // whole-run budget; exceeding it fails the run
	AdapterTimeout time.Duration // per-adapter budget within the collect phase
}

// SourcesConfig enables individual source adapters.
type SourcesConfig struct {
	Remotive       bool          `yaml:"remotive"`
	Arbeitnow      bool          `yaml:"arbeitnow"`
	WeWorkRemotely bool          `yaml:"weworkremotely"`
	Boards         []BoardConfig `yaml:"boards"`
}

// BoardConfig describes a single ATS board to pull directly.
type BoardConfig struct {
	Name       string `yaml:"name"`
	ATS        string `yaml:"ats"` // "greenhouse" or "lever"
	BoardToken string `yaml:"board_token"`
	Enabled    bool   `yaml:"enabled"`
}

// SearchConfig controls the metered web-search orchestrator. Empty
// credentials are valid and degrade the orchestrator to a no-op.
type SearchConfig struct {
	APIKey           string  `yaml:"api_key"`
	EngineID         string  `yaml:"engine_id"`
	MaxCalls         int     `yaml:"max_calls"` // hard per-run quota ceiling
	QueriesPerSecond float64 `yaml:"queries_per_second"`
}

// WarmSearch is one search the batch run keeps warm in the cache.
type WarmSearch struct {
	Keywords []string `yaml:"keywords"`
	Location string   `yaml:"location"`
	Remote   bool     `yaml:"remote"`
}

// SchedulerConfig fixes the three trigger times.
type SchedulerConfig struct {
	Timezone   string `yaml:"timezone"`
	DailyHour  int    `yaml:"daily_hour"`  // off-peak hour for the full run
	WeeklyDay  string `yaml:"weekly_day"`  // weekday name for retention cleanup
	WeeklyHour int    `yaml:"weekly_hour"`
}

// NotificationConfig controls which run notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RateLimitConfig controls per-provider request pacing.
type RateLimitConfig struct {
	RequestsPerSecond float64            // default bucket refill rate
	Burst             int                // default bucket size
	Overrides         map[string]float64 // per-source rate overrides
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Cache        rawCacheConfig     `yaml:"cache"`
	Retention    rawRetentionConfig `yaml:"retention"`
	Pipeline     rawPipelineConfig  `yaml:"pipeline"`
	Sources      SourcesConfig      `yaml:"sources"`
	Search       SearchConfig       `yaml:"search"`
	Searches     []WarmSearch       `yaml:"searches"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Notification NotificationConfig `yaml:"notification"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
}

type rawCacheConfig struct {
	DefaultTTL             string `yaml:"default_ttl"`
	PopularTTL             string `yaml:"popular_ttl"`
	PopularAccessThreshold int    `yaml:"popular_access_threshold"`
}

type rawRetentionConfig struct {
	Window string `yaml:"window"`
}

type rawPipelineConfig struct {
	RunDeadline    string `yaml:"run_deadline"`
	AdapterTimeout string `yaml:"adapter_timeout"`
}

type rawRateLimitConfig struct {
	RequestsPerSecond float64            `yaml:"requests_per_second"`
	Burst             int                `yaml:"burst"`
	Overrides         map[string]float64 `yaml:"overrides"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (API keys, webhook URLs).
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Server:       raw.Server,
		Database:     raw.Database,
		Sources:      raw.Sources,
		Search:       raw.Search,
		Searches:     raw.Searches,
		Scheduler:    raw.Scheduler,
		Notification: raw.Notification,
	}

	cfg.Cache.DefaultTTL = 24 * time.Hour
	if raw.Cache.DefaultTTL != "" {
		cfg.Cache.DefaultTTL, err = time.ParseDuration(raw.Cache.DefaultTTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache.default_ttl %q: %w", raw.Cache.DefaultTTL, err)
		}
	}
	cfg.Cache.PopularTTL = 7 * 24 * time.Hour
	if raw.Cache.PopularTTL != "" {
		cfg.Cache.PopularTTL, err = time.ParseDuration(raw.Cache.PopularTTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache.popular_ttl %q: %w", raw.Cache.PopularTTL, err)
		}
	}
	cfg.Cache.PopularAccessThreshold = 10
	if raw.Cache.PopularAccessThreshold > 0 {
		cfg.Cache.PopularAccessThreshold = raw.Cache.PopularAccessThreshold
	}

	cfg.Retention.Window = 30 * 24 * time.Hour
	if raw.Retention.Window != "" {
		cfg.Retention.Window, err = time.ParseDuration(raw.Retention.Window)
		if err != nil {
			return nil, fmt.Errorf("parse retention.window %q: %w", raw.Retention.Window, err)
		}
	}

	cfg.Pipeline.RunDeadline = 10 * time.Minute
	if raw.Pipeline.RunDeadline != "" {
		cfg.Pipeline.RunDeadline, err = time.ParseDuration(raw.Pipeline.RunDeadline)
		if err != nil {
			return nil, fmt.Errorf("parse pipeline.run_deadline %q: %w", raw.Pipeline.RunDeadline, err)
		}
	}
	cfg.Pipeline.AdapterTimeout = 60 * time.Second
	if raw.Pipeline.AdapterTimeout != "" {
		cfg.Pipeline.AdapterTimeout, err = time.ParseDuration(raw.Pipeline.AdapterTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse pipeline.adapter_timeout %q: %w", raw.Pipeline.AdapterTimeout, err)
		}
	}

	cfg.RateLimit.RequestsPerSecond = 1
	if raw.RateLimit.RequestsPerSecond > 0 {
		cfg.RateLimit.RequestsPerSecond = raw.RateLimit.RequestsPerSecond
	}
	cfg.RateLimit.Burst = 1
	if raw.RateLimit.Burst > 0 {
		cfg.RateLimit.Burst = raw.RateLimit.Burst
	}
	cfg.RateLimit.Overrides = raw.RateLimit.Overrides

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "getnoticed.db"
	}
	if cfg.Search.MaxCalls <= 0 {
		cfg.Search.MaxCalls = 90
	}
	if cfg.Search.QueriesPerSecond <= 0 {
		cfg.Search.QueriesPerSecond = 0.5
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "UTC"
	}
	if cfg.Scheduler.WeeklyDay == "" {
		cfg.Scheduler.WeeklyDay = "Sunday"
	}
}

func validate(cfg *Config) error {
	if cfg.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("cache.default_ttl must be positive, got %v", cfg.Cache.DefaultTTL)
	}
	if cfg.Cache.PopularTTL < cfg.Cache.DefaultTTL {
		return fmt.Errorf("cache.popular_ttl must be at least cache.default_ttl, got %v", cfg.Cache.PopularTTL)
	}
	if cfg.Retention.Window < cfg.Cache.DefaultTTL {
		return fmt.Errorf("retention.window must be at least cache.default_ttl, got %v", cfg.Retention.Window)
	}

	if cfg.Scheduler.DailyHour < 0 || cfg.Scheduler.DailyHour > 23 {
		return fmt.Errorf("scheduler.daily_hour must be between 0 and 23, got %d", cfg.Scheduler.DailyHour)
	}
	if cfg.Scheduler.WeeklyHour < 0 || cfg.Scheduler.WeeklyHour > 23 {
		return fmt.Errorf("scheduler.weekly_hour must be between 0 and 23, got %d", cfg.Scheduler.WeeklyHour)
	}
	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone %q: %w", cfg.Scheduler.Timezone, err)
	}
	if !validWeekday(cfg.Scheduler.WeeklyDay) {
		return fmt.Errorf("scheduler.weekly_day %q is not a weekday name", cfg.Scheduler.WeeklyDay)
	}

	for i, b := range cfg.Sources.Boards {
		if !b.Enabled {
			continue
		}
		if b.ATS != "greenhouse" && b.ATS != "lever" {
			return fmt.Errorf("sources.boards[%d]: unsupported ats %q", i, b.ATS)
		}
		if b.BoardToken == "" {
			return fmt.Errorf("sources.boards[%d] (%s): board_token is required", i, b.Name)
		}
	}

	for i, s := range cfg.Searches {
		if len(s.Keywords) == 0 {
			return fmt.Errorf("searches[%d]: at least one keyword is required", i)
		}
	}

	if cfg.Notification.Type == "slack" && cfg.Notification.WebhookURL == "" {
		return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
	}

	return nil
}

func validWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return true
		}
	}
	return false
}

// Weekday returns the configured weekly-cleanup day.
func (s SchedulerConfig) Weekday() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == s.WeeklyDay {
			return d
		}
	}
	return time.Sunday
}

// Location returns the configured timezone. Validation guarantees it loads.
func (s SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RateFor returns the configured request rate for the given source,
// falling back to the default.
func (r RateLimitConfig) RateFor(source string) float64 {
	if v, ok := r.Overrides[source]; ok && v > 0 {
		return v
	}
	return r.RequestsPerSecond
}
