package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validConfig = `
server:
  addr: ":9090"
database:
  path: "test.db"
cache:
  default_ttl: 24h
  popular_ttl: 168h
  popular_access_threshold: 5
retention:
  window: 720h
pipeline:
  run_deadline: 10m
  adapter_timeout: 45s
sources:
  remotive: true
  arbeitnow: true
  weworkremotely: false
  boards:
    - name: Acme
      ats: greenhouse
      board_token: acme
      enabled: true
search:
  api_key: "key123"
  engine_id: "cx456"
  max_calls: 50
  queries_per_second: 0.5
searches:
  - keywords: ["product manager"]
    location: "New York"
    remote: false
scheduler:
  timezone: "America/New_York"
  daily_hour: 2
  weekly_day: Sunday
  weekly_hour: 4
notification:
  type: log
rate_limit:
  requests_per_second: 2
  burst: 1
  overrides:
    websearch: 0.5
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr: got %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Cache.DefaultTTL != 24*time.Hour {
		t.Errorf("cache.default_ttl: got %v, want 24h", cfg.Cache.DefaultTTL)
	}
	if cfg.Cache.PopularTTL != 168*time.Hour {
		t.Errorf("cache.popular_ttl: got %v, want 168h", cfg.Cache.PopularTTL)
	}
	if cfg.Cache.PopularAccessThreshold != 5 {
		t.Errorf("popular_access_threshold: got %d, want 5", cfg.Cache.PopularAccessThreshold)
	}
	if cfg.Pipeline.AdapterTimeout != 45*time.Second {
		t.Errorf("pipeline.adapter_timeout: got %v, want 45s", cfg.Pipeline.AdapterTimeout)
	}
	if cfg.Search.MaxCalls != 50 {
		t.Errorf("search.max_calls: got %d, want 50", cfg.Search.MaxCalls)
	}
	if len(cfg.Searches) != 1 || cfg.Searches[0].Location != "New York" {
		t.Errorf("unexpected searches: %+v", cfg.Searches)
	}
	if cfg.Scheduler.Weekday() != time.Sunday {
		t.Errorf("weekly_day: got %v, want Sunday", cfg.Scheduler.Weekday())
	}
	if got := cfg.RateLimit.RateFor("websearch"); got != 0.5 {
		t.Errorf("RateFor(websearch): got %v, want 0.5", got)
	}
	if got := cfg.RateLimit.RateFor("remotive"); got != 2 {
		t.Errorf("RateFor(remotive): got %v, want default 2", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "sources:\n  remotive: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Cache.DefaultTTL != 24*time.Hour {
		t.Errorf("default cache TTL: got %v, want 24h", cfg.Cache.DefaultTTL)
	}
	if cfg.Cache.PopularTTL != 7*24*time.Hour {
		t.Errorf("default popular TTL: got %v, want 168h", cfg.Cache.PopularTTL)
	}
	if cfg.Cache.PopularAccessThreshold != 10 {
		t.Errorf("default popularity threshold: got %d, want 10", cfg.Cache.PopularAccessThreshold)
	}
	if cfg.Retention.Window != 30*24*time.Hour {
		t.Errorf("default retention window: got %v", cfg.Retention.Window)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default server addr: got %q", cfg.Server.Addr)
	}
	if cfg.Scheduler.Timezone != "UTC" {
		t.Errorf("default timezone: got %q", cfg.Scheduler.Timezone)
	}
	if cfg.Search.MaxCalls != 90 {
		t.Errorf("default max_calls: got %d, want 90", cfg.Search.MaxCalls)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SEARCH_KEY", "secret-key")
	path := writeConfig(t, "search:\n  api_key: ${TEST_SEARCH_KEY}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.APIKey != "secret-key" {
		t.Errorf("api_key: got %q, want secret-key", cfg.Search.APIKey)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "popular ttl below default",
			content: "cache:\n  default_ttl: 24h\n  popular_ttl: 1h\n",
			wantErr: "popular_ttl",
		},
		{
			name:    "bad daily hour",
			content: "scheduler:\n  daily_hour: 25\n",
			wantErr: "daily_hour",
		},
		{
			name:    "bad weekday",
			content: "scheduler:\n  weekly_day: Funday\n",
			wantErr: "weekly_day",
		},
		{
			name:    "board without token",
			content: "sources:\n  boards:\n    - name: Acme\n      ats: greenhouse\n      enabled: true\n",
			wantErr: "board_token",
		},
		{
			name:    "unsupported ats",
			content: "sources:\n  boards:\n    - name: Acme\n      ats: taleo\n      board_token: acme\n      enabled: true\n",
			wantErr: "unsupported ats",
		},
		{
			name:    "warm search without keywords",
			content: "searches:\n  - location: Berlin\n",
			wantErr: "keyword",
		},
		{
			name:    "slack without webhook",
			content: "notification:\n  type: slack\n",
			wantErr: "webhook_url",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
