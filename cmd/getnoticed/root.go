package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/adapter"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/config"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/notifier"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/ratelimit"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/retry"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/search"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "getnoticed",
	Short: "Job-posting aggregation engine",
	Long:  "GetNoticed collects postings from job boards and metered web search,\ndeduplicates them, and serves preference-filtered results from a TTL cache.",
	// Default to `serve` so invoking the binary directly runs the daemon.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: GETNOTICED_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > GETNOTICED_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("GETNOTICED_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) notifier.RunNotifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// buildAdapters assembles the decorated source chain in priority order:
// config order decides which source wins when deduplication sees the same
// posting twice. Each raw adapter is wrapped retry -> rate limit -> failsafe
// so one flaky provider cannot sink a batch run.
func buildAdapters(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceAdapter {
	limiter := ratelimit.NewSourceLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.Overrides)

	var raw []model.SourceAdapter
	if cfg.Sources.Remotive {
		raw = append(raw, adapter.NewRemotiveAdapter(httpClient))
	}
	if cfg.Sources.Arbeitnow {
		raw = append(raw, adapter.NewArbeitnowAdapter(httpClient))
	}
	if cfg.Sources.WeWorkRemotely {
		raw = append(raw, adapter.NewWWRAdapter(httpClient))
	}
	for _, b := range cfg.Sources.Boards {
		if !b.Enabled {
			continue
		}
		switch b.ATS {
		case "greenhouse":
			raw = append(raw, adapter.NewGreenhouseAdapter(b.BoardToken, b.Name, httpClient))
		case "lever":
			raw = append(raw, adapter.NewLeverAdapter(b.BoardToken, b.Name, httpClient))
		default:
			logger.Warn("unsupported ATS, skipping", "board", b.Name, "ats", b.ATS)
		}
	}

	adapters := make([]model.SourceAdapter, 0, len(raw))
	for _, a := range raw {
		var wrapped model.SourceAdapter = a
		wrapped = retry.NewRetryAdapter(wrapped, 2, 5*time.Second, logger)
		wrapped = ratelimit.NewRateLimitedAdapter(wrapped, limiter, a.Name())
		wrapped = adapter.NewFailsafeAdapter(wrapped, logger)
		adapters = append(adapters, wrapped)
		logger.Info("registered source", "name", a.Name())
	}
	return adapters
}

// buildSearcher wires the metered web-search orchestrator. With empty
// credentials the orchestrator degrades to a no-op rather than failing.
func buildSearcher(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *search.Orchestrator {
	client := search.NewGoogleClient(cfg.Search.APIKey, cfg.Search.EngineID, httpClient)
	if client.CredentialsMissing() {
		logger.Info("search credentials not configured, web search disabled")
	}
	return search.NewOrchestrator(client, cfg.Search.MaxCalls, cfg.Search.QueriesPerSecond, logger)
}
