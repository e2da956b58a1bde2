package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/cache"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/metrics"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/pipeline"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one batch run and exit",
	Long:  "Collects from all enabled sources, deduplicates, warms the cache, then exits.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	metrics.Init()

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	postingStore, err := store.NewPostingStore(db)
	if err != nil {
		logger.Error("failed to init posting store", "error", err)
		os.Exit(1)
	}
	prefStore, err := store.NewPreferenceStore(db)
	if err != nil {
		logger.Error("failed to init preference store", "error", err)
		os.Exit(1)
	}
	searchCache, err := cache.NewSQLiteCache(db, cfg.Cache.PopularTTL, cfg.Cache.PopularAccessThreshold)
	if err != nil {
		logger.Error("failed to init cache", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	adapters := buildAdapters(cfg, httpClient, logger)
	if len(adapters) == 0 {
		logger.Error("no sources enabled")
		os.Exit(1)
	}
	searcher := buildSearcher(cfg, httpClient, logger)
	n := setupNotifier(cfg, httpClient, logger)

	runner := pipeline.NewRunner(adapters, searchCache, postingStore, prefStore, n, cfg.Searches, pipeline.Options{
		Searcher:       searcher,
		CacheTTL:       cfg.Cache.DefaultTTL,
		RunDeadline:    cfg.Pipeline.RunDeadline,
		AdapterTimeout: cfg.Pipeline.AdapterTimeout,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := runner.Run(ctx)
	if err != nil {
		logger.Error("batch run failed", "run_id", outcome.RunID, "error", err)
		os.Exit(1)
	}

	logger.Info("batch run complete",
		"run_id", outcome.RunID,
		"collected", outcome.Collected,
		"deduped", outcome.Deduped,
		"cached", outcome.Cached,
		"search_calls", outcome.SearchCalls,
		"duration", outcome.Duration().String(),
	)
	return nil
}
