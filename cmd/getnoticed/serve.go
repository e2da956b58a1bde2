package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/cache"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/httpapi"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/metrics"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/pipeline"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/scheduler"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/service"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the aggregation daemon",
	Long:  "Starts the batch scheduler and the HTTP API; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"db", cfg.Database.Path,
		"cache_ttl", cfg.Cache.DefaultTTL.String(),
		"warm_searches", len(cfg.Searches),
		"search_max_calls", cfg.Search.MaxCalls,
	)

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

	sched := scheduler.NewScheduler(runner, searchCache, postingStore, cfg.Retention.Window, cfg.Scheduler, logger)
	sched.Start()
	defer sched.Stop()

	svc := service.NewService(adapters, searchCache, postingStore, prefStore, runner, searcher,
		cfg.Search.MaxCalls, cfg.Cache.DefaultTTL, cfg.Pipeline.AdapterTimeout, logger)

	api := httpapi.NewServer(svc, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}

	logger.Info("goodbye")
	return nil
}
