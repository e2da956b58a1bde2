package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/cache"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	searchCache, err := cache.NewSQLiteCache(db, cfg.Cache.PopularTTL, cfg.Cache.PopularAccessThreshold)
	if err != nil {
		logger.Error("failed to init cache", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := searchCache.Stats(ctx)
	if err != nil {
		logger.Error("failed to read cache stats", "error", err)
		os.Exit(1)
	}

	fmt.Printf("entries:   %d\n", stats.Entries)
	fmt.Printf("hits:      %d\n", stats.Hits)
	fmt.Printf("misses:    %d\n", stats.Misses)
	fmt.Printf("evictions: %d\n", stats.Evictions)
	if total := stats.Hits + stats.Misses; total > 0 {
		fmt.Printf("hit rate:  %.1f%%\n", float64(stats.Hits)/float64(total)*100)
	}
	return nil
}
