package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var checkKeywords []string

var checkCmd = &cobra.Command{
	Use:   "check [source]",
	Short: "Fetch from sources once, print postings, exit",
	Long:  "One-shot fetch: pulls each enabled source (or just the named one), prints what came back, exits. Writes nothing.",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkKeywords, "keywords", nil, "keywords to filter by (default: all postings)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	adapters := buildAdapters(cfg, httpClient, logger)
	if len(adapters) == 0 {
		logger.Error("no sources enabled")
		os.Exit(1)
	}

	var only string
	if len(args) > 0 {
		only = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	matchedSource := false
	for _, a := range adapters {
		if only != "" && a.Name() != only {
			continue
		}
		matchedSource = true

		fetchCtx, cancel := context.WithTimeout(ctx, cfg.Pipeline.AdapterTimeout)
		postings, err := a.Fetch(fetchCtx, checkKeywords, nil)
		cancel()
		if err != nil {
			logger.Error("fetch failed", "source", a.Name(), "error", err)
			continue
		}

		fmt.Printf("%s: %d postings\n", a.Name(), len(postings))
		for _, p := range postings {
			fmt.Printf("  %-50s %-25s %s\n", truncate(p.Title, 50), truncate(p.Company, 25), p.Location)
		}
	}

	if !matchedSource {
		logger.Error("no enabled source matches", "source", only)
		os.Exit(1)
	}

	logger.Info("check complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
