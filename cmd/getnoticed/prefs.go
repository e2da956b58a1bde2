package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/store"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage user preferences",
}

var (
	prefUser      string
	prefKeywords  []string
	prefLocations []string
	prefCompanies []string
	prefTypes     []string
	prefMinSalary int
)

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or replace a user's preference",
	RunE:  runPrefsSet,
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a user's stored preference",
	RunE:  runPrefsShow,
}

func init() {
	prefsSetCmd.Flags().StringVar(&prefUser, "user", "", "user id (required)")
	prefsSetCmd.Flags().StringSliceVar(&prefKeywords, "keywords", nil, "title/description keywords")
	prefsSetCmd.Flags().StringSliceVar(&prefLocations, "locations", nil, "acceptable locations (\"Remote\" included)")
	prefsSetCmd.Flags().StringSliceVar(&prefCompanies, "companies", nil, "target companies, ranked first in results")
	prefsSetCmd.Flags().StringSliceVar(&prefTypes, "types", nil, "employment types (Full-time, Contract, ...)")
	prefsSetCmd.Flags().IntVar(&prefMinSalary, "min-salary", 0, "annual salary floor, 0 to disable")
	_ = prefsSetCmd.MarkFlagRequired("user")

	prefsShowCmd.Flags().StringVar(&prefUser, "user", "", "user id (required)")
	_ = prefsShowCmd.MarkFlagRequired("user")

	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsShowCmd)
	rootCmd.AddCommand(prefsCmd)
}

func openPreferenceStore(logger *slog.Logger) (*store.PreferenceStore, func()) {
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
	prefStore, err := store.NewPreferenceStore(db)
	if err != nil {
		db.Close()
		logger.Error("failed to init preference store", "error", err)
		os.Exit(1)
	}
	return prefStore, func() { db.Close() }
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	prefStore, closeDB := openPreferenceStore(logger)
	defer closeDB()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pref := model.UserPreference{
		UserID:          prefUser,
		Keywords:        prefKeywords,
		Locations:       prefLocations,
		TargetCompanies: prefCompanies,
		EmploymentTypes: prefTypes,
		MinSalary:       prefMinSalary,
	}
	if err := prefStore.Put(ctx, pref); err != nil {
		logger.Error("failed to save preference", "user", prefUser, "error", err)
		os.Exit(1)
	}
	logger.Info("preference saved", "user", prefUser)
	return nil
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	prefStore, closeDB := openPreferenceStore(logger)
	defer closeDB()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pref, err := prefStore.Get(ctx, prefUser)
	if err != nil {
		logger.Error("failed to load preference", "user", prefUser, "error", err)
		os.Exit(1)
	}

	fmt.Printf("user:       %s\n", pref.UserID)
	fmt.Printf("keywords:   %s\n", strings.Join(pref.Keywords, ", "))
	fmt.Printf("locations:  %s\n", strings.Join(pref.Locations, ", "))
	fmt.Printf("companies:  %s\n", strings.Join(pref.TargetCompanies, ", "))
	fmt.Printf("types:      %s\n", strings.Join(pref.EmploymentTypes, ", "))
	if pref.MinSalary > 0 {
		fmt.Printf("min salary: %d\n", pref.MinSalary)
	}
	return nil
}
