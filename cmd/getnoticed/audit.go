package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/audit"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/config"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/prefs"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/store"
)

var auditUser string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse postings interactively (TUI)",
	Long:  "Shows the source picker TUI, fetches that source, then opens the split-pane audit view comparing raw postings against what the preference filter keeps.",
	RunE:  runAuditCmd,
}

func init() {
	auditCmd.Flags().StringVar(&auditUser, "user", "", "audit against this user's stored preference (default: first warm search from config)")
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	pref, err := auditPreference(cfg, auditUser)
	if err != nil {
		logger.Error("failed to resolve audit preference", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	adapters := buildAdapters(cfg, httpClient, logger)
	if len(adapters) == 0 {
		fmt.Println("No sources enabled in config.")
		return nil
	}

	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}

	for {
		choice, err := audit.RunSourcePicker(names)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		a := adapters[choice]

		postings, err := audit.RunLoader(a.Name(), func(ctx context.Context) ([]model.JobPosting, error) {
			return a.Fetch(ctx, pref.Keywords, pref.Locations)
		})
		if err != nil {
			fmt.Printf("Error fetching postings: %v\n", err)
			continue
		}

		matched := prefs.Prioritize(prefs.Filter(postings, pref), pref.TargetCompanies)

		wantQuit, err := audit.RunAuditTUI(postings, matched, pref)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop back to the picker
	}
}

// auditPreference resolves the preference to audit against: a stored user
// preference when --user is given, otherwise a synthetic one built from the
// first warm search in config.
func auditPreference(cfg *config.Config, userID string) (model.UserPreference, error) {
	if userID != "" {
		db, err := store.Open(cfg.Database.Path)
		if err != nil {
			return model.UserPreference{}, fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		prefStore, err := store.NewPreferenceStore(db)
		if err != nil {
			return model.UserPreference{}, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return prefStore.Get(ctx, userID)
	}

	if len(cfg.Searches) == 0 {
		return model.UserPreference{}, fmt.Errorf("no --user given and no warm searches in config")
	}
	ws := cfg.Searches[0]
	pref := model.UserPreference{Keywords: ws.Keywords}
	if ws.Remote {
		pref.Locations = append(pref.Locations, "Remote")
	}
	if ws.Location != "" {
		pref.Locations = append(pref.Locations, ws.Location)
	}
	return pref, nil
}
