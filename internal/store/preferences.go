package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// Ensure PreferenceStore implements model.PreferenceStore.
var _ model.PreferenceStore = (*PreferenceStore)(nil)

// PreferenceStore is the SQLite-backed preference reader used by the CLI.
// In deployments where preferences live elsewhere, any model.PreferenceStore
// can be injected instead.
type PreferenceStore struct {
	db *sql.DB
}

// NewPreferenceStore ensures the preferences table exists.
func NewPreferenceStore(db *sql.DB) (*PreferenceStore, error) {
	createTable := `CREATE TABLE IF NOT EXISTS preferences (
		user_id          TEXT PRIMARY KEY,
		keywords         TEXT NOT NULL DEFAULT '[]',
		locations        TEXT NOT NULL DEFAULT '[]',
		target_companies TEXT NOT NULL DEFAULT '[]',
		employment_types TEXT NOT NULL DEFAULT '[]',
		min_salary       INTEGER NOT NULL DEFAULT 0
	)`
	if _, err := db.Exec(createTable); err != nil {
		return nil, fmt.Errorf("creating preferences table: %w", err)
	}
	return &PreferenceStore{db: db}, nil
}

// Get returns the stored preference for the user.
func (s *PreferenceStore) Get(ctx context.Context, userID string) (model.UserPreference, error) {
	var (
		pref                                           model.UserPreference
		keywords, locations, companies, employmentSets string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT keywords, locations, target_companies, employment_types, min_salary FROM preferences WHERE user_id = ?",
		userID,
	).Scan(&keywords, &locations, &companies, &employmentSets, &pref.MinSalary)
	if err == sql.ErrNoRows {
		return model.UserPreference{}, fmt.Errorf("no preference for user %s: %w", userID, model.ErrNotFound)
	}
	if err != nil {
		return model.UserPreference{}, fmt.Errorf("reading preference for %s: %w", userID, err)
	}

	pref.UserID = userID
	fields := []struct {
		raw string
		dst *[]string
	}{
		{keywords, &pref.Keywords},
		{locations, &pref.Locations},
		{companies, &pref.TargetCompanies},
		{employmentSets, &pref.EmploymentTypes},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return model.UserPreference{}, fmt.Errorf("decoding preference for %s: %w", userID, err)
		}
	}
	return pref, nil
}

// Put upserts a preference row.
func (s *PreferenceStore) Put(ctx context.Context, pref model.UserPreference) error {
	encode := func(v []string) string {
		if v == nil {
			v = []string{}
		}
		b, _ := json.Marshal(v)
		return string(b)
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO preferences
		(user_id, keywords, locations, target_companies, employment_types, min_salary)
		VALUES (?, ?, ?, ?, ?, ?)`,
		pref.UserID, encode(pref.Keywords), encode(pref.Locations),
		encode(pref.TargetCompanies), encode(pref.EmploymentTypes), pref.MinSalary,
	)
	if err != nil {
		return fmt.Errorf("writing preference for %s: %w", pref.UserID, err)
	}
	return nil
}

// TargetCompanies returns the deduplicated union of target companies across
// all users, preserving first-seen casing.
func (s *PreferenceStore) TargetCompanies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT target_companies FROM preferences")
	if err != nil {
		return nil, fmt.Errorf("querying target companies: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var companies []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning target companies: %w", err)
		}
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("decoding target companies: %w", err)
		}
		for _, c := range list {
			key := strings.ToLower(strings.TrimSpace(c))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			companies = append(companies, strings.TrimSpace(c))
		}
	}
	return companies, rows.Err()
}
