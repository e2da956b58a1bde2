package model

import (
	"context"
	"strings"
	"time"
)

// Closed employment-type vocabulary. Adapters map provider-specific
// values onto these; anything unrecognized stays empty.
const (
	EmploymentFullTime   = "Full-time"
	EmploymentPartTime   = "Part-time"
	EmploymentContract   = "Contract"
	EmploymentInternship = "Internship"
)

// JobPosting is the unified representation of a job listing from any source.
// Postings are immutable once created: they are inserted and eventually
// deleted by retention cleanup, never mutated.
type JobPosting struct {
	Source         string // adapter name (remotive, greenhouse, websearch, ...)
	ExternalID     string // provider-side id, may be empty for search hits
	Title          string
	Company        string
	Location       string // free text, may encode "Remote"
	Description    string
	URL            string     // canonical apply/details link
	PostedAt       *time.Time // nullable (not all providers expose this)
	Salary         string     // free text, optionally parseable
	EmploymentType string
	ScrapedAt      time.Time // our clock
	Cached         bool      // true for batch-cached rows, false for live user scrapes
}

// DedupKey returns the identity key for deduplication: two postings sharing
// the lower-cased title|company|location tuple are the same entity.
func (p JobPosting) DedupKey() string {
	return strings.ToLower(p.Title) + "|" + strings.ToLower(p.Company) + "|" + strings.ToLower(p.Location)
}

// UserPreference is the read-only search criteria owned by the external
// preference store.
type UserPreference struct {
	UserID          string
	Keywords        []string
	Locations       []string
	TargetCompanies []string
	EmploymentTypes []string
	MinSalary       int // annual floor; 0 means unset
}

// SearchParams are the normalized inputs a cache fingerprint is derived from.
type SearchParams struct {
	Keywords []string
	Location string
	Remote   bool
}

// CacheStats is the aggregate telemetry reported by a cache store.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Entries   int64 `json:"entries"`
	Evictions int64 `json:"evictions"`
}

// SourceAdapter fetches postings from one external provider and normalizes
// them into JobPosting. Implementations encapsulate provider auth, formats,
// and server-side filtering.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, keywords, locations []string) ([]JobPosting, error)
}

// CacheStore is the TTL-indexed search cache shared between the batch writer
// and concurrent user reads. Get returns ErrCacheMiss for absent or expired
// entries; it never returns stale data.
type CacheStore interface {
	Get(ctx context.Context, fingerprint string) ([]JobPosting, error)
	Put(ctx context.Context, fingerprint string, params SearchParams, postings []JobPosting, ttl time.Duration) error
	Touch(ctx context.Context, fingerprint string) error
	EvictExpired(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (CacheStats, error)
}

// PostingStore persists postings: append/delete only, distinguishing
// batch-cached rows (no owning user) from user-scoped live scrapes.
type PostingStore interface {
	InsertBatch(ctx context.Context, postings []JobPosting) (int, error)
	InsertForUser(ctx context.Context, userID string, postings []JobPosting) (int, error)
	RecentCached(ctx context.Context, limit int) ([]JobPosting, error)
	DeleteOlderThan(ctx context.Context, window time.Duration) (int64, error)
}

// PreferenceStore is owned by an external collaborator; this subsystem only
// reads from it.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (UserPreference, error)
	// TargetCompanies returns the deduplicated union of target companies
	// across all users, used to drive the web-search orchestrator.
	TargetCompanies(ctx context.Context) ([]string, error)
}

// FitScorer scores how well a filtered job list fits a user's CV. It is an
// external black box; no implementation lives in this repository.
type FitScorer interface {
	Score(ctx context.Context, userID string, postings []JobPosting) (float64, error)
}
