package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// Ensure SQLiteCache implements model.CacheStore.
var _ model.CacheStore = (*SQLiteCache)(nil)

// SQLiteCache is a TTL-indexed search cache keyed by fingerprint. Each entry
// is written with a single upsert statement, so readers never observe a
// partially written entry.
type SQLiteCache struct {
	db               *sql.DB
	popularTTL       time.Duration
	popularThreshold int
	now              func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewSQLiteCache opens (or creates) the cache table on the given database.
// Entries whose access count reaches popularThreshold are re-written with
// popularTTL instead of the caller-supplied TTL.
func NewSQLiteCache(db *sql.DB, popularTTL time.Duration, popularThreshold int) (*SQLiteCache, error) {
	createTable := `CREATE TABLE IF NOT EXISTS search_cache (
		fingerprint   TEXT PRIMARY KEY,
		keywords      TEXT NOT NULL,
		location      TEXT NOT NULL,
		remote        INTEGER NOT NULL,
		postings      TEXT NOT NULL,
		created_at    INTEGER NOT NULL,
		expires_at    INTEGER NOT NULL,
		access_count  INTEGER NOT NULL DEFAULT 0,
		last_accessed INTEGER NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		return nil, fmt.Errorf("creating search_cache table: %w", err)
	}

	return &SQLiteCache{
		db:               db,
		popularTTL:       popularTTL,
		popularThreshold: popularThreshold,
		now:              time.Now,
	}, nil
}

// Get returns the cached postings for the fingerprint, or ErrCacheMiss if
// the entry is absent or expired. Expired entries are never returned.
func (c *SQLiteCache) Get(ctx context.Context, fingerprint string) ([]model.JobPosting, error) {
	var (
		postingsJSON string
		expiresAt    int64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT postings, expires_at FROM search_cache WHERE fingerprint = ?",
		fingerprint,
	).Scan(&postingsJSON, &expiresAt)
	if err == sql.ErrNoRows {
		c.misses.Add(1)
		return nil, model.ErrCacheMiss
	}
	if err != nil {
		c.misses.Add(1)
		return nil, fmt.Errorf("cache read for %s: %w", fingerprint, err)
	}

	if !c.now().Before(time.Unix(expiresAt, 0)) {
		c.misses.Add(1)
		return nil, model.ErrCacheMiss
	}

	var postings []model.JobPosting
	if err := json.Unmarshal([]byte(postingsJSON), &postings); err != nil {
		c.misses.Add(1)
		return nil, fmt.Errorf("cache decode for %s: %w", fingerprint, err)
	}

	c.hits.Add(1)
	return postings, nil
}

// Put upserts the entry for the fingerprint, resetting expiry and access
// stats. If the entry being replaced was popular (access count at or above
// the configured threshold), the extended popular TTL applies instead.
func (c *SQLiteCache) Put(ctx context.Context, fingerprint string, params model.SearchParams, postings []model.JobPosting, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache write for %s: ttl must be positive, got %v", fingerprint, ttl)
	}

	var prevAccess int
	err := c.db.QueryRowContext(ctx,
		"SELECT access_count FROM search_cache WHERE fingerprint = ?",
		fingerprint,
	).Scan(&prevAccess)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("cache write for %s: %w", fingerprint, err)
	}
	if c.popularThreshold > 0 && prevAccess >= c.popularThreshold && c.popularTTL > ttl {
		ttl = c.popularTTL
	}

	postingsJSON, err := json.Marshal(postings)
	if err != nil {
		return fmt.Errorf("cache write for %s: %w", fingerprint, err)
	}

	now := c.now()
	_, err = c.db.ExecContext(ctx, `INSERT OR REPLACE INTO search_cache
		(fingerprint, keywords, location, remote, postings, created_at, expires_at, access_count, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		fingerprint,
		strings.Join(params.Keywords, ","),
		params.Location,
		boolToInt(params.Remote),
		string(postingsJSON),
		now.Unix(),
		now.Add(ttl).Unix(),
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache write for %s: %w", fingerprint, err)
	}
	return nil
}

// Touch increments the access count and refreshes the last-accessed time.
// Called on hits to feed the popularity signal.
func (c *SQLiteCache) Touch(ctx context.Context, fingerprint string) error {
	_, err := c.db.ExecContext(ctx,
		"UPDATE search_cache SET access_count = access_count + 1, last_accessed = ? WHERE fingerprint = ?",
		c.now().Unix(), fingerprint,
	)
	if err != nil {
		return fmt.Errorf("cache touch for %s: %w", fingerprint, err)
	}
	return nil
}

// EvictExpired bulk-removes entries past expiry and returns how many were
// deleted. Run by the weekly cleanup.
func (c *SQLiteCache) EvictExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM search_cache WHERE expires_at <= ?",
		c.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("evicting expired cache entries: %w", err)
	}
	n, _ := res.RowsAffected()
	c.evictions.Add(n)
	return n, nil
}

// Stats reports hit/miss telemetry for this process plus the current entry count.
func (c *SQLiteCache) Stats(ctx context.Context) (model.CacheStats, error) {
	var entries int64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_cache").Scan(&entries); err != nil {
		return model.CacheStats{}, fmt.Errorf("counting cache entries: %w", err)
	}
	return model.CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Entries:   entries,
		Evictions: c.evictions.Load(),
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
