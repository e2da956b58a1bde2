package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// Open opens (or creates) the SQLite database at dbPath with WAL enabled so
// readers are never blocked by the batch writer.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	return db, nil
}

// Ensure PostingStore implements model.PostingStore.
var _ model.PostingStore = (*PostingStore)(nil)

// PostingStore persists job postings. Rows are append/delete only: batch
// rows carry no owning user, live-scrape rows are user-scoped.
type PostingStore struct {
	db *sql.DB
}

// NewPostingStore ensures the postings table exists.
func NewPostingStore(db *sql.DB) (*PostingStore, error) {
	createTable := `CREATE TABLE IF NOT EXISTS postings (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		source          TEXT NOT NULL,
		external_id     TEXT NOT NULL DEFAULT '',
		title           TEXT NOT NULL,
		company         TEXT NOT NULL,
		location        TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		url             TEXT NOT NULL,
		posted_at       INTEGER,
		salary          TEXT NOT NULL DEFAULT '',
		employment_type TEXT NOT NULL DEFAULT '',
		scraped_at      INTEGER NOT NULL,
		cached          INTEGER NOT NULL,
		user_id         TEXT NOT NULL DEFAULT ''
	)`
	if _, err := db.Exec(createTable); err != nil {
		return nil, fmt.Errorf("creating postings table: %w", err)
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_postings_scraped ON postings(scraped_at)"); err != nil {
		return nil, fmt.Errorf("indexing postings table: %w", err)
	}

	return &PostingStore{db: db}, nil
}

// InsertBatch appends batch-cached postings (no owning user). Returns the
// number of rows inserted.
func (s *PostingStore) InsertBatch(ctx context.Context, postings []model.JobPosting) (int, error) {
	return s.insert(ctx, postings, "", true)
}

// InsertForUser appends live-scraped postings owned by the given user.
func (s *PostingStore) InsertForUser(ctx context.Context, userID string, postings []model.JobPosting) (int, error) {
	return s.insert(ctx, postings, userID, false)
}

func (s *PostingStore) insert(ctx context.Context, postings []model.JobPosting, userID string, cached bool) (int, error) {
	inserted := 0
	for _, p := range postings {
		var postedAt any
		if p.PostedAt != nil {
			postedAt = p.PostedAt.Unix()
		}
		scrapedAt := p.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now().UTC()
		}

		_, err := s.db.ExecContext(ctx, `INSERT INTO postings
			(source, external_id, title, company, location, description, url, posted_at, salary, employment_type, scraped_at, cached, user_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Source, p.ExternalID, p.Title, p.Company, p.Location, p.Description, p.URL,
			postedAt, p.Salary, p.EmploymentType, scrapedAt.Unix(), boolToInt(cached), userID,
		)
		if err != nil {
			return inserted, fmt.Errorf("inserting posting %q: %w", p.Title, err)
		}
		inserted++
	}
	return inserted, nil
}

// RecentCached returns the most recently scraped batch-cached postings.
func (s *PostingStore) RecentCached(ctx context.Context, limit int) ([]model.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		source, external_id, title, company, location, description, url, posted_at, salary, employment_type, scraped_at, cached
		FROM postings WHERE cached = 1 ORDER BY scraped_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent cached postings: %w", err)
	}
	defer rows.Close()

	var postings []model.JobPosting
	for rows.Next() {
		var (
			p         model.JobPosting
			postedAt  sql.NullInt64
			scrapedAt int64
			cached    int
		)
		if err := rows.Scan(&p.Source, &p.ExternalID, &p.Title, &p.Company, &p.Location,
			&p.Description, &p.URL, &postedAt, &p.Salary, &p.EmploymentType, &scrapedAt, &cached); err != nil {
			return nil, fmt.Errorf("scanning posting row: %w", err)
		}
		if postedAt.Valid {
			t := time.Unix(postedAt.Int64, 0).UTC()
			p.PostedAt = &t
		}
		p.ScrapedAt = time.Unix(scrapedAt, 0).UTC()
		p.Cached = cached == 1
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

// DeleteOlderThan removes postings scraped before the retention window.
// Independent of cache TTL; run by the weekly cleanup.
func (s *PostingStore) DeleteOlderThan(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().Add(-window).Unix()
	res, err := s.db.ExecContext(ctx, "DELETE FROM postings WHERE scraped_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting postings older than %v: %w", window, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
