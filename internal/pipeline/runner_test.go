package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/config"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/metrics"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/notifier"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAdapter struct {
	name     string
	postings []model.JobPosting
	err      error
	block    bool // wait for ctx cancellation instead of returning
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Fetch(ctx context.Context, _, _ []string) ([]model.JobPosting, error) {
	if a.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return a.postings, a.err
}

type fakeCache struct {
	mu      sync.Mutex
	puts    map[string][]model.JobPosting
	putErr  error
	entries int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{puts: make(map[string][]model.JobPosting)}
}

func (c *fakeCache) Get(context.Context, string) ([]model.JobPosting, error) {
	return nil, model.ErrCacheMiss
}

func (c *fakeCache) Put(_ context.Context, fp string, _ model.SearchParams, postings []model.JobPosting, _ time.Duration) error {
	if c.putErr != nil {
		return c.putErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts[fp] = postings
	c.entries++
	return nil
}

func (c *fakeCache) Touch(context.Context, string) error { return nil }

func (c *fakeCache) EvictExpired(context.Context) (int64, error) { return 0, nil }

func (c *fakeCache) Stats(context.Context) (model.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CacheStats{Entries: c.entries}, nil
}

type fakePostingStore struct {
	mu       sync.Mutex
	inserted []model.JobPosting
}

func (s *fakePostingStore) InsertBatch(_ context.Context, postings []model.JobPosting) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, postings...)
	return len(postings), nil
}

func (s *fakePostingStore) InsertForUser(_ context.Context, _ string, postings []model.JobPosting) (int, error) {
	return len(postings), nil
}

func (s *fakePostingStore) RecentCached(context.Context, int) ([]model.JobPosting, error) {
	return nil, nil
}

func (s *fakePostingStore) DeleteOlderThan(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	outcomes []notifier.RunOutcome
}

func (n *recordingNotifier) NotifyRun(o notifier.RunOutcome) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, o)
	return nil
}

func (n *recordingNotifier) last() (notifier.RunOutcome, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.outcomes) == 0 {
		return notifier.RunOutcome{}, false
	}
	return n.outcomes[len(n.outcomes)-1], true
}

type fakeSearcher struct {
	postings []model.JobPosting
	used     int
}

func (s *fakeSearcher) Run(context.Context, []string, []string) ([]model.JobPosting, error) {
	return s.postings, nil
}

func (s *fakeSearcher) CallsUsed() int { return s.used }

func posting(source, title, company, location string) model.JobPosting {
	return model.JobPosting{
		Source:    source,
		Title:     title,
		Company:   company,
		Location:  location,
		ScrapedAt: time.Now().UTC(),
	}
}

func newTestRunner(adapters []model.SourceAdapter, c *fakeCache, n *recordingNotifier, opts Options) (*Runner, *fakePostingStore) {
	store := &fakePostingStore{}
	searches := []config.WarmSearch{{Keywords: []string{"engineer"}}}
	return NewRunner(adapters, c, store, nil, n, searches, opts, testLogger()), store
}

func TestRunner_FailingSourceDoesNotFailRun(t *testing.T) {
	adapters := []model.SourceAdapter{
		&fakeAdapter{name: "a", postings: []model.JobPosting{
			posting("a", "Backend Engineer", "Acme", "Remote"),
			posting("a", "Data Engineer", "Globex", "Berlin"),
		}},
		&fakeAdapter{name: "b", err: errors.New("upstream down")},
		&fakeAdapter{name: "c", postings: []model.JobPosting{
			posting("c", "Backend Engineer", "Acme", "Remote"), // dup of a's first
			posting("c", "Platform Engineer", "Initech", "NYC"),
			posting("c", "SRE Engineer", "Hooli", "Remote"),
		}},
	}

	cacheStore := newFakeCache()
	notif := &recordingNotifier{}
	runner, store := newTestRunner(adapters, cacheStore, notif, Options{})

	outcome, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcome.State != StateDone {
		t.Errorf("State = %q, want DONE", outcome.State)
	}
	if outcome.Collected != 5 {
		t.Errorf("Collected = %d, want 5", outcome.Collected)
	}
	if outcome.Deduped != 4 {
		t.Errorf("Deduped = %d, want 4 (one duplicate collapsed)", outcome.Deduped)
	}
	if len(store.inserted) != 4 {
		t.Errorf("store got %d postings, want 4", len(store.inserted))
	}
	for _, p := range store.inserted {
		if !p.Cached {
			t.Errorf("posting %q not marked cached", p.Title)
		}
	}
	if got, ok := notif.last(); !ok || got.State != StateDone {
		t.Errorf("notifier outcome = %+v, want DONE", got)
	}
}

func TestRunner_FirstSourceWinsDedup(t *testing.T) {
	adapters := []model.SourceAdapter{
		&fakeAdapter{name: "premium", postings: []model.JobPosting{
			posting("premium", "Staff Engineer", "Acme", "Remote"),
		}},
		&fakeAdapter{name: "fallback", postings: []model.JobPosting{
			posting("fallback", "Staff Engineer", "Acme", "Remote"),
		}},
	}

	runner, store := newTestRunner(adapters, newFakeCache(), &recordingNotifier{}, Options{})
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("got %d postings, want 1", len(store.inserted))
	}
	if store.inserted[0].Source != "premium" {
		t.Errorf("kept source %q, want premium (priority order)", store.inserted[0].Source)
	}
}

func TestRunner_DeadlineFailsRun(t *testing.T) {
	adapters := []model.SourceAdapter{&fakeAdapter{name: "slow", block: true}}
	notif := &recordingNotifier{}
	runner, _ := newTestRunner(adapters, newFakeCache(), notif, Options{
		RunDeadline:    50 * time.Millisecond,
		AdapterTimeout: time.Minute,
	})

	outcome, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from expired run deadline")
	}
	if outcome.State != StateFailed {
		t.Errorf("State = %q, want FAILED", outcome.State)
	}
	if got, ok := notif.last(); !ok || got.State != StateFailed || got.Err == "" {
		t.Errorf("notifier outcome = %+v, want FAILED with error", got)
	}

	status := runner.Status()
	if status.State != StateFailed || status.LastError == "" {
		t.Errorf("status = %+v, want FAILED with last error", status)
	}
}

func TestRunner_CacheWriteFailureIsNonFatal(t *testing.T) {
	adapters := []model.SourceAdapter{
		&fakeAdapter{name: "a", postings: []model.JobPosting{
			posting("a", "Backend Engineer", "Acme", "Remote"),
		}},
	}
	cacheStore := newFakeCache()
	cacheStore.putErr = errors.New("disk full")

	runner, store := newTestRunner(adapters, cacheStore, &recordingNotifier{}, Options{})
	outcome, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should not fail on cache write error, got %v", err)
	}
	if outcome.State != StateDone {
		t.Errorf("State = %q, want DONE", outcome.State)
	}
	if outcome.Cached != 0 {
		t.Errorf("Cached = %d, want 0", outcome.Cached)
	}
	if len(store.inserted) != 1 {
		t.Errorf("postings store should still receive the batch, got %d", len(store.inserted))
	}
}

func TestRunner_SearchHitsJoinTheBatch(t *testing.T) {
	adapters := []model.SourceAdapter{
		&fakeAdapter{name: "a", postings: []model.JobPosting{
			posting("a", "Backend Engineer", "Acme", "Remote"),
		}},
	}
	searcher := &fakeSearcher{
		postings: []model.JobPosting{
			posting("websearch", "Forward Deployed Engineer", "Globex", "Remote"),
			posting("websearch", "Backend Engineer", "Acme", "Remote"), // dup of adapter hit
		},
		used: 7,
	}

	cacheStore := newFakeCache()
	notif := &recordingNotifier{}
	runner, _ := newTestRunner(adapters, cacheStore, notif, Options{Searcher: searcher})

	outcome, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Deduped != 2 {
		t.Errorf("Deduped = %d, want 2 (search dup loses to adapter)", outcome.Deduped)
	}
	if outcome.SearchCalls != 7 {
		t.Errorf("SearchCalls = %d, want 7", outcome.SearchCalls)
	}
}

func TestRunner_WarmSearchSubsetIsCached(t *testing.T) {
	adapters := []model.SourceAdapter{
		&fakeAdapter{name: "a", postings: []model.JobPosting{
			posting("a", "Backend Engineer", "Acme", "Remote"),
			posting("a", "Product Designer", "Acme", "Remote"),
		}},
	}

	cacheStore := newFakeCache()
	runner, _ := newTestRunner(adapters, cacheStore, &recordingNotifier{}, Options{})

	outcome, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Warm search keyword is "engineer": the designer role stays out of
	// the cache entry but still lands in the postings store.
	if outcome.Cached != 1 {
		t.Errorf("Cached = %d, want 1", outcome.Cached)
	}
	if len(cacheStore.puts) != 1 {
		t.Fatalf("expected 1 cache entry, got %d", len(cacheStore.puts))
	}
	for _, subset := range cacheStore.puts {
		if len(subset) != 1 || subset[0].Title != "Backend Engineer" {
			t.Errorf("cached subset = %+v", subset)
		}
	}
}
