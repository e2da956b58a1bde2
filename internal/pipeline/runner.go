// Package pipeline drives the scheduled batch collection run: fan out over
// source adapters, merge with the web-search orchestrator, deduplicate, and
// write the results to the cache and the postings store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/cache"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/config"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/dedup"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/metrics"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/notifier"
)

// Run states. A run always ends in StateDone or StateFailed; between runs
// the runner sits in StateIdle.
const (
	StateIdle       = "IDLE"
	StateCollecting = "COLLECTING"
	StateDeduping   = "DEDUPING"
	StateCaching    = "CACHING"
	StateDone       = "DONE"
	StateFailed     = "FAILED"
)

// WebSearcher is the sequential, quota-metered search pass that runs after
// the adapter fan-out.
type WebSearcher interface {
	Run(ctx context.Context, companies, keywords []string) ([]model.JobPosting, error)
	CallsUsed() int
}

// Status is a snapshot of the runner for health reporting.
type Status struct {
	State     string    `json:"state"`
	LastRunID string    `json:"last_run_id,omitempty"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Runner executes one batch run at a time. Adapters are listed in priority
// order: when two sources yield the same posting, the earlier adapter's copy
// wins deduplication.
type Runner struct {
	adapters  []model.SourceAdapter
	searcher  WebSearcher // nil disables the web-search pass
	cache     model.CacheStore
	store     model.PostingStore
	prefs     model.PreferenceStore
	notifier  notifier.RunNotifier
	searches  []config.WarmSearch
	ttl       time.Duration
	deadline  time.Duration
	perSource time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	status Status
}

// Options carries the optional knobs for NewRunner; zero values fall back to
// the configuration defaults.
type Options struct {
	Searcher       WebSearcher
	CacheTTL       time.Duration
	RunDeadline    time.Duration
	AdapterTimeout time.Duration
}

// NewRunner wires a batch runner. Adapter order is priority order.
func NewRunner(
	adapters []model.SourceAdapter,
	cacheStore model.CacheStore,
	postingStore model.PostingStore,
	prefStore model.PreferenceStore,
	runNotifier notifier.RunNotifier,
	searches []config.WarmSearch,
	opts Options,
	logger *slog.Logger,
) *Runner {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.RunDeadline <= 0 {
		opts.RunDeadline = 10 * time.Minute
	}
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = 60 * time.Second
	}
	return &Runner{
		adapters:  adapters,
		searcher:  opts.Searcher,
		cache:     cacheStore,
		store:     postingStore,
		prefs:     prefStore,
		notifier:  runNotifier,
		searches:  searches,
		ttl:       opts.CacheTTL,
		deadline:  opts.RunDeadline,
		perSource: opts.AdapterTimeout,
		logger:    logger,
		status:    Status{State: StateIdle},
	}
}

// Status returns a snapshot of the runner's current state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) setState(runID, state string) {
	r.mu.Lock()
	from := r.status.State
	r.status.State = state
	r.status.LastRunID = runID
	r.mu.Unlock()
	r.logger.Info("run state changed", "run_id", runID, "from", from, "to", state)
}

// Run executes one full batch run and reports the outcome to the notifier.
// The returned error is non-nil only for FAILED runs; per-source failures
// and cache write failures degrade the run without failing it.
func (r *Runner) Run(ctx context.Context) (notifier.RunOutcome, error) {
	runID := uuid.NewString()
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	outcome := notifier.RunOutcome{RunID: runID, Started: started}

	collected, err := r.collect(ctx, runID)
	if err != nil {
		return r.fail(outcome, err)
	}
	outcome.Collected = len(collected)

	r.setState(runID, StateDeduping)
	deduped := dedup.Dedupe(collected)
	outcome.Deduped = len(deduped)
	if err := ctx.Err(); err != nil {
		return r.fail(outcome, fmt.Errorf("run deadline: %w", err))
	}

	r.setState(runID, StateCaching)
	outcome.Cached = r.writeCache(ctx, runID, deduped)
	if err := ctx.Err(); err != nil {
		return r.fail(outcome, fmt.Errorf("run deadline: %w", err))
	}

	outcome.State = StateDone
	outcome.Finished = time.Now()
	r.finish(runID, StateDone, nil, outcome)
	return outcome, nil
}

// collect fans out over the adapters concurrently, then runs the sequential
// web-search pass. The result keeps adapter priority order, with search hits
// last.
func (r *Runner) collect(ctx context.Context, runID string) ([]model.JobPosting, error) {
	r.setState(runID, StateCollecting)

	keywords, locations := r.collectionTerms()

	results := make([][]model.JobPosting, len(r.adapters))
	var g errgroup.Group
	for i, a := range r.adapters {
		i, a := i, a
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, r.perSource)
			defer cancel()

			postings, err := a.Fetch(fctx, keywords, locations)
			if err != nil {
				// Best effort: a failing source must not cancel siblings.
				r.logger.Warn("source fetch failed", "run_id", runID, "source", a.Name(), "error", err)
				metrics.ObserveFetch(a.Name(), "error", 0)
				return nil
			}
			metrics.ObserveFetch(a.Name(), "success", len(postings))
			results[i] = postings
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run deadline: %w", err)
	}

	var collected []model.JobPosting
	for _, batch := range results {
		collected = append(collected, batch...)
	}

	if r.searcher != nil {
		companies, err := r.targetCompanies(ctx)
		if err != nil {
			r.logger.Warn("loading target companies failed, running generic sweep", "run_id", runID, "error", err)
		}
		hits, err := r.searcher.Run(ctx, companies, keywords)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("run deadline: %w", ctx.Err())
			}
			r.logger.Warn("web-search pass failed", "run_id", runID, "error", err)
		}
		metrics.ObserveSearchCalls(r.searcher.CallsUsed())
		collected = append(collected, hits...)
	}

	return collected, nil
}

// writeCache stores one cache entry per configured search plus the full
// batch in the postings store. Write failures are logged, never fatal.
func (r *Runner) writeCache(ctx context.Context, runID string, deduped []model.JobPosting) int {
	for i := range deduped {
		deduped[i].Cached = true
	}

	cached := 0
	for _, ws := range r.searches {
		params := model.SearchParams{Keywords: ws.Keywords, Location: ws.Location, Remote: ws.Remote}
		subset := matchingPostings(deduped, ws)
		fp := cache.Fingerprint(params)
		if err := r.cache.Put(ctx, fp, params, subset, r.ttl); err != nil {
			r.logger.Warn("cache write failed", "run_id", runID, "fingerprint", fp, "error", err)
			continue
		}
		cached += len(subset)
	}

	if r.store != nil {
		if _, err := r.store.InsertBatch(ctx, deduped); err != nil {
			r.logger.Warn("postings store write failed", "run_id", runID, "error", err)
		}
	}
	return cached
}

func (r *Runner) fail(outcome notifier.RunOutcome, err error) (notifier.RunOutcome, error) {
	outcome.State = StateFailed
	outcome.Err = err.Error()
	outcome.Finished = time.Now()
	r.finish(outcome.RunID, StateFailed, err, outcome)
	return outcome, err
}

func (r *Runner) finish(runID, state string, err error, outcome notifier.RunOutcome) {
	if r.searcher != nil {
		outcome.SearchCalls = r.searcher.CallsUsed()
	}

	r.mu.Lock()
	r.status.State = state
	r.status.LastRunID = runID
	r.status.LastRun = outcome.Finished
	if err != nil {
		r.status.LastError = err.Error()
	} else {
		r.status.LastError = ""
	}
	r.mu.Unlock()

	metrics.ObserveRun(state, outcome.Duration())
	if r.notifier != nil {
		if nerr := r.notifier.NotifyRun(outcome); nerr != nil {
			r.logger.Error("run notification failed", "run_id", runID, "error", nerr)
		}
	}
}

// collectionTerms derives the union of keywords and locations across the
// configured searches, deduplicated case-insensitively.
func (r *Runner) collectionTerms() (keywords, locations []string) {
	seenKW := make(map[string]struct{})
	seenLoc := make(map[string]struct{})
	for _, ws := range r.searches {
		for _, kw := range ws.Keywords {
			k := strings.ToLower(strings.TrimSpace(kw))
			if k == "" {
				continue
			}
			if _, ok := seenKW[k]; !ok {
				seenKW[k] = struct{}{}
				keywords = append(keywords, kw)
			}
		}
		if ws.Location != "" {
			l := strings.ToLower(ws.Location)
			if _, ok := seenLoc[l]; !ok {
				seenLoc[l] = struct{}{}
				locations = append(locations, ws.Location)
			}
		}
	}
	return keywords, locations
}

func (r *Runner) targetCompanies(ctx context.Context) ([]string, error) {
	if r.prefs == nil {
		return nil, nil
	}
	return r.prefs.TargetCompanies(ctx)
}

// matchingPostings selects the deduped postings relevant to one search:
// any keyword in title or description, and a compatible location.
func matchingPostings(postings []model.JobPosting, ws config.WarmSearch) []model.JobPosting {
	var out []model.JobPosting
	for _, p := range postings {
		if !searchKeywordMatch(p, ws.Keywords) {
			continue
		}
		if !searchLocationMatch(p, ws) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func searchKeywordMatch(p model.JobPosting, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	title := strings.ToLower(p.Title)
	desc := strings.ToLower(p.Description)
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(title, k) || strings.Contains(desc, k) {
			return true
		}
	}
	return false
}

func searchLocationMatch(p model.JobPosting, ws config.WarmSearch) bool {
	loc := strings.ToLower(p.Location)
	if ws.Remote {
		return strings.Contains(loc, "remote")
	}
	if ws.Location == "" {
		return true
	}
	// Remote postings satisfy any location.
	if strings.Contains(loc, "remote") {
		return true
	}
	return strings.Contains(loc, strings.ToLower(ws.Location))
}
