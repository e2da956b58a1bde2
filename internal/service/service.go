// Package service is the consumer-facing layer: cache-first job reads per
// user, forced refreshes, manual batch triggers, and system health.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/cache"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/dedup"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/metrics"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/notifier"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/pipeline"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/prefs"
)

// BatchPipeline is the slice of the batch runner the service needs.
type BatchPipeline interface {
	Run(ctx context.Context) (notifier.RunOutcome, error)
	Status() pipeline.Status
}

// QuotaReporter exposes how many web-search calls the last run used.
type QuotaReporter interface {
	CallsUsed() int
}

// ComponentHealth is one component's slice of the health report.
type ComponentHealth struct {
	Status string `json:"status"` // "ok" or "error"
	Error  string `json:"error,omitempty"`
}

// Health is the aggregate system health report.
type Health struct {
	Status         string          `json:"status"` // "ok" or "degraded"
	Cache          ComponentHealth `json:"cache"`
	Store          ComponentHealth `json:"store"`
	Run            pipeline.Status `json:"run"`
	QuotaRemaining int             `json:"quota_remaining"`
}

// Service answers user-facing requests. Adapters must already be wrapped
// for retry, rate limiting, and failure isolation; the service treats a
// fetch error as "this source contributed nothing".
type Service struct {
	adapters       []model.SourceAdapter
	cache          model.CacheStore
	store          model.PostingStore
	prefs          model.PreferenceStore
	runner         BatchPipeline
	quota          QuotaReporter
	searchMaxCalls int
	ttl            time.Duration
	adapterTimeout time.Duration
	logger         *slog.Logger
}

// NewService wires the consumer layer. runner and quota may be nil when the
// process runs without a batch pipeline (e.g. one-shot CLI commands).
func NewService(
	adapters []model.SourceAdapter,
	cacheStore model.CacheStore,
	postingStore model.PostingStore,
	prefStore model.PreferenceStore,
	runner BatchPipeline,
	quota QuotaReporter,
	searchMaxCalls int,
	ttl time.Duration,
	adapterTimeout time.Duration,
	logger *slog.Logger,
) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if adapterTimeout <= 0 {
		adapterTimeout = 60 * time.Second
	}
	return &Service{
		adapters:       adapters,
		cache:          cacheStore,
		store:          postingStore,
		prefs:          prefStore,
		runner:         runner,
		quota:          quota,
		searchMaxCalls: searchMaxCalls,
		ttl:            ttl,
		adapterTimeout: adapterTimeout,
		logger:         logger,
	}
}

// GetJobsForUser returns the filtered, prioritized postings for one user.
// Cache-first: a fresh cache entry answers the request without touching any
// source; a miss (or cache read failure) falls back to a live pass whose
// result is written back best-effort.
func (s *Service) GetJobsForUser(ctx context.Context, userID string) ([]model.JobPosting, error) {
	pref, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences for %s: %w", userID, err)
	}

	params := searchParamsFor(pref)
	fp := cache.Fingerprint(params)

	postings, err := s.cache.Get(ctx, fp)
	if err == nil {
		metrics.ObserveCacheHit()
		if terr := s.cache.Touch(ctx, fp); terr != nil {
			s.logger.Warn("cache touch failed", "fingerprint", fp, "error", terr)
		}
		return s.applyPreferences(postings, pref), nil
	}
	if err != model.ErrCacheMiss {
		s.logger.Warn("cache read failed, falling back to live fetch", "fingerprint", fp, "error", err)
	}
	metrics.ObserveCacheMiss()

	live, err := s.livePass(ctx, userID, pref, params, fp)
	if err != nil {
		return nil, err
	}
	return s.applyPreferences(live, pref), nil
}

// ForceRefreshUser bypasses the cache, runs a live pass, and upserts the
// user's cache entry.
func (s *Service) ForceRefreshUser(ctx context.Context, userID string) ([]model.JobPosting, error) {
	pref, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences for %s: %w", userID, err)
	}

	params := searchParamsFor(pref)
	live, err := s.livePass(ctx, userID, pref, params, cache.Fingerprint(params))
	if err != nil {
		return nil, err
	}
	return s.applyPreferences(live, pref), nil
}

// TriggerBatchUpdate runs the batch pipeline once and returns the postings
// it produced.
func (s *Service) TriggerBatchUpdate(ctx context.Context) ([]model.JobPosting, error) {
	if s.runner == nil {
		return nil, fmt.Errorf("batch pipeline is not configured")
	}
	outcome, err := s.runner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch update: %w", err)
	}
	if s.store == nil || outcome.Deduped == 0 {
		return nil, nil
	}
	postings, err := s.store.RecentCached(ctx, outcome.Deduped)
	if err != nil {
		return nil, fmt.Errorf("batch update: loading postings: %w", err)
	}
	return postings, nil
}

// GetCacheStats reports cache hit/miss/entry/eviction counters.
func (s *Service) GetCacheStats(ctx context.Context) (model.CacheStats, error) {
	return s.cache.Stats(ctx)
}

// GetSystemHealth probes each component and aggregates the result. The
// report itself never fails; broken components are marked inside it.
func (s *Service) GetSystemHealth(ctx context.Context) Health {
	h := Health{
		Status:         "ok",
		Cache:          ComponentHealth{Status: "ok"},
		Store:          ComponentHealth{Status: "ok"},
		QuotaRemaining: s.searchMaxCalls,
	}

	if _, err := s.cache.Stats(ctx); err != nil {
		h.Cache = ComponentHealth{Status: "error", Error: err.Error()}
		h.Status = "degraded"
	}

	if s.store != nil {
		if _, err := s.store.RecentCached(ctx, 1); err != nil {
			h.Store = ComponentHealth{Status: "error", Error: err.Error()}
			h.Status = "degraded"
		}
	}

	if s.runner != nil {
		h.Run = s.runner.Status()
		if h.Run.State == pipeline.StateFailed {
			h.Status = "degraded"
		}
	}

	if s.quota != nil {
		remaining := s.searchMaxCalls - s.quota.CallsUsed()
		if remaining < 0 {
			remaining = 0
		}
		h.QuotaRemaining = remaining
	}

	return h
}

// livePass fetches from every adapter, dedupes, and writes the result to the
// user's posting history and the cache. Both writes are best-effort.
func (s *Service) livePass(ctx context.Context, userID string, pref model.UserPreference, params model.SearchParams, fp string) ([]model.JobPosting, error) {
	results := make([][]model.JobPosting, len(s.adapters))
	var g errgroup.Group
	for i, a := range s.adapters {
		i, a := i, a
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
			defer cancel()

			postings, err := a.Fetch(fctx, pref.Keywords, pref.Locations)
			if err != nil {
				s.logger.Warn("live fetch failed", "user_id", userID, "source", a.Name(), "error", err)
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
		return nil, fmt.Errorf("live fetch for %s: %w", userID, err)
	}

	var collected []model.JobPosting
	for _, batch := range results {
		collected = append(collected, batch...)
	}
	deduped := dedup.Dedupe(collected)

	if s.store != nil {
		if _, err := s.store.InsertForUser(ctx, userID, deduped); err != nil {
			s.logger.Warn("saving live postings failed", "user_id", userID, "error", err)
		}
	}
	if err := s.cache.Put(ctx, fp, params, deduped, s.ttl); err != nil {
		s.logger.Warn("cache write failed after live fetch", "fingerprint", fp, "error", err)
	}

	return deduped, nil
}

func (s *Service) applyPreferences(postings []model.JobPosting, pref model.UserPreference) []model.JobPosting {
	filtered := prefs.Filter(postings, pref)
	return prefs.Prioritize(filtered, pref.TargetCompanies)
}

// searchParamsFor normalizes a preference into cache fingerprint inputs:
// remote when any preferred location is remote, plus the first concrete
// location otherwise.
func searchParamsFor(pref model.UserPreference) model.SearchParams {
	params := model.SearchParams{Keywords: pref.Keywords}
	for _, loc := range pref.Locations {
		l := strings.ToLower(strings.TrimSpace(loc))
		if l == "" {
			continue
		}
		if strings.Contains(l, "remote") {
			params.Remote = true
			continue
		}
		if params.Location == "" {
			params.Location = loc
		}
	}
	return params
}
