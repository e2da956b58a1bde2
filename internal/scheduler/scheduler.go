// Package scheduler fires the three recurring triggers: the daily batch run,
// the hourly cache health check, and the weekly retention cleanup.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/config"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/notifier"
)

// BatchRunner executes one full batch run.
type BatchRunner interface {
	Run(ctx context.Context) (notifier.RunOutcome, error)
}

// Scheduler owns the trigger timers. Start launches the loop; Stop cancels
// it and waits until all timers are released.
type Scheduler struct {
	runner    BatchRunner
	cache     model.CacheStore
	store     model.PostingStore
	retention time.Duration
	cfg       config.SchedulerConfig
	logger    *slog.Logger

	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler wires the trigger loop. retention bounds how long postings
// stay in the store before weekly cleanup removes them.
func NewScheduler(
	runner BatchRunner,
	cacheStore model.CacheStore,
	postingStore model.PostingStore,
	retention time.Duration,
	cfg config.SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		runner:    runner,
		cache:     cacheStore,
		store:     postingStore,
		retention: retention,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start launches the trigger loop in its own goroutine.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("starting scheduler",
		"timezone", s.cfg.Timezone,
		"daily_hour", s.cfg.DailyHour,
		"weekly_day", s.cfg.WeeklyDay,
	)
	go s.loop(ctx)
}

// Stop cancels the loop and blocks until it has shut down.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	loc := s.cfg.Location()
	daily := time.NewTimer(time.Until(nextDaily(s.now(), s.cfg.DailyHour, loc)))
	hourly := time.NewTimer(time.Until(nextHourly(s.now())))
	weekly := time.NewTimer(time.Until(nextWeekly(s.now(), s.cfg.Weekday(), s.cfg.WeeklyHour, loc)))
	defer daily.Stop()
	defer hourly.Stop()
	defer weekly.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-daily.C:
			s.runBatch(ctx, "daily")
			daily.Reset(time.Until(nextDaily(s.now(), s.cfg.DailyHour, loc)))
		case <-hourly.C:
			s.healthCheck(ctx)
			hourly.Reset(time.Until(nextHourly(s.now())))
		case <-weekly.C:
			s.cleanup(ctx)
			weekly.Reset(time.Until(nextWeekly(s.now(), s.cfg.Weekday(), s.cfg.WeeklyHour, loc)))
		}
	}
}

// runBatch executes one run. A failed run is logged and left for the next
// trigger; the runner already notified operators.
func (s *Scheduler) runBatch(ctx context.Context, trigger string) {
	s.logger.Info("batch run triggered", "trigger", trigger)
	outcome, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("batch run failed, waiting for next trigger",
			"trigger", trigger,
			"run_id", outcome.RunID,
			"error", err,
		)
		return
	}
	s.logger.Info("batch run complete",
		"trigger", trigger,
		"run_id", outcome.RunID,
		"deduped", outcome.Deduped,
	)
}

// healthCheck fires an emergency run only when the cache is completely
// empty, which means users would hit live scrapes on every request.
func (s *Scheduler) healthCheck(ctx context.Context) {
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		s.logger.Error("cache health check failed", "error", err)
		return
	}
	if stats.Entries > 0 {
		return
	}
	s.logger.Warn("cache is empty, triggering emergency run")
	s.runBatch(ctx, "emergency")
}

// cleanup evicts expired cache entries and drops postings older than the
// retention window.
func (s *Scheduler) cleanup(ctx context.Context) {
	evicted, err := s.cache.EvictExpired(ctx)
	if err != nil {
		s.logger.Error("cache eviction failed", "error", err)
	}

	var deleted int64
	if s.store != nil {
		deleted, err = s.store.DeleteOlderThan(ctx, s.retention)
		if err != nil {
			s.logger.Error("retention cleanup failed", "error", err)
		}
	}

	s.logger.Info("weekly cleanup complete", "evicted", evicted, "deleted", deleted)
}

// nextDaily returns the next occurrence of hour o'clock in loc after now.
func nextDaily(now time.Time, hour int, loc *time.Location) time.Time {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextHourly returns the next top of the hour after now.
func nextHourly(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

// nextWeekly returns the next occurrence of day at hour o'clock in loc.
func nextWeekly(now time.Time, day time.Weekday, hour int, loc *time.Location) time.Time {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	for next.Weekday() != day || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
