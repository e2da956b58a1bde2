package adapter

import (
	"context"
	"log/slog"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// Ensure FailsafeAdapter implements model.SourceAdapter.
var _ model.SourceAdapter = (*FailsafeAdapter)(nil)

// FailsafeAdapter is a decorator that isolates source failures: any error
// from the wrapped adapter is logged and replaced by an empty contribution,
// so a broken source never stalls the pipeline.
type FailsafeAdapter struct {
	inner  model.SourceAdapter
	logger *slog.Logger
}

// NewFailsafeAdapter wraps a SourceAdapter with failure isolation.
func NewFailsafeAdapter(inner model.SourceAdapter, logger *slog.Logger) *FailsafeAdapter {
	return &FailsafeAdapter{
		inner:  inner,
		logger: logger,
	}
}

// Name identifies the wrapped source.
func (a *FailsafeAdapter) Name() string { return a.inner.Name() }

// Fetch delegates to the wrapped adapter, converting failures into an empty
// result. The returned error is always nil.
func (a *FailsafeAdapter) Fetch(ctx context.Context, keywords, locations []string) ([]model.JobPosting, error) {
	postings, err := a.inner.Fetch(ctx, keywords, locations)
	if err != nil {
		a.logger.Warn("source unavailable, continuing with partial data",
			"source", a.inner.Name(),
			"error", err,
		)
		return nil, nil
	}
	return postings, nil
}
