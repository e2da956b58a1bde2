package notifier

import "log/slog"

// Ensure LogNotifier implements RunNotifier.
var _ RunNotifier = (*LogNotifier)(nil)

// LogNotifier writes run outcomes to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each run outcome via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyRun logs the outcome. Returns nil (stdout logging does not fail).
func (n *LogNotifier) NotifyRun(o RunOutcome) error {
	args := []any{
		"run_id", o.RunID,
		"state", o.State,
		"collected", o.Collected,
		"deduped", o.Deduped,
		"cached", o.Cached,
		"search_calls", o.SearchCalls,
		"duration", o.Duration(),
	}
	if o.Err != "" {
		args = append(args, "error", o.Err)
		n.logger.Error("batch run failed", args...)
		return nil
	}
	n.logger.Info("batch run finished", args...)
	return nil
}
