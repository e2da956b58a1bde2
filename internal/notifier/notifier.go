// Package notifier reports batch run outcomes to operators.
package notifier

import "time"

// RunOutcome summarizes one finished batch run.
type RunOutcome struct {
	RunID       string
	State       string // DONE or FAILED
	Collected   int
	Deduped     int
	Cached      int
	SearchCalls int
	Started     time.Time
	Finished    time.Time
	Err         string // populated for FAILED runs
}

// Duration is the wall-clock length of the run.
func (o RunOutcome) Duration() time.Duration {
	return o.Finished.Sub(o.Started)
}

// RunNotifier delivers a run outcome to some channel. Implementations must
// tolerate being called from the scheduler goroutine.
type RunNotifier interface {
	NotifyRun(outcome RunOutcome) error
}
