package search

import "sync"

// QuotaBudget is a hard ceiling on API calls for a single run. It is safe for
// concurrent use, though the orchestrator itself issues calls sequentially.
type QuotaBudget struct {
	mu   sync.Mutex
	max  int
	used int
}

func NewQuotaBudget(max int) *QuotaBudget {
	return &QuotaBudget{max: max}
}

// TryAcquire reserves one call slot. It returns false once the ceiling is
// reached; callers must stop issuing calls, not retry.
func (b *QuotaBudget) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used >= b.max {
		return false
	}
	b.used++
	return true
}

// Used reports how many slots have been acquired so far.
func (b *QuotaBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining reports how many slots are left.
func (b *QuotaBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used >= b.max {
		return 0
	}
	return b.max - b.used
}
