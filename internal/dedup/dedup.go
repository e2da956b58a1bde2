// Package dedup merges adapter outputs into a unique posting set.
package dedup

import "github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"

// Dedupe drops postings whose identity key was already seen, keeping the
// first occurrence. Callers concatenate adapter output in priority order
// before calling, so first-seen encodes source priority. Idempotent.
func Dedupe(postings []model.JobPosting) []model.JobPosting {
	seen := make(map[string]struct{}, len(postings))
	out := make([]model.JobPosting, 0, len(postings))
	for _, p := range postings {
		key := p.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
