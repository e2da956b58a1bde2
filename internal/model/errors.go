package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by CacheStore.Get for absent or expired entries.
// Read failures are also surfaced as a miss so callers fall back to a live
// adapter pass.
var ErrCacheMiss = errors.New("cache miss")

// ErrNotFound is returned when a requested entity (user preference,
// posting) does not exist.
var ErrNotFound = errors.New("not found")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
