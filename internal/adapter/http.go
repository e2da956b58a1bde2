package adapter

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// statusError converts a non-200 response into a model.HTTPError carrying
// the parsed Retry-After, so the retry decorator can honor provider backoff.
func statusError(op string, resp *http.Response) error {
	return &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        fmt.Errorf("%s", op),
	}
}

// parseRetryAfter parses a Retry-After header value into a duration.
// Supports both the seconds form ("120") and the HTTP-date form.
// Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
