package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	adapterFetchesTotal = nil
	cacheRequestsTotal = nil
	runsTotal = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if adapterFetchesTotal == nil || cacheRequestsTotal == nil || runsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveFetch("remotive", "success", 3)
	if val := testutil.ToFloat64(adapterFetchesTotal); val != 1 {
		t.Errorf("expected adapterFetchesTotal to be 1, got %f", val)
	}
	if val := testutil.ToFloat64(postingsCollectedTotal); val != 3 {
		t.Errorf("expected postingsCollectedTotal to be 3, got %f", val)
	}

	ObserveCacheHit()
	ObserveCacheMiss()
	ObserveCacheMiss()
	if val := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("miss")); val != 2 {
		t.Errorf("expected 2 misses, got %f", val)
	}
}
