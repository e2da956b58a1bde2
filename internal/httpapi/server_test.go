package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/metrics"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/pipeline"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/service"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

type fakeService struct {
	jobs      []model.JobPosting
	jobsErr   error
	stats     model.CacheStats
	health    service.Health
	batchErr  error
	panicOn   string
	refreshed bool
}

func (f *fakeService) GetJobsForUser(_ context.Context, userID string) ([]model.JobPosting, error) {
	if f.panicOn == "jobs" {
		panic("handler blew up")
	}
	if f.jobsErr != nil {
		return nil, f.jobsErr
	}
	return f.jobs, nil
}

func (f *fakeService) ForceRefreshUser(_ context.Context, userID string) ([]model.JobPosting, error) {
	f.refreshed = true
	return f.jobs, f.jobsErr
}

func (f *fakeService) TriggerBatchUpdate(context.Context) ([]model.JobPosting, error) {
	return f.jobs, f.batchErr
}

func (f *fakeService) GetCacheStats(context.Context) (model.CacheStats, error) {
	return f.stats, nil
}

func (f *fakeService) GetSystemHealth(context.Context) service.Health {
	return f.health
}

func newTestServer(svc *fakeService) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httptest.NewServer(NewServer(svc, logger).Handler())
}

func okHealth() service.Health {
	return service.Health{
		Status: "ok",
		Cache:  service.ComponentHealth{Status: "ok"},
		Store:  service.ComponentHealth{Status: "ok"},
		Run:    pipeline.Status{State: pipeline.StateIdle},
	}
}

func TestGetUserJobs(t *testing.T) {
	svc := &fakeService{jobs: []model.JobPosting{
		{Title: "Backend Developer", Company: "Acme", Location: "Remote"},
	}}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/users/u1/jobs")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body jobsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID != "u1" || body.Count != 1 || len(body.Jobs) != 1 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestGetUserJobs_UnknownUserIs404(t *testing.T) {
	svc := &fakeService{jobsErr: fmt.Errorf("loading preferences: %w", model.ErrNotFound)}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/users/ghost/jobs")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetUserJobs_ServiceErrorIs500(t *testing.T) {
	svc := &fakeService{jobsErr: errors.New("db locked")}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/users/u1/jobs")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestRefreshUser(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/users/u1/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !svc.refreshed {
		t.Error("ForceRefreshUser was not called")
	}
}

func TestRunBatch(t *testing.T) {
	svc := &fakeService{jobs: []model.JobPosting{{Title: "Data Developer"}}}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/batch/run", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

func TestCacheStats(t *testing.T) {
	svc := &fakeService{stats: model.CacheStats{Hits: 10, Misses: 2, Entries: 4}}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/cache/stats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var stats model.CacheStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Hits != 10 || stats.Misses != 2 || stats.Entries != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestHealthz(t *testing.T) {
	svc := &fakeService{health: okHealth()}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthy status = %d, want 200", resp.StatusCode)
	}

	svc.health.Status = "degraded"
	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET degraded: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", resp.StatusCode)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	svc := &fakeService{panicOn: "jobs"}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/users/u1/jobs")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 from recover middleware", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeService{health: okHealth()})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Error("metrics body is empty")
	}
}
