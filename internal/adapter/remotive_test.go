package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

func TestRemotiveFetch_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 101,
				"url": "https://remotive.com/remote-jobs/software-dev/backend-engineer-101",
				"title": "Backend Engineer",
				"company_name": "Acme",
				"job_type": "full_time",
				"publication_date": "2026-08-10T09:30:00",
				"candidate_required_location": "USA Only",
				"salary": "$120,000 - $150,000",
				"description": "<p>Build services in <b>Go</b></p>"
			}
		]
	}`
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter(srv.Client())
	a.baseURL = srv.URL

	postings, err := a.Fetch(context.Background(), []string{"backend"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "search=backend" {
		t.Errorf("expected server-side search param, got query %q", gotQuery)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.Source != "remotive" {
		t.Errorf("source: got %q", p.Source)
	}
	if p.ExternalID != "101" {
		t.Errorf("external id: got %q", p.ExternalID)
	}
	if p.Location != "Remote - USA Only" {
		t.Errorf("location should be remote-tagged, got %q", p.Location)
	}
	if p.EmploymentType != model.EmploymentFullTime {
		t.Errorf("employment type: got %q", p.EmploymentType)
	}
	if p.Salary != "$120,000 - $150,000" {
		t.Errorf("salary passthrough: got %q", p.Salary)
	}
	if p.Description != "Build services in Go" {
		t.Errorf("description should be stripped, got %q", p.Description)
	}
	if p.PostedAt == nil || p.PostedAt.Day() != 10 {
		t.Errorf("unexpected PostedAt: %v", p.PostedAt)
	}
}

func TestRemotiveFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewRemotiveAdapter(srv.Client())
	a.baseURL = srv.URL

	_, err := a.Fetch(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status: got %d", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("retry-after: got %v", httpErr.RetryAfter)
	}
}

func TestRemotiveFetch_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": [`))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter(srv.Client())
	a.baseURL = srv.URL

	if _, err := a.Fetch(context.Background(), nil, nil); err == nil {
		t.Fatal("expected decode error, got nil")
	}
}
