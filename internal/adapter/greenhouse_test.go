package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func greenhouseTestAdapter(t *testing.T, payload string, status int) *GreenhouseAdapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	a := NewGreenhouseAdapter("acme", "Acme Corp", srv.Client())
	a.baseURL = srv.URL
	return a
}

func TestGreenhouseFetch_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 12345,
				"title": "Software Engineer",
				"location": {"name": "San Francisco, CA"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
				"content": "&lt;p&gt;Ship production Go&lt;/p&gt;",
				"updated_at": "2026-08-13T10:00:00Z"
			},
			{
				"id": 67890,
				"title": "Account Executive",
				"location": {"name": "Remote, US"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
				"content": "Sell the product",
				"updated_at": "2026-08-13T11:30:00Z"
			}
		]
	}`
	a := greenhouseTestAdapter(t, payload, http.StatusOK)

	postings, err := a.Fetch(context.Background(), []string{"engineer"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting after keyword filter, got %d", len(postings))
	}

	p := postings[0]
	if p.ExternalID != "12345" {
		t.Errorf("external id: got %q", p.ExternalID)
	}
	if p.Company != "Acme Corp" {
		t.Errorf("company: got %q", p.Company)
	}
	if p.Source != "greenhouse" {
		t.Errorf("source: got %q", p.Source)
	}
	if p.Description != "Ship production Go" {
		t.Errorf("description should be unescaped and stripped, got %q", p.Description)
	}
	if p.PostedAt == nil || p.PostedAt.Day() != 13 {
		t.Errorf("unexpected PostedAt: %v", p.PostedAt)
	}
}

func TestGreenhouseFetch_EmptyBoard(t *testing.T) {
	a := greenhouseTestAdapter(t, `{"jobs": []}`, http.StatusOK)

	postings, err := a.Fetch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("expected 0 postings, got %d", len(postings))
	}
}

func TestGreenhouseFetch_NotFound(t *testing.T) {
	a := greenhouseTestAdapter(t, "", http.StatusNotFound)

	if _, err := a.Fetch(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for 404 board, got nil")
	}
}

func TestGreenhouseName(t *testing.T) {
	a := NewGreenhouseAdapter("acme", "Acme Corp", http.DefaultClient)
	if a.Name() != "greenhouse:acme" {
		t.Errorf("Name() = %q", a.Name())
	}
}
