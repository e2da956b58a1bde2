package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

func TestLeverFetch_Success(t *testing.T) {
	payload := `[
		{
			"id": "ab-12",
			"text": "Platform Engineer",
			"hostedUrl": "https://jobs.lever.co/acme/ab-12",
			"createdAt": 1755427200000,
			"descriptionPlain": "Run the platform",
			"categories": {"location": "New York, NY", "commitment": "Full-time"},
			"salaryRange": {"min": 140000, "max": 180000, "currency": "USD"},
			"workplaceType": "onsite"
		},
		{
			"id": "cd-34",
			"text": "Support Specialist",
			"hostedUrl": "https://jobs.lever.co/acme/cd-34",
			"createdAt": 1755427200000,
			"descriptionPlain": "Help customers",
			"categories": {"location": "Austin, TX", "commitment": "Part-time"},
			"workplaceType": "remote"
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewLeverAdapter("acme", "Acme Corp", srv.Client())
	a.baseURL = srv.URL

	postings, err := a.Fetch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.Salary != "$140000 - $180000" {
		t.Errorf("salary: got %q", p.Salary)
	}
	if p.EmploymentType != model.EmploymentFullTime {
		t.Errorf("employment type: got %q", p.EmploymentType)
	}
	if p.Location != "New York, NY" {
		t.Errorf("location: got %q", p.Location)
	}
	if p.PostedAt == nil {
		t.Error("expected PostedAt from createdAt millis")
	}

	remote := postings[1]
	if remote.Location != "Remote - Austin, TX" {
		t.Errorf("remote workplaceType should tag location, got %q", remote.Location)
	}
	if remote.Salary != "" {
		t.Errorf("missing salaryRange should yield empty salary, got %q", remote.Salary)
	}
}

func TestLeverFetch_LocationFilter(t *testing.T) {
	payload := `[
		{
			"id": "ab-12",
			"text": "Platform Engineer",
			"hostedUrl": "https://jobs.lever.co/acme/ab-12",
			"descriptionPlain": "Run the platform",
			"categories": {"location": "London, UK", "commitment": "Full-time"},
			"workplaceType": "onsite"
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewLeverAdapter("acme", "Acme Corp", srv.Client())
	a.baseURL = srv.URL

	postings, err := a.Fetch(context.Background(), nil, []string{"New York"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("expected 0 postings for New York, got %d", len(postings))
	}
}

func TestCurrencySymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "$"},
		{"USD", "$"},
		{"EUR", "€"},
		{"GBP", "£"},
		{"CHF", "CHF "},
	}
	for _, tt := range tests {
		if got := currencySymbol(tt.in); got != tt.want {
			t.Errorf("currencySymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
