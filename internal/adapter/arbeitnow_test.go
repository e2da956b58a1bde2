package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

const arbeitnowPayload = `{
	"data": [
		{
			"slug": "golang-developer-berlin-42",
			"company_name": "Tech GmbH",
			"title": "Golang Developer",
			"description": "<p>Write Go services</p>",
			"remote": false,
			"url": "https://www.arbeitnow.com/view/golang-developer-berlin-42",
			"job_types": ["full time"],
			"location": "Berlin",
			"created_at": 1755000000
		},
		{
			"slug": "designer-remote-7",
			"company_name": "Pixel Co",
			"title": "Product Designer",
			"description": "Design things",
			"remote": true,
			"url": "https://www.arbeitnow.com/view/designer-remote-7",
			"job_types": ["contract"],
			"location": "Germany",
			"created_at": 1755000000
		}
	]
}`

func arbeitnowTestAdapter(t *testing.T, payload string) *ArbeitnowAdapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	a := NewArbeitnowAdapter(srv.Client())
	a.baseURL = srv.URL
	return a
}

func TestArbeitnowFetch_LocalKeywordFilter(t *testing.T) {
	a := arbeitnowTestAdapter(t, arbeitnowPayload)

	postings, err := a.Fetch(context.Background(), []string{"golang"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting after keyword filter, got %d", len(postings))
	}
	p := postings[0]
	if p.Title != "Golang Developer" {
		t.Errorf("title: got %q", p.Title)
	}
	if p.EmploymentType != model.EmploymentFullTime {
		t.Errorf("employment type: got %q", p.EmploymentType)
	}
	if p.Location != "Berlin" {
		t.Errorf("onsite location should stay untagged, got %q", p.Location)
	}
	if p.PostedAt == nil {
		t.Error("expected PostedAt from created_at")
	}
}

func TestArbeitnowFetch_RemoteTagging(t *testing.T) {
	a := arbeitnowTestAdapter(t, arbeitnowPayload)

	postings, err := a.Fetch(context.Background(), []string{"designer"}, []string{"New York"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The designer role is remote, so it passes the New York location filter.
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}
	if postings[0].Location != "Remote - Germany" {
		t.Errorf("location: got %q", postings[0].Location)
	}
	if postings[0].EmploymentType != model.EmploymentContract {
		t.Errorf("employment type: got %q", postings[0].EmploymentType)
	}
}

func TestArbeitnowFetch_LocationFilter(t *testing.T) {
	a := arbeitnowTestAdapter(t, arbeitnowPayload)

	postings, err := a.Fetch(context.Background(), []string{"golang"}, []string{"Munich"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("expected 0 postings for Munich, got %d", len(postings))
	}
}
