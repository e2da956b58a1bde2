package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

const arbeitnowBaseURL = "https://www.arbeitnow.com/api/job-board-api"

// arbeitnowJob represents a single job in the Arbeitnow API response.
type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	CreatedAt   int64    `json:"created_at"` // unix seconds
}

// arbeitnowResponse is the top-level Arbeitnow API response.
type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

// ArbeitnowAdapter fetches jobs from the Arbeitnow public job-board API.
// The API offers no server-side search, so keyword and location matching
// happens locally after normalization.
type ArbeitnowAdapter struct {
	baseURL string
	client  *http.Client
}

// NewArbeitnowAdapter creates a new Arbeitnow adapter.
func NewArbeitnowAdapter(client *http.Client) *ArbeitnowAdapter {
	return &ArbeitnowAdapter{
		baseURL: arbeitnowBaseURL,
		client:  client,
	}
}

// Name identifies this source.
func (a *ArbeitnowAdapter) Name() string { return "arbeitnow" }

// Fetch retrieves the current board page and keeps postings matching the
// requested keywords and locations.
func (a *ArbeitnowAdapter) Fetch(ctx context.Context, keywords, locations []string) ([]model.JobPosting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("arbeitnow fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arbeitnow fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("arbeitnow fetch", resp)
	}

	var aResp arbeitnowResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return nil, fmt.Errorf("arbeitnow fetch: %w", err)
	}

	now := time.Now().UTC()
	var postings []model.JobPosting
	for _, aj := range aResp.Data {
		location := aj.Location
		if aj.Remote {
			location = tagRemote(location)
		}

		description := extractText(aj.Description)
		if !matchesKeywords(aj.Title+" "+description, keywords) {
			continue
		}
		if !matchesLocations(location, locations) {
			continue
		}

		p := model.JobPosting{
			Source:         "arbeitnow",
			ExternalID:     aj.Slug,
			Title:          aj.Title,
			Company:        aj.CompanyName,
			Location:       location,
			Description:    description,
			URL:            aj.URL,
			EmploymentType: firstEmploymentType(aj.JobTypes),
			ScrapedAt:      now,
		}

		if aj.CreatedAt > 0 {
			t := time.Unix(aj.CreatedAt, 0).UTC()
			p.PostedAt = &t
		}

		postings = append(postings, p)
	}

	return postings, nil
}

// firstEmploymentType maps the first recognizable job type from the
// provider's list.
func firstEmploymentType(types []string) string {
	for _, t := range types {
		if mapped := mapEmploymentType(t); mapped != "" {
			return mapped
		}
	}
	return ""
}
