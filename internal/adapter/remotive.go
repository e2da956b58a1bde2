package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

// remotiveJob represents a single job in the Remotive API response.
type remotiveJob struct {
	ID              int64  `json:"id"`
	URL             string `json:"url"`
	Title           string `json:"title"`
	CompanyName     string `json:"company_name"`
	JobType         string `json:"job_type"`
	PublicationDate string `json:"publication_date"`
	Location        string `json:"candidate_required_location"`
	Salary          string `json:"salary"`
	Description     string `json:"description"`
}

// remotiveResponse is the top-level Remotive API response.
type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches remote jobs from the Remotive public API.
// Remotive supports server-side keyword search; every posting is remote,
// so location preferences are not applied here.
type RemotiveAdapter struct {
	baseURL string
	client  *http.Client
}

// NewRemotiveAdapter creates a new Remotive adapter.
func NewRemotiveAdapter(client *http.Client) *RemotiveAdapter {
	return &RemotiveAdapter{
		baseURL: remotiveBaseURL,
		client:  client,
	}
}

// Name identifies this source.
func (a *RemotiveAdapter) Name() string { return "remotive" }

// Fetch retrieves postings matching the keywords and normalizes them into
// the unified JobPosting model.
func (a *RemotiveAdapter) Fetch(ctx context.Context, keywords, _ []string) ([]model.JobPosting, error) {
	endpoint := a.baseURL
	if len(keywords) > 0 {
		endpoint += "?search=" + url.QueryEscape(strings.Join(keywords, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("remotive fetch", resp)
	}

	var rResp remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&rResp); err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}

	now := time.Now().UTC()
	postings := make([]model.JobPosting, 0, len(rResp.Jobs))
	for _, rj := range rResp.Jobs {
		p := model.JobPosting{
			Source:         "remotive",
			ExternalID:     fmt.Sprintf("%d", rj.ID),
			Title:          rj.Title,
			Company:        rj.CompanyName,
			Location:       tagRemote(rj.Location),
			Description:    extractText(rj.Description),
			URL:            rj.URL,
			Salary:         rj.Salary,
			EmploymentType: mapEmploymentType(rj.JobType),
			ScrapedAt:      now,
		}

		if rj.PublicationDate != "" {
			// Remotive timestamps carry no zone suffix.
			if t, err := time.Parse("2006-01-02T15:04:05", rj.PublicationDate); err == nil {
				p.PostedAt = &t
			}
		}

		postings = append(postings, p)
	}

	return postings, nil
}
