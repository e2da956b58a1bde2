package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	Content     string             `json:"content"`
	UpdatedAt   string             `json:"updated_at"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from one company's Greenhouse public board.
// Boards have no server-side search, so keyword and location matching
// happens locally.
type GreenhouseAdapter struct {
	baseURL     string
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
func NewGreenhouseAdapter(boardToken, companyName string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		baseURL:     greenhouseBaseURL,
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

// Name identifies this source.
func (a *GreenhouseAdapter) Name() string { return "greenhouse:" + a.boardToken }

// Fetch retrieves all jobs from the board and keeps those matching the
// requested keywords and locations.
func (a *GreenhouseAdapter) Fetch(ctx context.Context, keywords, locations []string) ([]model.JobPosting, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", a.baseURL, a.boardToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(fmt.Sprintf("greenhouse fetch for %s", a.boardToken), resp)
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	now := time.Now().UTC()
	var postings []model.JobPosting
	for _, gj := range ghResp.Jobs {
		description := extractText(gj.Content)

		if !matchesKeywords(gj.Title+" "+description, keywords) {
			continue
		}
		if !matchesLocations(gj.Location.Name, locations) {
			continue
		}

		p := model.JobPosting{
			Source:      "greenhouse",
			ExternalID:  fmt.Sprintf("%d", gj.ID),
			Title:       gj.Title,
			Company:     a.companyName,
			Location:    gj.Location.Name,
			Description: description,
			URL:         gj.AbsoluteURL,
			ScrapedAt:   now,
		}

		if gj.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, gj.UpdatedAt); err == nil {
				p.PostedAt = &t
			}
		}

		postings = append(postings, p)
	}

	return postings, nil
}
