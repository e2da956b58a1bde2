package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverPosting represents a single posting in the Lever API response.
type leverPosting struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"` // job title
	HostedURL        string          `json:"hostedUrl"`
	CreatedAt        int64           `json:"createdAt"` // unix millis
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	SalaryRange      *leverSalary    `json:"salaryRange"`
	WorkplaceType    string          `json:"workplaceType"` // remote/hybrid/onsite
}

type leverCategories struct {
	Location   string `json:"location"`
	Commitment string `json:"commitment"` // e.g. "Full-time"
}

type leverSalary struct {
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Currency string `json:"currency"`
}

// LeverAdapter fetches jobs from one company's Lever public postings API.
// Keyword and location matching happens locally.
type LeverAdapter struct {
	baseURL     string
	boardToken  string
	companyName string
	client      *http.Client
}

// NewLeverAdapter creates a new adapter for a Lever board.
func NewLeverAdapter(boardToken, companyName string, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		baseURL:     leverBaseURL,
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

// Name identifies this source.
func (a *LeverAdapter) Name() string { return "lever:" + a.boardToken }

// Fetch retrieves all postings for the board and keeps those matching the
// requested keywords and locations.
func (a *LeverAdapter) Fetch(ctx context.Context, keywords, locations []string) ([]model.JobPosting, error) {
	url := fmt.Sprintf("%s/%s?mode=json", a.baseURL, a.boardToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.boardToken, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.boardToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(fmt.Sprintf("lever fetch for %s", a.boardToken), resp)
	}

	var lPostings []leverPosting
	if err := json.NewDecoder(resp.Body).Decode(&lPostings); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.boardToken, err)
	}

	now := time.Now().UTC()
	var postings []model.JobPosting
	for _, lp := range lPostings {
		location := lp.Categories.Location
		if lp.WorkplaceType == "remote" {
			location = tagRemote(location)
		}

		if !matchesKeywords(lp.Text+" "+lp.DescriptionPlain, keywords) {
			continue
		}
		if !matchesLocations(location, locations) {
			continue
		}

		p := model.JobPosting{
			Source:         "lever",
			ExternalID:     lp.ID,
			Title:          lp.Text,
			Company:        a.companyName,
			Location:       location,
			Description:    lp.DescriptionPlain,
			URL:            lp.HostedURL,
			EmploymentType: mapEmploymentType(lp.Categories.Commitment),
			ScrapedAt:      now,
		}

		if lp.SalaryRange != nil {
			p.Salary = formatSalary(lp.SalaryRange.Min, lp.SalaryRange.Max, currencySymbol(lp.SalaryRange.Currency))
		}

		if lp.CreatedAt > 0 {
			t := time.UnixMilli(lp.CreatedAt).UTC()
			p.PostedAt = &t
		}

		postings = append(postings, p)
	}

	return postings, nil
}

// currencySymbol maps common ISO currency codes to display symbols,
// passing anything else through unchanged.
func currencySymbol(code string) string {
	switch code {
	case "", "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	default:
		return code + " "
	}
}
