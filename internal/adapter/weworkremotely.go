package adapter

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

const wwrBaseURL = "https://weworkremotely.com/remote-jobs.rss"

// wwrFeed is the RSS envelope served by We Work Remotely.
type wwrFeed struct {
	Channel struct {
		Items []wwrItem `xml:"item"`
	} `xml:"channel"`
}

type wwrItem struct {
	Title       string `xml:"title"`       // "Company: Job Title"
	Region      string `xml:"region"`      // e.g. "Anywhere in the World"
	Description string `xml:"description"` // HTML
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"` // RFC1123Z
}

// WWRAdapter fetches jobs from the We Work Remotely RSS feed. The feed has
// no server-side search, so keyword matching happens locally. Every posting
// is remote by definition.
type WWRAdapter struct {
	baseURL string
	client  *http.Client
}

// NewWWRAdapter creates a new We Work Remotely adapter.
func NewWWRAdapter(client *http.Client) *WWRAdapter {
	return &WWRAdapter{
		baseURL: wwrBaseURL,
		client:  client,
	}
}

// Name identifies this source.
func (a *WWRAdapter) Name() string { return "weworkremotely" }

// Fetch retrieves the feed and keeps postings matching the keywords.
func (a *WWRAdapter) Fetch(ctx context.Context, keywords, _ []string) ([]model.JobPosting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("weworkremotely fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weworkremotely fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("weworkremotely fetch", resp)
	}

	var feed wwrFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("weworkremotely fetch: %w", err)
	}

	now := time.Now().UTC()
	var postings []model.JobPosting
	for _, item := range feed.Channel.Items {
		company, title := splitFeedTitle(item.Title)
		description := extractText(item.Description)

		if !matchesKeywords(title+" "+description, keywords) {
			continue
		}

		p := model.JobPosting{
			Source:      "weworkremotely",
			ExternalID:  item.GUID,
			Title:       title,
			Company:     company,
			Location:    tagRemote(item.Region),
			Description: description,
			URL:         item.Link,
			ScrapedAt:   now,
		}

		if item.PubDate != "" {
			if t, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
				p.PostedAt = &t
			}
		}

		postings = append(postings, p)
	}

	return postings, nil
}

// splitFeedTitle splits the feed's "Company: Job Title" convention. Titles
// without a separator are kept whole with an empty company.
func splitFeedTitle(raw string) (company, title string) {
	parts := strings.SplitN(raw, ": ", 2)
	if len(parts) != 2 {
		return "", strings.TrimSpace(raw)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
