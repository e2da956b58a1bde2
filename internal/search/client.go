package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

const googleBaseURL = "https://www.googleapis.com/customsearch/v1"

// Result is a single raw web-search hit, before classification.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// Client issues one web-search query and returns raw results.
type Client interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

type googleItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type googleResponse struct {
	Items []googleItem `json:"items"`
}

// GoogleClient queries the Google Custom Search JSON API. With empty
// credentials it degrades to a no-op that returns no results and no error,
// so the rest of the pipeline runs unchanged without a configured engine.
type GoogleClient struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
}

// NewGoogleClient creates a search client. Empty apiKey or engineID is valid
// and produces a client whose Search always returns empty results.
func NewGoogleClient(apiKey, engineID string, client *http.Client) *GoogleClient {
	return &GoogleClient{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  googleBaseURL,
		client:   client,
	}
}

var _ Client = (*GoogleClient)(nil)

// CredentialsMissing reports whether the client has no usable credentials.
func (c *GoogleClient) CredentialsMissing() bool {
	return c.apiKey == "" || c.engineID == ""
}

// Search runs one query and returns up to ten results.
func (c *GoogleClient) Search(ctx context.Context, query string) ([]Result, error) {
	if c.CredentialsMissing() {
		return nil, nil
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", query)
	q.Set("num", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("google search"),
		}
	}

	var gResp googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}

	results := make([]Result, 0, len(gResp.Items))
	for _, item := range gResp.Items {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			URL:     item.Link,
		})
	}
	return results, nil
}
