package search

import (
	"regexp"
	"strings"
	"time"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// jobIndicators are the terms a search hit must contain to be considered a
// posting at all. Results without one are ambiguous and dropped silently.
var jobIndicators = []string{"job", "jobs", "career", "careers", "position", "role", "hiring", "opening"}

var (
	salaryRegex   = regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:[kK])?(?:\s?[-–]\s?[$€£]?\s?\d[\d,]*(?:[kK])?)?`)
	locationRegex = regexp.MustCompile(`(?i)\bin ([A-Z][a-zA-Z.]+(?:\s[A-Z][a-zA-Z.]+)?,\s?[A-Z]{2})\b`)
)

// Classify decides whether a raw search result describes a job posting for the
// given company, and if so converts it. Extraction from the snippet is
// best-effort: location and salary stay empty when nothing plausible is found.
func Classify(r Result, company string, keywords []string) (model.JobPosting, bool) {
	title := strings.ToLower(r.Title)
	snippet := strings.ToLower(r.Snippet)
	haystack := title + " " + snippet

	indicated := false
	for _, term := range jobIndicators {
		if containsToken(haystack, term) {
			indicated = true
			break
		}
	}
	if !indicated {
		return model.JobPosting{}, false
	}

	matched := company != "" && strings.Contains(haystack, strings.ToLower(company))
	if !matched {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
	}
	if !matched {
		return model.JobPosting{}, false
	}

	p := model.JobPosting{
		Source:      "websearch",
		Title:       cleanTitle(r.Title, company),
		Company:     company,
		Description: r.Snippet,
		URL:         r.URL,
		Location:    extractLocation(r.Snippet, haystack),
		Salary:      extractSalaryText(r.Snippet),
		ScrapedAt:   time.Now().UTC(),
	}
	if p.Company == "" {
		p.Company = hostOf(r.URL)
	}
	return p, true
}

var titleSeparators = []string{" | ", " - ", " – ", " — "}

// cleanTitle strips the "- Company | Board" tail search engines append to
// page titles, keeping the leading job-title segment.
func cleanTitle(title, company string) string {
	for {
		idx, sepLen := -1, 0
		for _, sep := range titleSeparators {
			if i := strings.Index(title, sep); i > 0 && (idx == -1 || i < idx) {
				idx, sepLen = i, len(sep)
			}
		}
		if idx == -1 {
			return strings.TrimSpace(title)
		}
		head := strings.TrimSpace(title[:idx])
		// Some boards lead with the company instead of the title.
		if company != "" && strings.EqualFold(head, company) {
			title = strings.TrimSpace(title[idx+sepLen:])
			continue
		}
		return head
	}
}

func extractLocation(snippet, haystack string) string {
	if containsToken(haystack, "remote") {
		return "Remote"
	}
	if m := locationRegex.FindStringSubmatch(snippet); m != nil {
		return m[1]
	}
	return ""
}

func extractSalaryText(snippet string) string {
	return salaryRegex.FindString(snippet)
}

func containsToken(s, token string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	}) {
		if f == token {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	rest := rawURL
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimPrefix(rest, "www.")
}
