package adapter

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities, strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// formatSalary derives a display range from provider min/max fields.
// Zero bounds are omitted; both zero yields an empty string.
func formatSalary(minAmount, maxAmount int64, currency string) string {
	if currency == "" {
		currency = "$"
	}
	switch {
	case minAmount > 0 && maxAmount > 0:
		return fmt.Sprintf("%s%d - %s%d", currency, minAmount, currency, maxAmount)
	case minAmount > 0:
		return fmt.Sprintf("%s%d+", currency, minAmount)
	case maxAmount > 0:
		return fmt.Sprintf("up to %s%d", currency, maxAmount)
	default:
		return ""
	}
}

// mapEmploymentType normalizes provider-specific employment values onto the
// closed vocabulary. Unrecognized values map to the empty string.
func mapEmploymentType(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "_", " ")
	v = strings.ReplaceAll(v, "-", " ")
	switch {
	case v == "":
		return ""
	case strings.Contains(v, "intern"):
		return model.EmploymentInternship
	case strings.Contains(v, "part"):
		return model.EmploymentPartTime
	case strings.Contains(v, "contract") || strings.Contains(v, "freelance") || strings.Contains(v, "temporary"):
		return model.EmploymentContract
	case strings.Contains(v, "full"):
		return model.EmploymentFullTime
	default:
		return ""
	}
}

// tagRemote prefixes a location with "Remote" when the provider signals
// remote work but the location text doesn't already say so.
func tagRemote(location string) string {
	if location == "" {
		return "Remote"
	}
	if strings.Contains(strings.ToLower(location), "remote") {
		return location
	}
	return "Remote - " + location
}

// matchesKeywords reports whether the posting text matches at least one of
// the given keywords (case-insensitive substring). An empty keyword list
// matches everything. Used by adapters whose provider offers no server-side
// filter.
func matchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// matchesLocations reports whether the posting location matches at least one
// requested location. Remote postings pass any location list.
func matchesLocations(location string, locations []string) bool {
	if len(locations) == 0 {
		return true
	}
	lower := strings.ToLower(location)
	if strings.Contains(lower, "remote") || strings.Contains(lower, "anywhere") || strings.Contains(lower, "worldwide") {
		return true
	}
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(loc)) {
			return true
		}
	}
	return false
}
