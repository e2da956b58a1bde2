package prefs

import (
	"regexp"
	"strconv"
	"strings"
)

// salaryRegex captures the first currency-formatted integer in free text:
// an optional currency symbol, digit groups with optional thousands commas,
// and an optional k-suffix.
var salaryRegex = regexp.MustCompile(`[$€£]?\s*(\d{1,3}(?:,\d{3})+|\d+)\s*([kK])?`)

// ExtractSalary pulls the first currency-formatted integer out of a salary
// string. This is a best-effort heuristic over free text: ranges yield their
// lower bound, "120k" expands to 120000, and anything unparseable reports
// ok=false. False negatives and positives are inherent to the domain.
func ExtractSalary(text string) (amount int, ok bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}

	m := salaryRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	digits := strings.ReplaceAll(m[1], ",", "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	if m[2] != "" {
		n *= 1000
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}
