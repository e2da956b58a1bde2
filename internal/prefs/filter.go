// Package prefs applies user search criteria to postings and reorders them
// by target-company affinity.
package prefs

import (
	"regexp"
	"strings"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// genericTerms are titles' most overloaded words: matched loosely they pull
// in modifier usages ("Marketing Manager" for "Manager"), so they get a
// stricter positional rule.
var genericTerms = map[string]bool{
	"manager":  true,
	"engineer": true,
}

// Filter keeps postings matching the preference. Rules apply in order —
// location, keyword, employment type, minimum salary — short-circuiting on
// the first failure. Missing posting data is treated permissively.
func Filter(postings []model.JobPosting, pref model.UserPreference) []model.JobPosting {
	var out []model.JobPosting
	for _, p := range postings {
		if !matchesLocation(p, pref.Locations) {
			continue
		}
		if !matchesKeyword(p, pref.Keywords) {
			continue
		}
		if !matchesEmploymentType(p, pref.EmploymentTypes) {
			continue
		}
		if !meetsSalaryFloor(p, pref.MinSalary) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// isRemoteLocation reports whether a location string signals remote work.
func isRemoteLocation(location string) bool {
	lower := strings.ToLower(location)
	return strings.Contains(lower, "remote") ||
		strings.Contains(lower, "anywhere") ||
		strings.Contains(lower, "worldwide")
}

// matchesLocation applies the location rule: a remote-tagged posting is
// universally eligible; a "remote" preference matches remote postings; any
// other preference matches by case-insensitive substring.
func matchesLocation(p model.JobPosting, locations []string) bool {
	if len(locations) == 0 {
		return true
	}
	if isRemoteLocation(p.Location) {
		return true
	}
	lower := strings.ToLower(p.Location)
	for _, loc := range locations {
		loc = strings.ToLower(strings.TrimSpace(loc))
		if loc == "" {
			continue
		}
		if loc == "remote" {
			// Only remote postings satisfy a remote preference, and those
			// already passed above.
			continue
		}
		if strings.Contains(lower, loc) {
			return true
		}
	}
	return false
}

// matchesKeyword applies the keyword rule: the posting passes if any
// preference keyword matches.
func matchesKeyword(p model.JobPosting, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(kw, " ") {
			if matchesPhrase(p.Title, kw) {
				return true
			}
			continue
		}
		if matchesSingleWord(p, kw) {
			return true
		}
	}
	return false
}

// matchesPhrase handles multi-word keywords: every constituent word must
// appear in the title as a whole word, or the literal phrase must appear.
// The description is deliberately not consulted for phrases.
func matchesPhrase(title, phrase string) bool {
	lower := strings.ToLower(title)
	if strings.Contains(lower, phrase) {
		return true
	}
	for _, word := range strings.Fields(phrase) {
		if !containsWholeWord(lower, word) {
			return false
		}
	}
	return true
}

// matchesSingleWord handles single-word keywords. Generic terms must be the
// title's leading token or a token immediately followed by a comma, which
// rejects modifier usages like "Marketing Manager" when searching for
// "Manager". Other words match the title as a whole word, or, with lower
// priority, the description.
func matchesSingleWord(p model.JobPosting, word string) bool {
	titleLower := strings.ToLower(p.Title)
	if genericTerms[word] {
		if strings.HasPrefix(titleLower, word+" ") || titleLower == word {
			return true
		}
		return strings.Contains(titleLower, word+",")
	}
	if containsWholeWord(titleLower, word) {
		return true
	}
	return containsWholeWord(strings.ToLower(p.Description), word)
}

// containsWholeWord reports whether word occurs in text on word boundaries.
// Both arguments must already be lower-cased.
func containsWholeWord(text, word string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// matchesEmploymentType compares normalized employment types, tolerant of
// common synonyms. Postings without a type are kept.
func matchesEmploymentType(p model.JobPosting, types []string) bool {
	if len(types) == 0 || p.EmploymentType == "" {
		return true
	}
	postingType := normalizeEmployment(p.EmploymentType)
	for _, t := range types {
		want := normalizeEmployment(t)
		if want == "" {
			continue
		}
		if want == postingType {
			return true
		}
		// "Remote" used as an employment type matches remote postings.
		if want == "remote" && isRemoteLocation(p.Location) {
			return true
		}
	}
	return false
}

// normalizeEmployment collapses synonym spellings onto canonical tokens.
func normalizeEmployment(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "_", " ")
	v = strings.ReplaceAll(v, "-", " ")
	switch {
	case v == "":
		return ""
	case strings.Contains(v, "intern"):
		return "internship"
	case strings.Contains(v, "part"):
		return "parttime"
	case strings.Contains(v, "contract") || strings.Contains(v, "freelance"):
		return "contract"
	case strings.Contains(v, "full"):
		return "fulltime"
	case strings.Contains(v, "remote"):
		return "remote"
	default:
		return v
	}
}

// meetsSalaryFloor rejects postings whose extracted salary falls below the
// floor. Postings with absent or unparseable salary text are kept — the
// filter is permissive on missing data.
func meetsSalaryFloor(p model.JobPosting, minSalary int) bool {
	if minSalary <= 0 {
		return true
	}
	amount, ok := ExtractSalary(p.Salary)
	if !ok {
		return true
	}
	return amount >= minSalary
}

// Prioritize partitions the postings into target-company matches
// (case-insensitive substring) and the rest, target matches first, each
// partition keeping its relative order. Target companies never filter.
func Prioritize(postings []model.JobPosting, targetCompanies []string) []model.JobPosting {
	if len(targetCompanies) == 0 {
		return postings
	}

	var targets, others []model.JobPosting
	for _, p := range postings {
		if isTargetCompany(p.Company, targetCompanies) {
			targets = append(targets, p)
		} else {
			others = append(others, p)
		}
	}
	return append(targets, others...)
}

func isTargetCompany(company string, targets []string) bool {
	lower := strings.ToLower(company)
	for _, t := range targets {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
