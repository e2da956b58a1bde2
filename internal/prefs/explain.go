package prefs

import (
	"fmt"
	"strings"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// CheckResult is one filter rule's verdict for a posting.
type CheckResult struct {
	Rule   string
	Passed bool
	Detail string
}

// Explain runs every filter rule against the posting and reports each
// verdict, without short-circuiting. Used by the audit TUI to show why a
// posting was kept or dropped.
func Explain(p model.JobPosting, pref model.UserPreference) []CheckResult {
	results := make([]CheckResult, 0, 4)

	loc := CheckResult{Rule: "location", Passed: matchesLocation(p, pref.Locations)}
	switch {
	case len(pref.Locations) == 0:
		loc.Detail = "no location preference"
	case isRemoteLocation(p.Location):
		loc.Detail = "remote posting, eligible everywhere"
	case loc.Passed:
		loc.Detail = fmt.Sprintf("%q matches a preferred location", p.Location)
	default:
		loc.Detail = fmt.Sprintf("%q matches none of %s", p.Location, strings.Join(pref.Locations, ", "))
	}
	results = append(results, loc)

	kw := CheckResult{Rule: "keywords", Passed: matchesKeyword(p, pref.Keywords)}
	switch {
	case len(pref.Keywords) == 0:
		kw.Detail = "no keyword preference"
	case kw.Passed:
		kw.Detail = fmt.Sprintf("title %q matches %q", p.Title, firstMatchingKeyword(p, pref.Keywords))
	default:
		kw.Detail = fmt.Sprintf("no keyword of %s matches", strings.Join(pref.Keywords, ", "))
	}
	results = append(results, kw)

	emp := CheckResult{Rule: "employment", Passed: matchesEmploymentType(p, pref.EmploymentTypes)}
	switch {
	case len(pref.EmploymentTypes) == 0:
		emp.Detail = "no employment-type preference"
	case p.EmploymentType == "":
		emp.Detail = "posting has no employment type, kept"
	case emp.Passed:
		emp.Detail = fmt.Sprintf("%q accepted", p.EmploymentType)
	default:
		emp.Detail = fmt.Sprintf("%q not in %s", p.EmploymentType, strings.Join(pref.EmploymentTypes, ", "))
	}
	results = append(results, emp)

	sal := CheckResult{Rule: "salary", Passed: meetsSalaryFloor(p, pref.MinSalary)}
	amount, parsed := ExtractSalary(p.Salary)
	switch {
	case pref.MinSalary <= 0:
		sal.Detail = "no salary floor"
	case !parsed:
		sal.Detail = "salary missing or unparseable, kept"
	case sal.Passed:
		sal.Detail = fmt.Sprintf("%d meets floor %d", amount, pref.MinSalary)
	default:
		sal.Detail = fmt.Sprintf("%d below floor %d", amount, pref.MinSalary)
	}
	results = append(results, sal)

	return results
}

func firstMatchingKeyword(p model.JobPosting, keywords []string) string {
	for _, kw := range keywords {
		if matchesKeyword(p, []string{kw}) {
			return kw
		}
	}
	return ""
}
