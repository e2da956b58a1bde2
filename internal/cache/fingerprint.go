package cache

import (
	"sort"
	"strings"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// Fingerprint derives the cache key for a search: a pure function of the
// normalized inputs. Identical semantic searches yield identical
// fingerprints regardless of keyword ordering or case.
func Fingerprint(params model.SearchParams) string {
	keywords := make([]string, 0, len(params.Keywords))
	for _, kw := range params.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	sort.Strings(keywords)

	mode := "onsite"
	if params.Remote {
		mode = "remote"
	}

	return strings.Join(keywords, ",") + "|" + strings.ToLower(strings.TrimSpace(params.Location)) + "|" + mode
}
