package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
)

// ATS platforms whose hosted boards are worth a site-restricted query per
// target company.
var atsSites = []string{
	"boards.greenhouse.io",
	"jobs.lever.co",
	"jobs.ashbyhq.com",
	"myworkdayjobs.com",
}

// Major aggregator boards queried for both company and generic sweeps.
var boardSites = []string{
	"linkedin.com/jobs",
	"indeed.com",
}

// Orchestrator drives metered web searches for postings at target companies.
// Queries run strictly sequentially: each call is gated by a per-run quota
// budget and paced by a token bucket, so a run can never burn more than the
// configured number of API calls no matter how many companies users track.
type Orchestrator struct {
	client   Client
	maxCalls int
	limiter  *rate.Limiter
	logger   *slog.Logger
	lastUsed atomic.Int64
}

// CallsUsed reports how many API calls the most recent Run issued.
func (o *Orchestrator) CallsUsed() int {
	return int(o.lastUsed.Load())
}

// NewOrchestrator creates an orchestrator issuing at most maxCalls queries
// per Run, paced at qps queries per second.
func NewOrchestrator(client Client, maxCalls int, qps float64, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client:   client,
		maxCalls: maxCalls,
		limiter:  rate.NewLimiter(rate.Limit(qps), 1),
		logger:   logger,
	}
}

// Run issues site-restricted queries for each target company, or a generic
// keyword sweep when no companies are configured. Hitting the quota ceiling
// stops the run silently and returns the partial results collected so far;
// it is not an error.
func (o *Orchestrator) Run(ctx context.Context, companies, keywords []string) ([]model.JobPosting, error) {
	budget := NewQuotaBudget(o.maxCalls)
	defer func() { o.lastUsed.Store(int64(budget.Used())) }()

	var queries []companyQuery
	if len(companies) > 0 {
		for _, company := range companies {
			for _, q := range queriesForCompany(company, keywords) {
				queries = append(queries, companyQuery{company: company, query: q})
			}
		}
	} else {
		for _, q := range genericQueries(keywords) {
			queries = append(queries, companyQuery{query: q})
		}
	}

	var postings []model.JobPosting
	seen := make(map[string]struct{})

	for _, cq := range queries {
		if !budget.TryAcquire() {
			o.logger.Info("search quota exhausted, returning partial results",
				"used", budget.Used(),
				"queries_skipped", len(queries)-budget.Used(),
			)
			break
		}

		if err := o.limiter.Wait(ctx); err != nil {
			return postings, fmt.Errorf("search pacing: %w", err)
		}

		results, err := o.client.Search(ctx, cq.query)
		if err != nil {
			if ctx.Err() != nil {
				return postings, ctx.Err()
			}
			o.logger.Warn("search query failed", "query", cq.query, "error", err)
			continue
		}

		for _, r := range results {
			p, ok := Classify(r, cq.company, keywords)
			if !ok {
				continue
			}
			if _, dup := seen[p.URL]; dup {
				continue
			}
			seen[p.URL] = struct{}{}
			postings = append(postings, p)
		}
	}

	o.logger.Info("search orchestrator finished",
		"queries_issued", budget.Used(),
		"postings", len(postings),
	)
	return postings, nil
}

type companyQuery struct {
	company string
	query   string
}

func queriesForCompany(company string, keywords []string) []string {
	kw := strings.Join(keywords, " ")
	queries := make([]string, 0, len(atsSites)+len(boardSites)+1)
	for _, site := range atsSites {
		queries = append(queries, strings.TrimSpace(fmt.Sprintf("site:%s %q %s", site, company, kw)))
	}
	if slug := companySlug(company); slug != "" {
		queries = append(queries, strings.TrimSpace(fmt.Sprintf("site:%s.com careers %s", slug, kw)))
	}
	for _, site := range boardSites {
		queries = append(queries, strings.TrimSpace(fmt.Sprintf("site:%s %q %s", site, company, kw)))
	}
	return queries
}

func genericQueries(keywords []string) []string {
	var queries []string
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw == "" {
			continue
		}
		for _, site := range boardSites {
			queries = append(queries, fmt.Sprintf("site:%s %q", site, kw))
		}
		queries = append(queries, fmt.Sprintf("%q hiring", kw))
	}
	return queries
}

// companySlug guesses the company's domain label: lower-cased with anything
// that can't appear in a hostname removed.
func companySlug(company string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(company) {
		if 'a' <= r && r <= 'z' || '0' <= r && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
