// Package discovery executes search queries and yields deduplicated candidate
// URLs in rank order. All external calls made during a run, including page
// fetches owned by other components, are paced through the limiter here so
// third-party rate limits are respected; that spacing is a hard serialization
// point, not a concurrency bound.
package discovery

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/pkg/websearch"
)

// Discovery streams candidates for a run. It is not restartable across runs:
// the seen-URL set lives only inside one Discover call.
type Discovery struct {
	search      websearch.Client
	limiter     *rate.Limiter
	perQueryCap int
}

// Option configures Discovery.
type Option func(*Discovery)

// WithLimiter replaces the pacing limiter, letting tests run without delay.
func WithLimiter(l *rate.Limiter) Option {
	return func(d *Discovery) {
		d.limiter = l
	}
}

// New creates a Discovery with the given minimum spacing (seconds) between
// consecutive external requests and a per-query result cap.
func New(search websearch.Client, spacingSecs float64, perQueryCap int, opts ...Option) *Discovery {
	if spacingSecs <= 0 {
		spacingSecs = 2
	}
	if perQueryCap <= 0 {
		perQueryCap = 10
	}
	d := &Discovery{
		search:      search,
		limiter:     rate.NewLimiter(rate.Limit(1/spacingSecs), 1),
		perQueryCap: perQueryCap,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Pace blocks until the next external request is allowed. The orchestrator
// calls this before page fetches so searches and fetches share one budget.
func (d *Discovery) Pace(ctx context.Context) error {
	return d.limiter.Wait(ctx)
}

// Discover runs the queries in order and invokes visit for each candidate in
// discovery rank order, skipping URLs already seen this run. visit returns
// false to stop early (quota reached). A failing query is logged and skipped;
// remaining queries still execute. Only context cancellation aborts the walk.
func (d *Discovery) Discover(ctx context.Context, searchQueries []string, visit func(model.Candidate) bool) error {
	seen := make(map[string]bool)

	for _, query := range searchQueries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Pace(ctx); err != nil {
			return err
		}

		results, err := d.search.Search(ctx, query, d.perQueryCap)
		if err != nil {
			zap.L().Warn("discovery: query failed, skipping",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}

		for _, r := range results {
			if r.URL == "" {
				continue
			}
			key := model.NormalizeWebsite(r.URL)
			if seen[key] {
				continue
			}
			seen[key] = true

			if !visit(model.Candidate{URL: r.URL, Title: r.Title}) {
				return nil
			}
		}
	}

	return nil
}
