package session

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/doccontent/internal/logging"
)

// RunMany runs count sessions with seeds cfg.Seed, cfg.Seed+1, ... on up to
// jobs goroutines. Reports are returned in seed order. Sessions keep running
// after a failure so that every failing seed is reported.
func RunMany(ctx context.Context, cfg Config, count, jobs int) ([]Report, error) {
	if jobs < 1 {
		jobs = runtime.GOMAXPROCS(0)
	}
	logger := logging.FromContext(ctx)

	reports := make([]Report, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range count {
		g.Go(func() error {
			c := cfg
			c.Seed = cfg.Seed + uint64(i)
			reports[i] = Run(gctx, c)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}

	failed := 0
	for _, r := range reports {
		if !r.OK() {
			failed++
		}
	}
	logger.Info("sessions finished", logging.FieldSession, count, logging.FieldFailures, failed)
	return reports, nil
}

// Failed returns the reports that carry a failure.
func Failed(reports []Report) []Report {
	var out []Report
	for _, r := range reports {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
