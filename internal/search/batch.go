// internal/search/batch.go
package search

import (
	"context"
	"time"

	"vendor-matching/internal/matching"
	"vendor-matching/internal/models"

	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 4

// MatchAll ranks vendors for every line item of an RFQ under one preference
// set. Results keep the input order. Line items in one batch never supersede
// each other, even when they share an identity key.
func (s *Searcher) MatchAll(ctx context.Context, demands []models.Demand, prefs matching.PreferenceSet, top, concurrency int) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	results := make([]Result, len(demands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range demands {
		i := i
		demand := demands[i]
		demand.Position = i

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = s.evaluate(gctx, Request{Demand: demand, Preferences: prefs, Top: top})
			s.record(gctx, results[i], time.Since(start))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("rfq matched", map[string]interface{}{
		"lineItems": len(demands),
		"prefs":     prefs.String(),
	})
	return results, nil
}
