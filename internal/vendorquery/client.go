// internal/vendorquery/client.go
package vendorquery

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "vendor-matching/internal/common/errors"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/common/metrics"
)

// Client fetches candidates and never fails: any lookup error is logged,
// counted and returned as an empty set with Err populated.
type Client struct {
	source  Source
	timeout time.Duration
	logger  logger.Logger
}

func NewClient(source Source, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		source:  source,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "vendorquery", "source": source.Name()}),
	}
}

// Fetch runs one lookup. An empty term yields an empty set without a call.
func (c *Client) Fetch(ctx context.Context, q Query) CandidateSet {
	if strings.TrimSpace(q.Term) == "" {
		metrics.VendorQueries.WithLabelValues(c.source.Name(), "skipped").Inc()
		return *emptySet()
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	set, err := c.source.FetchCandidates(callCtx, q)
	metrics.VendorQueryDuration.WithLabelValues(c.source.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		return c.failOpen(ctx, callCtx, q, err)
	}
	if set == nil {
		set = emptySet()
	}
	if set.Vendors == nil {
		set.Vendors = emptySet().Vendors
	}

	outcome := "ok"
	if len(set.Vendors) == 0 {
		outcome = "empty"
	}
	metrics.VendorQueries.WithLabelValues(c.source.Name(), outcome).Inc()

	c.logger.Debug("vendor candidates fetched", map[string]interface{}{
		"term":      q.Term,
		"count":     len(set.Vendors),
		"preScored": set.PreScored,
	})
	return *set
}

func (c *Client) failOpen(parent, callCtx context.Context, q Query, err error) CandidateSet {
	set := *emptySet()

	switch {
	case errors.Is(parent.Err(), context.Canceled):
		// caller moved on; nothing to report
		metrics.VendorQueries.WithLabelValues(c.source.Name(), "cancelled").Inc()
		set.Err = context.Canceled
		return set

	case errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		set.Err = apperrors.NewVendorQueryTimeoutError(q.Term)

	default:
		set.Err = apperrors.NewVendorQueryFailedError(q.Term, err)
	}

	metrics.VendorQueries.WithLabelValues(c.source.Name(), "error").Inc()
	c.logger.Warn("vendor query failed, returning no candidates", map[string]interface{}{
		"term":  q.Term,
		"prefs": q.Preferences.String(),
		"error": err,
	})
	return set
}
