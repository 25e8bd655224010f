// internal/search/searcher.go
package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/common/metrics"
	"vendor-matching/internal/common/observability"
	"vendor-matching/internal/matching"
	"vendor-matching/internal/models"
	"vendor-matching/internal/vendorquery"
)

// ErrSuperseded is returned when a newer search for the same demand in the
// same session started before this one finished. Its result must not be shown.
var ErrSuperseded = errors.New("search superseded by a newer request")

// Fetcher is satisfied by *vendorquery.Client.
type Fetcher interface {
	Fetch(ctx context.Context, q vendorquery.Query) vendorquery.CandidateSet
}

// Request is one fetch-and-score for a demand under an explicit preference set.
// Session scopes supersession: only a newer request with the same Session and
// demand key supersedes this one. An empty Session never supersedes or is
// superseded.
type Request struct {
	Session     string
	Demand      models.Demand
	Preferences matching.PreferenceSet
	Top         int
}

// Result is a ranked candidate list for one demand.
type Result struct {
	DemandKey   string                `json:"demandKey"`
	Demand      models.Demand         `json:"demand"`
	Preferences []string              `json:"preferences"`
	Weights     matching.WeightVector `json:"weights"`
	matching.Ranking
	PreScored  bool   `json:"preScored"`
	NoVendors  bool   `json:"noVendorsFound"`
	QueryError string `json:"queryError,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
	Superseded bool   `json:"superseded,omitempty"`
}

type inflight struct {
	generation uint64
	cancel     context.CancelFunc
}

// Searcher runs searches per demand. Within a session, a new Search for a
// demand cancels the one in flight. Generations come from one counter, so a
// finished search can never match a later one.
type Searcher struct {
	fetcher    Fetcher
	defaultTop int
	obs        *observability.Observability
	logger     logger.Logger

	mu      sync.Mutex
	lastGen uint64
	running map[scope]inflight
}

type scope struct {
	session   string
	demandKey string
}

type Option func(*Searcher)

func WithDefaultTop(n int) Option {
	return func(s *Searcher) { s.defaultTop = n }
}

func WithObservability(obs *observability.Observability) Option {
	return func(s *Searcher) { s.obs = obs }
}

func NewSearcher(fetcher Fetcher, log logger.Logger, opts ...Option) *Searcher {
	s := &Searcher{
		fetcher: fetcher,
		logger:  log.WithFields(map[string]interface{}{"component": "search"}),
		running: make(map[scope]inflight),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search fetches and ranks candidates for the demand. It returns ErrSuperseded
// when a later Search for the same session and demand was issued in the
// meantime.
func (s *Searcher) Search(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if req.Session == "" {
		result := s.evaluate(ctx, req)
		s.record(ctx, result, time.Since(start))
		return result, nil
	}

	sc := scope{session: req.Session, demandKey: req.Demand.IdentityKey()}
	gen, ctx := s.begin(ctx, sc)
	defer s.finish(sc, gen)

	result := s.evaluate(ctx, req)
	result.Generation = gen

	if !s.IsCurrent(sc.session, sc.demandKey, gen) {
		metrics.SearchesSuperseded.Inc()
		s.obs.RecordSearch(ctx, time.Since(start), "superseded")
		s.logger.Debug("discarding superseded search", map[string]interface{}{
			"session":    sc.session,
			"demandKey":  sc.demandKey,
			"generation": gen,
		})
		return Result{DemandKey: sc.demandKey, Generation: gen, Superseded: true}, ErrSuperseded
	}

	s.record(ctx, result, time.Since(start))
	return result, nil
}

// Generation returns the generation of the search in flight for the session
// and demand key, or zero when none is running.
func (s *Searcher) Generation(session, demandKey string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[scope{session: session, demandKey: demandKey}].generation
}

// IsCurrent reports whether gen is still the newest search in flight for the
// session and demand.
func (s *Searcher) IsCurrent(session, demandKey string, gen uint64) bool {
	return gen != 0 && s.Generation(session, demandKey) == gen
}

// InFlight reports how many session-scoped searches are running.
func (s *Searcher) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}

func (s *Searcher) begin(parent context.Context, sc scope) (uint64, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.running[sc]; ok {
		prev.cancel()
	}
	s.lastGen++
	gen := s.lastGen
	s.running[sc] = inflight{generation: gen, cancel: cancel}
	return gen, ctx
}

// finish releases the scope when gen is still its newest search. A
// superseded search's context was already cancelled by its successor.
func (s *Searcher) finish(sc scope, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.running[sc]; ok && cur.generation == gen {
		cur.cancel()
		delete(s.running, sc)
	}
}

// evaluate is one fetch and rank without generation tracking.
func (s *Searcher) evaluate(ctx context.Context, req Request) Result {
	top := req.Top
	if top <= 0 {
		top = s.defaultTop
	}

	weights := matching.ResolveWeights(req.Preferences)
	set := s.fetcher.Fetch(ctx, vendorquery.NewQuery(req.Demand, req.Preferences, top))

	var ranking matching.Ranking
	if set.PreScored {
		sorted := append([]models.Vendor(nil), set.Vendors...)
		matching.SortByScore(sorted)
		ranking = matching.NewRanking(matching.Limit(sorted, top))
	} else {
		ranking = matching.Rank(req.Demand, set.Vendors, weights, top)
	}

	result := Result{
		DemandKey:   req.Demand.IdentityKey(),
		Demand:      req.Demand,
		Preferences: req.Preferences.Strings(),
		Weights:     weights,
		Ranking:     ranking,
		PreScored:   set.PreScored,
		NoVendors:   ranking.Empty(),
	}
	if set.Failed() && !errors.Is(set.Err, context.Canceled) {
		result.QueryError = set.Err.Error()
	}
	return result
}

func (s *Searcher) record(ctx context.Context, result Result, elapsed time.Duration) {
	metrics.VendorsScored.Observe(float64(len(result.Vendors())))

	outcome := "ranked"
	if result.NoVendors {
		outcome = "empty"
	} else {
		s.obs.RecordTopScore(ctx, result.Top.ScoreValue())
	}
	s.obs.RecordSearch(ctx, elapsed, outcome)
}
