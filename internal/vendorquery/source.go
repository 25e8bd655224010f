// internal/vendorquery/source.go
package vendorquery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vendor-matching/internal/matching"
	"vendor-matching/internal/models"
)

var (
	ErrUnexpectedPayload = errors.New("unexpected vendor payload")
	ErrEmptyTerm         = errors.New("query term is empty")
)

// Source fetches the current candidate vendors for one query.
type Source interface {
	Name() string
	FetchCandidates(ctx context.Context, q Query) (*CandidateSet, error)
}

// Query identifies one vendor lookup. Two queries with the same Key are
// interchangeable.
type Query struct {
	Term        string
	Preferences matching.PreferenceSet
	Top         int
	// Quantity is the requested quantity, sent so a pre-scoring service
	// can score the quantity match. Zero means not sent.
	Quantity float64
}

// NewQuery builds the lookup for a demand. Only sku or INN name and the
// requested quantity are sent.
func NewQuery(demand models.Demand, prefs matching.PreferenceSet, top int) Query {
	return Query{
		Term:        demand.QueryTerm(),
		Preferences: prefs,
		Top:         top,
		Quantity:    demand.RequestedQty(),
	}
}

// Key is the canonical identity of the query.
func (q Query) Key() string {
	return strings.Join([]string{
		strings.TrimSpace(q.Term),
		q.Preferences.String(),
		strconv.Itoa(q.Top),
		strconv.FormatFloat(q.Quantity, 'f', -1, 64),
	}, "|")
}

// CandidateSet is what a source returned. PreScored sets carry server-side
// scores in ranked order and must not be re-scored.
type CandidateSet struct {
	Vendors   []models.Vendor `json:"vendors"`
	PreScored bool            `json:"preScored"`

	// Err is set by Client when the lookup failed open.
	Err error `json:"-"`
}

// Failed reports whether the set is empty because the lookup failed.
func (s CandidateSet) Failed() bool {
	return s.Err != nil
}

func emptySet() *CandidateSet {
	return &CandidateSet{Vendors: []models.Vendor{}}
}

// decodeCandidates accepts either a flat array of raw vendors or the
// pre-split {top_vendor, other_vendors} object. Pre-split lists are put in
// descending score order; their scores are kept as sent.
func decodeCandidates(body []byte) (*CandidateSet, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptySet(), nil
	}

	switch trimmed[0] {
	case '[':
		var vendors []models.Vendor
		if err := json.Unmarshal(trimmed, &vendors); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
		}
		return &CandidateSet{Vendors: stripScores(vendors)}, nil

	case '{':
		var ranked models.RankedVendors
		if err := json.Unmarshal(trimmed, &ranked); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
		}
		vendors := ranked.Flatten()
		matching.SortByScore(vendors)
		return &CandidateSet{Vendors: vendors, PreScored: true}, nil

	default:
		return nil, fmt.Errorf("%w: body starts with %q", ErrUnexpectedPayload, trimmed[0])
	}
}

// stripScores drops any score a raw source sent; scores are always derived locally.
func stripScores(vendors []models.Vendor) []models.Vendor {
	if vendors == nil {
		return []models.Vendor{}
	}
	for i := range vendors {
		vendors[i].Score = nil
	}
	return vendors
}
