// internal/matching/ranking.go
package matching

import "vendor-matching/internal/models"

// Ranking is a scored candidate list split into the recommendation and the
// remaining options, both in descending score order.
type Ranking struct {
	Top    *models.Vendor  `json:"topVendor"`
	Others []models.Vendor `json:"otherVendors"`
}

// NewRanking splits an already sorted list. The caller owns the ordering.
func NewRanking(sorted []models.Vendor) Ranking {
	if len(sorted) == 0 {
		return Ranking{Others: []models.Vendor{}}
	}
	top := sorted[0]
	others := make([]models.Vendor, len(sorted)-1)
	copy(others, sorted[1:])
	return Ranking{Top: &top, Others: others}
}

// Rank scores raw vendors and splits the result. top caps the number of
// vendors kept after ranking; zero or negative keeps all of them.
func Rank(demand models.Demand, vendors []models.Vendor, weights WeightVector, top int) Ranking {
	return NewRanking(Limit(Score(demand, vendors, weights), top))
}

// Vendors returns the ranking as one list, recommendation first.
func (r Ranking) Vendors() []models.Vendor {
	out := make([]models.Vendor, 0, len(r.Others)+1)
	if r.Top != nil {
		out = append(out, *r.Top)
	}
	return append(out, r.Others...)
}

// Empty reports whether no vendor was found.
func (r Ranking) Empty() bool {
	return r.Top == nil
}

// Wire converts the ranking to the pre-split wire shape.
func (r Ranking) Wire() models.RankedVendors {
	return models.RankedVendors{TopVendor: r.Top, OtherVendors: r.Others}
}

// Limit keeps at most n vendors; n <= 0 keeps all of them.
func Limit(vendors []models.Vendor, n int) []models.Vendor {
	if n <= 0 || len(vendors) <= n {
		return vendors
	}
	return vendors[:n]
}
