// internal/matching/scoring.go
package matching

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"vendor-matching/internal/models"
)

const (
	// MaxScore is the upper bound of a reported composite score.
	MaxScore = 10.0
	// scoreScale maps the weighted [0,1] sum onto the reported 0-10 range.
	scoreScale = 10.0
	// ratingScale is the range of quality and reliability ratings.
	ratingScale = 10.0
)

// SubScores holds the per-dimension scores of one vendor, each in [0,1].
type SubScores struct {
	Qty         float64 `json:"qty"`
	Cost        float64 `json:"cost"`
	Delivery    float64 `json:"delivery"`
	Quality     float64 `json:"quality"`
	Reliability float64 `json:"reliability"`
}

// Composite applies a weight vector to the sub-scores.
func (s SubScores) Composite(w WeightVector) float64 {
	return w.Qty*s.Qty +
		w.Cost*s.Cost +
		w.Delivery*s.Delivery +
		w.Quality*s.Quality +
		w.Reliability*s.Reliability
}

// costRange is the batch-relative cost window used by the cost sub-score.
// The ceiling is never below 1 and the floor never below 0.
type costRange struct {
	min, max float64
}

func newCostRange(vendors []models.Vendor) costRange {
	if len(vendors) == 0 {
		return costRange{min: 0, max: 1}
	}
	r := costRange{min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range vendors {
		c := nonNegative(v.LandedCost.Float64())
		r.min = math.Min(r.min, c)
		r.max = math.Max(r.max, c)
	}
	r.max = math.Max(r.max, 1)
	return r
}

func (r costRange) score(cost float64) float64 {
	span := r.max - r.min
	if span <= 0 {
		span = 1
	}
	return (r.max - nonNegative(cost)) / span
}

// QuantityScore peaks at 1 when supply matches demand and decays
// exponentially with the absolute mismatch relative to the order size.
func QuantityScore(available, requested float64) float64 {
	available = nonNegative(available)
	requested = nonNegative(requested)
	return math.Exp(-math.Abs(available-requested) / math.Max(1, requested))
}

// DeliveryScore is 1/days; a missing or non-positive lead time scores zero.
// Sub-day lead times are capped at 1.
func DeliveryScore(days float64) float64 {
	if days <= 0 || math.IsNaN(days) || math.IsInf(days, 0) {
		return 0
	}
	return math.Min(1, 1/days)
}

// RatingScore maps a 0-10 rating onto [0,1], clamping out-of-range input.
// Non-finite ratings score zero.
func RatingScore(rating float64) float64 {
	return clamp(nonNegative(rating), 0, ratingScale) / ratingScale
}

// SubScoresFor computes the sub-scores of every vendor in the batch. The cost
// sub-score is relative to the whole batch, so vendors must not be scored one
// at a time.
func SubScoresFor(demand models.Demand, vendors []models.Vendor) []SubScores {
	costs := newCostRange(vendors)
	requested := demand.RequestedQty()

	out := make([]SubScores, len(vendors))
	for i, v := range vendors {
		out[i] = SubScores{
			Qty:         QuantityScore(v.AvailableQty.Float64(), requested),
			Cost:        costs.score(v.LandedCost.Float64()),
			Delivery:    DeliveryScore(v.DeliveryDays.Float64()),
			Quality:     RatingScore(v.QualityScore.Float64()),
			Reliability: RatingScore(v.ReliabilityScore.Float64()),
		}
	}
	return out
}

// RoundScore scales a weighted sum to the 0-10 range and rounds it to two
// decimal places.
func RoundScore(weighted float64) float64 {
	if math.IsNaN(weighted) {
		return 0
	}
	scaled := clamp(weighted*scoreScale, 0, MaxScore)
	return decimal.NewFromFloat(scaled).Round(2).InexactFloat64()
}

// Score assigns a composite score to every vendor and returns them sorted
// descending by score. Ties keep their input order. The input slice is not
// modified; an empty input yields an empty, non-nil result.
func Score(demand models.Demand, vendors []models.Vendor, weights WeightVector) []models.Vendor {
	subs := SubScoresFor(demand, vendors)

	scored := make([]models.Vendor, len(vendors))
	for i, v := range vendors {
		scored[i] = v.WithScore(RoundScore(subs[i].Composite(weights)))
	}

	SortByScore(scored)
	return scored
}

// SortByScore orders vendors descending by score, stable on ties.
func SortByScore(vendors []models.Vendor) {
	sort.SliceStable(vendors, func(i, j int) bool {
		return vendors[i].ScoreValue() > vendors[j].ScoreValue()
	})
}

// nonNegative maps negative and non-finite input to zero.
func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
