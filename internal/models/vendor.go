// internal/models/vendor.go
package models

// Vendor is a candidate offer against a demand. Score is nil on the raw
// (fetched) form and set by the scoring engine or a pre-scoring service.
type Vendor struct {
	VendorID         string   `json:"vendorId"`
	Name             string   `json:"name"`
	Country          string   `json:"country,omitempty"`
	AvailableQty     Number   `json:"availableQty"`
	LandedCost       Number   `json:"landedCost"`
	DeliveryDays     Number   `json:"deliveryDays"`
	QualityScore     Number   `json:"qualityScore"`
	ReliabilityScore Number   `json:"reliabilityScore"`
	Score            *float64 `json:"score,omitempty"`
}

// IsScored reports whether the vendor carries a composite score.
func (v Vendor) IsScored() bool {
	return v.Score != nil
}

// WithScore returns a copy of the vendor carrying the given score.
func (v Vendor) WithScore(score float64) Vendor {
	v.Score = &score
	return v
}

// ScoreValue returns the score or zero for a raw vendor.
func (v Vendor) ScoreValue() float64 {
	if v.Score == nil {
		return 0
	}
	return *v.Score
}

// RankedVendors is the pre-split shape returned by a pre-scoring service and
// by this service's own API.
type RankedVendors struct {
	TopVendor    *Vendor  `json:"top_vendor"`
	OtherVendors []Vendor `json:"other_vendors"`
}

// Flatten concatenates the top vendor and the rest into one ranked list.
func (r RankedVendors) Flatten() []Vendor {
	out := make([]Vendor, 0, len(r.OtherVendors)+1)
	if r.TopVendor != nil {
		out = append(out, *r.TopVendor)
	}
	return append(out, r.OtherVendors...)
}
