// internal/workers/procurement/score-vendor-candidates/models.go
package scorevendorcandidates

import (
	"vendor-matching/internal/matching"
	"vendor-matching/internal/models"
)

type Input struct {
	Demand      models.Demand          `json:"demand"`
	Vendors     []models.Vendor        `json:"vendors"`
	Preferences []string               `json:"preferences"`
	Weights     *matching.WeightVector `json:"weights,omitempty"`
	PreScored   bool                   `json:"preScored,omitempty"`
	Top         int                    `json:"top,omitempty"`
}

type Output struct {
	DemandKey    string                `json:"demandKey"`
	TopVendor    *models.Vendor        `json:"topVendor"`
	OtherVendors []models.Vendor       `json:"otherVendors"`
	NoVendors    bool                  `json:"noVendorsFound"`
	Weights      matching.WeightVector `json:"weights"`
}
