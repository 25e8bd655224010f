// internal/workers/procurement/fetch-vendor-candidates/models.go
package fetchvendorcandidates

import "vendor-matching/internal/models"

type Input struct {
	Demand      models.Demand `json:"demand"`
	Preferences []string      `json:"preferences"`
	Top         int           `json:"top,omitempty"`
}

type Output struct {
	DemandKey  string          `json:"demandKey"`
	QueryTerm  string          `json:"queryTerm"`
	Vendors    []models.Vendor `json:"vendors"`
	PreScored  bool            `json:"preScored"`
	NoVendors  bool            `json:"noVendorsFound"`
	QueryError string          `json:"queryError,omitempty"`
}
