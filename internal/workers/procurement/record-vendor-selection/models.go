// internal/workers/procurement/record-vendor-selection/models.go
package recordvendorselection

import (
	"time"

	"vendor-matching/internal/models"
)

// Input names the RFQ and the demand within it, either by its line item or by
// an identity key produced by an earlier step. DemandKey wins when both are
// set.
type Input struct {
	RFQID     string         `json:"rfqId"`
	Demand    *models.Demand `json:"demand,omitempty"`
	DemandKey string         `json:"demandKey,omitempty"`
	Vendor    models.Vendor  `json:"vendor"`
}

type Output struct {
	SelectionID string    `json:"selectionId"`
	RFQID       string    `json:"rfqId"`
	DemandKey   string    `json:"demandKey"`
	VendorID    string    `json:"selectedVendorId"`
	SelectedAt  time.Time `json:"selectedAt"`
}
