// internal/workers/procurement/match-rfq-demands/models.go
package matchrfqdemands

import (
	"vendor-matching/internal/models"
	"vendor-matching/internal/search"
)

type Input struct {
	RFQID       string          `json:"rfqId,omitempty"`
	Demands     []models.Demand `json:"demands"`
	Preferences []string        `json:"preferences"`
	Top         int             `json:"top,omitempty"`
}

type Output struct {
	RFQID     string          `json:"rfqId,omitempty"`
	Results   []search.Result `json:"matches"`
	Matched   int             `json:"matchedCount"`
	Unmatched []string        `json:"unmatchedDemandKeys"`
}
