// internal/models/demand.go
package models

import (
	"fmt"
	"strings"
)

// Demand is a single requested line item produced by upstream RFQ extraction.
type Demand struct {
	SKU        string `json:"sku,omitempty"`
	INNName    string `json:"inn_name,omitempty"`
	ID         string `json:"id,omitempty"`
	LineItemID string `json:"line_item_id,omitempty"`
	Quantity   Number `json:"quantity,omitempty"`
	Dosage     string `json:"dosage,omitempty"`
	Form       string `json:"form,omitempty"`

	// Position is the index of the line item in its RFQ. It only feeds the
	// identity key when no explicit identifier is present.
	Position int `json:"-"`
}

// IdentityKey returns the stable mapping key for the demand: sku, then INN
// name, then id, then line item id, then a positional fallback.
func (d Demand) IdentityKey() string {
	for _, candidate := range []string{d.SKU, d.INNName, d.ID, d.LineItemID} {
		if key := strings.TrimSpace(candidate); key != "" {
			return key
		}
	}
	return fmt.Sprintf("item-%d", d.Position)
}

// QueryTerm is the value sent to the vendor inventory service. Only sku and
// INN name identify a product there; an empty term means nothing to look up.
func (d Demand) QueryTerm() string {
	if sku := strings.TrimSpace(d.SKU); sku != "" {
		return sku
	}
	return strings.TrimSpace(d.INNName)
}

// RequestedQty is the requested quantity with negative values clamped to zero.
func (d Demand) RequestedQty() float64 {
	if d.Quantity < 0 {
		return 0
	}
	return float64(d.Quantity)
}
