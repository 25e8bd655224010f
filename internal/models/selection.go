// internal/models/selection.go
package models

import "time"

// Selection records the vendor a user picked for one demand of an RFQ.
type Selection struct {
	ID         string    `json:"id"`
	RFQID      string    `json:"rfqId"`
	DemandKey  string    `json:"demandKey"`
	Vendor     Vendor    `json:"vendor"`
	SelectedAt time.Time `json:"selectedAt"`
}
