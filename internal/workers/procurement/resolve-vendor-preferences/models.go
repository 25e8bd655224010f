// internal/workers/procurement/resolve-vendor-preferences/models.go
package resolvevendorpreferences

import "vendor-matching/internal/matching"

type Input struct {
	Preferences []string `json:"preferences"`
}

type Output struct {
	Preferences []string              `json:"preferences"`
	Weights     matching.WeightVector `json:"weights"`
	WeightSum   float64               `json:"weightSum"`
	Balanced    bool                  `json:"balanced"`
	Unknown     []string              `json:"unknownPreferences,omitempty"`
}
