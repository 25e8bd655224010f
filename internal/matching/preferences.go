// internal/matching/preferences.go
package matching

import (
	"sort"
	"strings"
)

// Preference is a qualitative procurement priority selected by the user.
type Preference string

const (
	PreferenceTime           Preference = "time"
	PreferenceQuality        Preference = "quality"
	PreferenceQuantity       Preference = "quantity"
	PreferenceResourceSaving Preference = "resource-saving"
	PreferenceBalanced       Preference = "balanced"
)

// Known reports whether the token names a preset.
func (p Preference) Known() bool {
	_, ok := Presets[p]
	return ok
}

// canonicalOrder fixes the order tokens are written in, so two equal sets
// always produce the same query string and cache key.
var canonicalOrder = map[Preference]int{
	PreferenceTime:           0,
	PreferenceQuality:        1,
	PreferenceQuantity:       2,
	PreferenceResourceSaving: 3,
}

// WeightVector holds the weights applied to the five sub-scores.
type WeightVector struct {
	Qty         float64 `json:"qty"`
	Cost        float64 `json:"cost"`
	Delivery    float64 `json:"delivery"`
	Quality     float64 `json:"quality"`
	Reliability float64 `json:"reliability"`
}

// Sum returns the total of all components. Mixed preference sets are not
// renormalised, so this is not necessarily 1.
func (w WeightVector) Sum() float64 {
	return w.Qty + w.Cost + w.Delivery + w.Quality + w.Reliability
}

func (w WeightVector) add(o WeightVector) WeightVector {
	return WeightVector{
		Qty:         w.Qty + o.Qty,
		Cost:        w.Cost + o.Cost,
		Delivery:    w.Delivery + o.Delivery,
		Quality:     w.Quality + o.Quality,
		Reliability: w.Reliability + o.Reliability,
	}
}

func (w WeightVector) div(n float64) WeightVector {
	return WeightVector{
		Qty:         w.Qty / n,
		Cost:        w.Cost / n,
		Delivery:    w.Delivery / n,
		Quality:     w.Quality / n,
		Reliability: w.Reliability / n,
	}
}

// Presets are the fixed weight vectors behind each preference token.
var Presets = map[Preference]WeightVector{
	PreferenceTime:           {Qty: 0.20, Cost: 0.05, Delivery: 0.45, Quality: 0.15, Reliability: 0.15},
	PreferenceQuality:        {Qty: 0.20, Cost: 0.05, Delivery: 0.10, Quality: 0.45, Reliability: 0.20},
	PreferenceQuantity:       {Qty: 0.45, Cost: 0.10, Delivery: 0.10, Quality: 0.15, Reliability: 0.20},
	PreferenceResourceSaving: {Qty: 0.25, Cost: 0.45, Delivery: 0.10, Quality: 0.10, Reliability: 0.10},
	PreferenceBalanced:       {Qty: 0.30, Cost: 0.22, Delivery: 0.15, Quality: 0.15, Reliability: 0.10},
}

// BalancedWeights is the default used when no preference is selected.
func BalancedWeights() WeightVector {
	return Presets[PreferenceBalanced]
}

// PreferenceSet is an unordered set of preference tokens. The zero value is
// the empty set.
type PreferenceSet struct {
	members map[Preference]struct{}
}

// NewPreferenceSet builds a set from tokens, ignoring blanks and duplicates.
func NewPreferenceSet(tokens ...string) PreferenceSet {
	ps := PreferenceSet{members: make(map[Preference]struct{}, len(tokens))}
	for _, tok := range tokens {
		ps.Add(Preference(tok))
	}
	return ps
}

// ParsePreferenceSet reads a comma-joined list such as "time,quality".
func ParsePreferenceSet(csv string) PreferenceSet {
	if strings.TrimSpace(csv) == "" {
		return PreferenceSet{}
	}
	return NewPreferenceSet(strings.Split(csv, ",")...)
}

// Add inserts a token. Adding a member twice is a no-op.
func (ps *PreferenceSet) Add(p Preference) {
	p = Preference(strings.ToLower(strings.TrimSpace(string(p))))
	if p == "" {
		return
	}
	if ps.members == nil {
		ps.members = make(map[Preference]struct{})
	}
	ps.members[p] = struct{}{}
}

// Toggle adds the token when absent and removes it when present.
func (ps *PreferenceSet) Toggle(p Preference) {
	p = Preference(strings.ToLower(strings.TrimSpace(string(p))))
	if ps.Contains(p) {
		delete(ps.members, p)
		return
	}
	ps.Add(p)
}

func (ps PreferenceSet) Contains(p Preference) bool {
	_, ok := ps.members[p]
	return ok
}

func (ps PreferenceSet) Len() int {
	return len(ps.members)
}

func (ps PreferenceSet) IsEmpty() bool {
	return len(ps.members) == 0
}

// Tokens returns the members in canonical order; unknown tokens follow the
// known ones alphabetically.
func (ps PreferenceSet) Tokens() []Preference {
	out := make([]Preference, 0, len(ps.members))
	for p := range ps.members {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iKnown := canonicalOrder[out[i]]
		oj, jKnown := canonicalOrder[out[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Strings returns Tokens as plain strings.
func (ps PreferenceSet) Strings() []string {
	tokens := ps.Tokens()
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = string(t)
	}
	return out
}

// String is the comma-joined canonical form used on the wire.
func (ps PreferenceSet) String() string {
	return strings.Join(ps.Strings(), ",")
}

// Equal reports set equality.
func (ps PreferenceSet) Equal(other PreferenceSet) bool {
	if ps.Len() != other.Len() {
		return false
	}
	for p := range ps.members {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// ResolveWeights turns a preference set into the weight vector used for
// scoring: the balanced preset for an empty set, otherwise the
// component-wise mean of the selected presets. Unknown tokens count as
// balanced. The mean is not renormalised.
func ResolveWeights(ps PreferenceSet) WeightVector {
	if ps.IsEmpty() {
		return BalancedWeights()
	}

	var total WeightVector
	for _, p := range ps.Tokens() {
		preset, ok := Presets[p]
		if !ok {
			preset = BalancedWeights()
		}
		total = total.add(preset)
	}
	return total.div(float64(ps.Len()))
}
