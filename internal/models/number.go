// internal/models/number.go
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a lenient numeric field. Upstream inventory feeds send numbers,
// numeric strings ("1,200.50"), null or garbage; anything that does not parse,
// or does not fit a finite float64, decodes as zero instead of rejecting the
// whole record.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		*n = parseNumber(s)
		return nil
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		*n = 0
		return nil
	}
	*n = finite(d)
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

func parseNumber(s string) Number {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return finite(d)
}

func finite(d decimal.Decimal) Number {
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return Number(f)
}
