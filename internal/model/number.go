package model

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number decodes from a JSON number, a numeric string or null.
// Values that cannot be parsed decode to zero instead of failing the document.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(ParseNumber(string(data)))
	return nil
}

// Float64 returns n as a float64.
func (n Number) Float64() float64 {
	return float64(n)
}

// ParseNumber parses a loosely typed numeric value, returning 0 when absent,
// invalid or outside the float64 range.
func ParseNumber(input string) float64 {
	text := unquote(input)
	if text == "" || text == "null" {
		return 0
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0
	}
	f, ok := finite(d)
	if !ok {
		return 0
	}
	return f
}

func finite(d decimal.Decimal) (float64, bool) {
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Flag is a loosely typed boolean. It accepts true/false, 1/0 and their quoted
// forms, treats anything else as false, and encodes as 1 or 0.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.ToLower(unquote(string(data))) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

func unquote(input string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(input), `"`))
}
