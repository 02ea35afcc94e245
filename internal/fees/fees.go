// Package fees computes the processing fee charged on top of a gift amount.
package fees

import (
	"math"
	"strconv"
	"strings"
)

type Type string

const (
	Flat       Type = "flat"
	Percentage Type = "percentage"
)

// Policy describes how a fee is derived. MinFee and MaxFee are optional
// bounds applied in that order.
type Policy struct {
	Type   Type
	Value  float64
	MinFee *float64
	MaxFee *float64
}

// DefaultPolicy is 2.5% bounded to [50, 5000].
func DefaultPolicy() Policy {
	return Policy{Type: Percentage, Value: 2.5, MinFee: Bound(50), MaxFee: Bound(5000)}
}

// Bound is a helper for filling Policy.MinFee and Policy.MaxFee.
func Bound(v float64) *float64 { return &v }

// Calculate returns the fee for amount under p, rounded half-up to cents.
func Calculate(amount float64, p Policy) float64 {
	var fee float64
	if p.Type == Flat {
		fee = p.Value
	} else {
		fee = amount * p.Value / 100
	}

	if p.MinFee != nil && fee < *p.MinFee {
		fee = *p.MinFee
	}
	if p.MaxFee != nil && fee > *p.MaxFee {
		fee = *p.MaxFee
	}

	return roundCents(fee)
}

// CalculateDefault is Calculate with DefaultPolicy.
func CalculateDefault(amount float64) float64 {
	return Calculate(amount, DefaultPolicy())
}

// Total returns amount plus its fee under p, rounded to cents.
func Total(amount float64, p Policy) (fee, total float64) {
	fee = Calculate(amount, p)
	return fee, roundCents(amount + fee)
}

// roundCents rounds on the shortest decimal representation of v so that
// values such as 1.005 round to 1.01 instead of falling victim to binary
// representation error.
func roundCents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	if v < 0 {
		return -roundCents(-v)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	if len(frac) <= 2 {
		return v
	}

	n, err := strconv.ParseInt(intPart+frac[:2], 10, 64)
	if err != nil {
		return math.Round(v*100) / 100
	}
	if frac[2] >= '5' {
		n++
	}
	return float64(n) / 100
}
