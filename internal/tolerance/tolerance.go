// Package tolerance provides the banded numeric and month comparisons shared by
// duplicate clustering, override diffing and double-count detection.
package tolerance

import (
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
)

// Tolerance accepts two values as equal when they differ by no more than
// max(Absolute, Relative * max(|a|, |b|)).
type Tolerance struct {
	Absolute decimal.Decimal
	Relative decimal.Decimal
}

var (
	// Amount is the default band for money amounts: 100 absolute or 10%.
	Amount = Tolerance{Absolute: decimal.NewFromInt(100), Relative: decimal.NewFromFloat(0.1)}
	// GrowthPct is the default band for whole-percent growth rates: 1 point or 10%.
	GrowthPct = Tolerance{Absolute: decimal.NewFromInt(1), Relative: decimal.NewFromFloat(0.1)}
)

// Allowance returns the permitted absolute difference for the pair
func (t Tolerance) Allowance(a, b decimal.Decimal) decimal.Decimal {
	scale := decimal.Max(a.Abs(), b.Abs())
	return decimal.Max(t.Absolute, t.Relative.Mul(scale))
}

// Within reports whether a and b are equal within the band
func (t Tolerance) Within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(t.Allowance(a, b))
}

// MonthsWithin reports whether two month tokens are at most slack months apart.
// Malformed tokens only match when they are byte-identical.
func MonthsWithin(a, b month.Month, slack int) bool {
	diff, ok := month.Offset(a, b)
	if !ok {
		return a == b
	}
	if diff < 0 {
		diff = -diff
	}
	return diff <= slack
}

// OptionalMonthsWithin is MonthsWithin for open-ended bounds: both absent matches,
// exactly one absent does not.
func OptionalMonthsWithin(a, b *month.Month, slack int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return MonthsWithin(*a, *b, slack)
}
