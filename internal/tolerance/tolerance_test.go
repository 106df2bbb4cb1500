package tolerance

import (
	"testing"

	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestAmountTolerance(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want bool
	}{
		{"identical", 1800, 1800, true},
		{"absolute band on small values", 50, 149, true},
		{"just outside absolute band", 50, 151, false},
		{"relative band on large values", 10000, 10999, true},
		{"outside relative band", 10000, 11200, false},
		{"signs matter", -500, 500, false},
		{"zero pair", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Amount.Within(d(tt.a), d(tt.b)))
			assert.Equal(t, tt.want, Amount.Within(d(tt.b), d(tt.a)), "comparison must be symmetric")
		})
	}
}

func TestGrowthTolerance(t *testing.T) {
	assert.True(t, GrowthPct.Within(d(3), d(4)))
	assert.False(t, GrowthPct.Within(d(3), d(4.5)))
	assert.True(t, GrowthPct.Within(d(30), d(33)))
}

func TestMonthsWithin(t *testing.T) {
	assert.True(t, MonthsWithin("2024-01", "2024-02", 1))
	assert.True(t, MonthsWithin("2024-12", "2025-01", 1))
	assert.False(t, MonthsWithin("2024-01", "2024-03", 1))
	assert.True(t, MonthsWithin("bad", "bad", 1))
	assert.False(t, MonthsWithin("bad", "2024-01", 1))
}

func TestOptionalMonthsWithin(t *testing.T) {
	assert.True(t, OptionalMonthsWithin(nil, nil, 1))
	assert.False(t, OptionalMonthsWithin(month.Ptr("2024-01"), nil, 1))
	assert.True(t, OptionalMonthsWithin(month.Ptr("2024-01"), month.Ptr("2024-02"), 1))
}
