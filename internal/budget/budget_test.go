package budget

import (
	"testing"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScenario(horizon int) domain.Scenario {
	age := 40
	return domain.Scenario{
		ID:          "family",
		Name:        "Family plan",
		Assumptions: domain.Assumptions{BaseMonth: month.Ptr("2024-01"), HorizonMonths: horizon},
		Members: []domain.Member{
			{ID: "kid", Name: "Kid", BirthMonth: month.Ptr("2024-01")},
			{ID: "parent", Name: "Parent", AgeAtBaseMonth: &age},
		},
	}
}

func TestCompileBudgetRule_Basic(t *testing.T) {
	rule := domain.BudgetRule{
		ID: "groceries", Name: "Groceries", Enabled: true, Category: "food",
		MonthlyAmount: decimal.NewFromInt(600),
	}

	entries := CompileBudgetRule(rule, testScenario(12))

	require.Len(t, entries, 12)
	assert.Equal(t, month.Month("2024-01"), entries[0].Month)
	assert.Equal(t, month.Month("2024-12"), entries[11].Month)
	for _, e := range entries {
		assert.True(t, e.AmountSigned.Equal(decimal.NewFromInt(-600)), "budget rules are outflows")
		assert.Equal(t, "groceries", e.SourceRuleID)
		assert.Equal(t, "Groceries", e.Label)
	}
}

func TestCompileBudgetRule_NegativeInputStillOutflow(t *testing.T) {
	rule := domain.BudgetRule{ID: "r", Enabled: true, MonthlyAmount: decimal.NewFromInt(-75)}
	entries := CompileBudgetRule(rule, testScenario(2))
	require.Len(t, entries, 2)
	assert.True(t, entries[0].AmountSigned.Equal(decimal.NewFromInt(-75)))
	assert.Equal(t, "r", entries[0].Label, "label falls back to the rule id")
}

func TestCompileBudgetRule_EmptyResults(t *testing.T) {
	enabled := domain.BudgetRule{ID: "r", Enabled: true, MonthlyAmount: decimal.NewFromInt(100)}

	tests := []struct {
		name     string
		rule     func() domain.BudgetRule
		scenario func() domain.Scenario
	}{
		{"disabled", func() domain.BudgetRule { r := enabled; r.Enabled = false; return r }, func() domain.Scenario { return testScenario(12) }},
		{"zero amount", func() domain.BudgetRule { r := enabled; r.MonthlyAmount = decimal.Zero; return r }, func() domain.Scenario { return testScenario(12) }},
		{"missing base month", func() domain.BudgetRule { return enabled }, func() domain.Scenario {
			s := testScenario(12)
			s.Assumptions.BaseMonth = nil
			return s
		}},
		{"non-positive horizon", func() domain.BudgetRule { return enabled }, func() domain.Scenario { return testScenario(0) }},
		{"orphaned member", func() domain.BudgetRule { r := enabled; r.MemberID = "nobody"; return r }, func() domain.Scenario { return testScenario(12) }},
		{"start after end", func() domain.BudgetRule {
			r := enabled
			r.StartMonth = month.Ptr("2024-08")
			r.EndMonth = month.Ptr("2024-03")
			return r
		}, func() domain.Scenario { return testScenario(12) }},
		{"ends before base month", func() domain.BudgetRule { r := enabled; r.EndMonth = month.Ptr("2023-06"); return r }, func() domain.Scenario { return testScenario(12) }},
		{"starts after horizon", func() domain.BudgetRule { r := enabled; r.StartMonth = month.Ptr("2026-01"); return r }, func() domain.Scenario { return testScenario(12) }},
		{"malformed start", func() domain.BudgetRule { r := enabled; r.StartMonth = month.Ptr("2024-13"); return r }, func() domain.Scenario { return testScenario(12) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, CompileBudgetRule(tt.rule(), tt.scenario()))
		})
	}
}

func TestCompileBudgetRule_WindowClamping(t *testing.T) {
	rule := domain.BudgetRule{
		ID: "r", Enabled: true, MonthlyAmount: decimal.NewFromInt(100),
		StartMonth: month.Ptr("2023-10"),
		EndMonth:   month.Ptr("2030-01"),
	}

	entries := CompileBudgetRule(rule, testScenario(6))

	require.Len(t, entries, 6)
	assert.Equal(t, month.Month("2024-01"), entries[0].Month)
	assert.Equal(t, month.Month("2024-06"), entries[5].Month)
}

func TestCompileBudgetRule_WindowOutsideHorizonNotPinnedToEdge(t *testing.T) {
	endsBefore := domain.BudgetRule{ID: "r", Enabled: true, MonthlyAmount: decimal.NewFromInt(100), EndMonth: month.Ptr("2023-12")}
	assert.Empty(t, CompileBudgetRule(endsBefore, testScenario(6)), "a rule ending the month before base must not emit at offset 0")

	startsAfter := domain.BudgetRule{ID: "r", Enabled: true, MonthlyAmount: decimal.NewFromInt(100), StartMonth: month.Ptr("2024-07")}
	assert.Empty(t, CompileBudgetRule(startsAfter, testScenario(6)), "a rule starting after the last month must not emit at the final offset")

	endsAtBase := domain.BudgetRule{ID: "r", Enabled: true, MonthlyAmount: decimal.NewFromInt(100), StartMonth: month.Ptr("2023-01"), EndMonth: month.Ptr("2024-01")}
	entries := CompileBudgetRule(endsAtBase, testScenario(6))
	require.Len(t, entries, 1)
	assert.Equal(t, month.Month("2024-01"), entries[0].Month)
}

func TestCompileAllBudgetRulesFrom(t *testing.T) {
	s := testScenario(3)
	s.Assumptions.BaseMonth = nil
	s.BudgetRules = []domain.BudgetRule{{ID: "food", Enabled: true, MonthlyAmount: decimal.NewFromInt(500)}}

	assert.Empty(t, CompileAllBudgetRules(s))

	entries := CompileAllBudgetRulesFrom(s, "2024-05")
	require.Len(t, entries, 3)
	assert.Equal(t, month.Month("2024-05"), entries[0].Month)
	assert.Equal(t, month.Month("2024-07"), entries[2].Month)
	assert.Nil(t, s.Assumptions.BaseMonth, "caller's scenario is untouched")
}

func TestCompileBudgetRule_AgeGate(t *testing.T) {
	rule := domain.BudgetRule{
		ID: "daycare", Name: "Daycare", Enabled: true, MemberID: "kid",
		AgeBand:       domain.AgeBand{FromYears: 3, ToYears: 6},
		MonthlyAmount: decimal.NewFromInt(900),
	}

	entries := CompileBudgetRule(rule, testScenario(120))

	require.Len(t, entries, 36)
	assert.Equal(t, month.Month("2027-01"), entries[0].Month, "first month at age 3")
	assert.Equal(t, month.Month("2029-12"), entries[35].Month, "last month before age 6")
	for _, e := range entries {
		assert.Equal(t, "kid", e.MemberID)
		assert.False(t, month.Before(e.Month, "2027-01"))
		assert.True(t, month.Before(e.Month, "2030-01"))
	}
}

func TestCompileBudgetRule_AgeGateFromAgeAtBase(t *testing.T) {
	rule := domain.BudgetRule{
		ID: "checkups", Enabled: true, MemberID: "parent",
		AgeBand:       domain.AgeBand{FromYears: 41, ToYears: 42},
		MonthlyAmount: decimal.NewFromInt(50),
	}

	entries := CompileBudgetRule(rule, testScenario(36))

	require.Len(t, entries, 12)
	assert.Equal(t, month.Month("2025-01"), entries[0].Month)
}

func TestCompileBudgetRule_GrowthCompoundsMonthly(t *testing.T) {
	rule := domain.BudgetRule{
		ID: "tuition", Enabled: true,
		MonthlyAmount:   decimal.NewFromInt(1000),
		AnnualGrowthPct: decimal.NewFromInt(12),
	}

	entries := CompileBudgetRule(rule, testScenario(25))
	require.Len(t, entries, 25)

	assert.True(t, entries[0].AmountSigned.Equal(decimal.NewFromInt(-1000)))

	atTwelve := entries[12].AmountSigned.Neg().InexactFloat64()
	assert.InDelta(t, 1120.0, atTwelve, 1e-6, "one year of growth equals the annual rate")

	atOne := entries[1].AmountSigned.Neg().InexactFloat64()
	assert.InDelta(t, 1009.4888, atOne, 1e-3, "monthly factor is the 12th root of 1.12")

	atTwentyFour := entries[24].AmountSigned.Neg().InexactFloat64()
	assert.InDelta(t, 1254.4, atTwentyFour, 1e-6)
}

func TestGrowthFactor(t *testing.T) {
	assert.True(t, GrowthFactor(decimal.Zero, 30).Equal(decimal.NewFromInt(1)))
	assert.True(t, GrowthFactor(decimal.NewFromInt(5), 0).Equal(decimal.NewFromInt(1)))
	assert.True(t, GrowthFactor(decimal.NewFromInt(-100), 3).IsZero())
	assert.InDelta(t, 0.9, GrowthFactor(decimal.NewFromInt(-10), 12).InexactFloat64(), 1e-9)
}

func TestCompileAllBudgetRules(t *testing.T) {
	s := testScenario(3)
	s.BudgetRules = []domain.BudgetRule{
		{ID: "a", Enabled: true, MonthlyAmount: decimal.NewFromInt(10)},
		{ID: "b", Enabled: false, MonthlyAmount: decimal.NewFromInt(20)},
		{ID: "c", Enabled: true, MonthlyAmount: decimal.NewFromInt(30)},
	}

	entries := CompileAllBudgetRules(s)
	assert.Len(t, entries, 6)

	totals := SummarizeByMonth(entries)
	require.Len(t, totals, 3)
	assert.Equal(t, month.Month("2024-01"), totals[0].Month)
	assert.True(t, totals[0].Total.Equal(decimal.NewFromInt(-40)))
	assert.Equal(t, 2, totals[0].Count)
}

func TestAgeAt(t *testing.T) {
	s := testScenario(12)
	kid, _ := s.Member("kid")
	age, ok := AgeAt(kid, "2024-01", "2027-06")
	require.True(t, ok)
	assert.Equal(t, 3, age)

	_, ok = AgeAt(domain.Member{ID: "x"}, "2024-01", "2027-06")
	assert.False(t, ok)
}
