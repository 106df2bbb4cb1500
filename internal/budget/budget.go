// Package budget expands age-banded budget rules into monthly signed amounts.
package budget

import (
	"math"
	"sort"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
)

// MonthlyEntry is one month's outflow produced by a budget rule
type MonthlyEntry struct {
	Month        month.Month     `json:"month"`
	AmountSigned decimal.Decimal `json:"amountSigned"`
	SourceRuleID string          `json:"sourceRuleId"`
	MemberID     string          `json:"memberId,omitempty"`
	Label        string          `json:"label"`
}

// CompileBudgetRule expands one rule over the scenario's horizon.
//
// Disabled rules, a missing base month, a non-positive horizon, malformed rule
// months, an empty window, an orphaned member id and a zero amount all yield
// no entries. Amounts are always negative.
func CompileBudgetRule(rule domain.BudgetRule, scenario domain.Scenario) []MonthlyEntry {
	if !rule.Enabled || scenario.Assumptions.BaseMonth == nil || scenario.Assumptions.HorizonMonths <= 0 {
		return nil
	}
	base := *scenario.Assumptions.BaseMonth
	if !base.Valid() || rule.MonthlyAmount.IsZero() {
		return nil
	}
	horizon := scenario.Assumptions.HorizonMonths

	startOffset := 0
	if rule.StartMonth != nil {
		off, ok := month.Offset(base, *rule.StartMonth)
		if !ok {
			return nil
		}
		startOffset = off
	}
	endOffset := horizon - 1
	if rule.EndMonth != nil {
		off, ok := month.Offset(base, *rule.EndMonth)
		if !ok {
			return nil
		}
		endOffset = off
	}

	rangeStart := clamp(startOffset, 0, horizon-1)
	rangeEnd := clamp(endOffset, 0, horizon-1)
	if rangeStart > rangeEnd || endOffset < 0 || startOffset > horizon-1 {
		return nil
	}

	var gate *ageGate
	if rule.MemberID != "" {
		member, ok := scenario.Member(rule.MemberID)
		if !ok {
			return nil
		}
		g, ok := newAgeGate(member, base, rule.AgeBand)
		if !ok {
			return nil
		}
		gate = g
	}

	label := rule.Name
	if label == "" {
		label = rule.Category
	}
	if label == "" {
		label = rule.ID
	}

	amount := rule.MonthlyAmount.Abs()
	var entries []MonthlyEntry
	for i := rangeStart; i <= rangeEnd; i++ {
		if gate != nil && !gate.includes(i) {
			continue
		}
		value := amount.Mul(GrowthFactor(rule.AnnualGrowthPct, i-startOffset))
		if value.IsZero() {
			continue
		}
		entries = append(entries, MonthlyEntry{
			Month:        month.MustAdd(base, i),
			AmountSigned: value.Neg(),
			SourceRuleID: rule.ID,
			MemberID:     rule.MemberID,
			Label:        label,
		})
	}
	return entries
}

// CompileAllBudgetRules concatenates CompileBudgetRule over the scenario's rules
func CompileAllBudgetRules(scenario domain.Scenario) []MonthlyEntry {
	var all []MonthlyEntry
	for _, rule := range scenario.BudgetRules {
		all = append(all, CompileBudgetRule(rule, scenario)...)
	}
	return all
}

// CompileAllBudgetRulesFrom compiles the scenario's rules with base as the
// base month, so entries line up with an engine input whose base month was
// inferred. The caller's scenario is not modified.
func CompileAllBudgetRulesFrom(scenario domain.Scenario, base month.Month) []MonthlyEntry {
	scenario.Assumptions.BaseMonth = month.Ptr(base)
	return CompileAllBudgetRules(scenario)
}

// GrowthFactor returns the compounding factor after elapsedMonths for a whole
// percent annual rate, converting the annual rate to an exact monthly rate:
// (1 + pct/100)^(elapsedMonths/12). Rates at or below -100% collapse to zero.
func GrowthFactor(annualGrowthPct decimal.Decimal, elapsedMonths int) decimal.Decimal {
	if annualGrowthPct.IsZero() || elapsedMonths == 0 {
		return decimal.NewFromInt(1)
	}
	base := 1 + annualGrowthPct.InexactFloat64()/100
	if base <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(math.Pow(base, float64(elapsedMonths)/12))
}

// MonthTotal is the summed budget outflow of one month
type MonthTotal struct {
	Month month.Month     `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// SummarizeByMonth groups entries by month in chronological order
func SummarizeByMonth(entries []MonthlyEntry) []MonthTotal {
	byMonth := make(map[month.Month]*MonthTotal)
	for _, e := range entries {
		t, ok := byMonth[e.Month]
		if !ok {
			t = &MonthTotal{Month: e.Month, Total: decimal.Zero}
			byMonth[e.Month] = t
		}
		t.Total = t.Total.Add(e.AmountSigned)
		t.Count++
	}

	out := make([]MonthTotal, 0, len(byMonth))
	for _, t := range byMonth {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
