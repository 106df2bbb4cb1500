// Package events resolves shared event definitions against per-scenario
// references into effective rules.
package events

import (
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
)

// EffectiveRule is the resolved rule of one event reference in one scenario.
// It is either a ParamsRule or a ScheduleRule.
type EffectiveRule interface {
	Mode() domain.RuleMode
	Start() month.Month
	End() *month.Month
	isEffectiveRule()
}

// ParamsRule is a recurring amount with optional one-time payment and growth
type ParamsRule struct {
	StartMonth      month.Month
	EndMonth        *month.Month
	MonthlyAmount   decimal.Decimal
	OneTimeAmount   decimal.Decimal
	AnnualGrowthPct decimal.Decimal
}

func (ParamsRule) Mode() domain.RuleMode { return domain.RuleModeParams }
func (r ParamsRule) Start() month.Month  { return r.StartMonth }
func (r ParamsRule) End() *month.Month   { return r.EndMonth }
func (ParamsRule) isEffectiveRule()      {}

// ScheduleRule is an explicit list of month/amount entries
type ScheduleRule struct {
	StartMonth month.Month
	EndMonth   *month.Month
	Entries    []domain.ScheduleEntry
}

func (ScheduleRule) Mode() domain.RuleMode { return domain.RuleModeSchedule }
func (r ScheduleRule) Start() month.Month  { return r.StartMonth }
func (r ScheduleRule) End() *month.Month   { return r.EndMonth }
func (ScheduleRule) isEffectiveRule()      {}

// Total returns the sum of all schedule amounts
func (r ScheduleRule) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range r.Entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Average returns the mean schedule amount, zero for an empty schedule
func (r ScheduleRule) Average() decimal.Decimal {
	if len(r.Entries) == 0 {
		return decimal.Zero
	}
	return r.Total().Div(decimal.NewFromInt(int64(len(r.Entries))))
}
