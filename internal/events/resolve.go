package events

import (
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/month"
)

// ResolveEventRule merges def.Rule with ref.Overrides. Override fields win,
// including an explicit null end month. The override's mode decides which
// field set is authoritative; a schedule-mode rule without an overriding
// schedule falls back to the definition's schedule.
//
// The result never shares memory with either input.
func ResolveEventRule(def domain.EventDefinition, ref domain.ScenarioEventRef) EffectiveRule {
	base := def.Rule
	o := ref.Overrides
	if o == nil {
		o = &domain.EventRuleOverrides{}
	}

	mode := base.Mode.OrDefault()
	if o.Mode != nil {
		mode = o.Mode.OrDefault()
	}

	start := base.StartMonth
	if o.StartMonth != nil {
		start = *o.StartMonth
	}

	end := copyMonth(base.EndMonth)
	if o.EndMonth.Set {
		end = copyMonth(o.EndMonth.Value)
	}

	if mode == domain.RuleModeSchedule {
		entries := base.Schedule
		if o.Schedule != nil {
			entries = o.Schedule
		}
		if start == "" {
			start = earliestEntry(entries)
		}
		return ScheduleRule{
			StartMonth: start,
			EndMonth:   end,
			Entries:    append([]domain.ScheduleEntry{}, entries...),
		}
	}

	r := ParamsRule{
		StartMonth:      start,
		EndMonth:        end,
		MonthlyAmount:   base.MonthlyAmount,
		OneTimeAmount:   base.OneTimeAmount,
		AnnualGrowthPct: base.AnnualGrowthPct,
	}
	if o.MonthlyAmount != nil {
		r.MonthlyAmount = *o.MonthlyAmount
	}
	if o.OneTimeAmount != nil {
		r.OneTimeAmount = *o.OneTimeAmount
	}
	if o.AnnualGrowthPct != nil {
		r.AnnualGrowthPct = *o.AnnualGrowthPct
	}
	return r
}

func copyMonth(m *month.Month) *month.Month {
	if m == nil {
		return nil
	}
	return month.Ptr(*m)
}

func earliestEntry(entries []domain.ScheduleEntry) month.Month {
	months := make([]month.Month, 0, len(entries))
	for _, e := range entries {
		months = append(months, e.Month)
	}
	first, _ := month.Earliest(months...)
	return first
}
