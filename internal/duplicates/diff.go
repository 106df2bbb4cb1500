package duplicates

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/events"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/rgehrsitz/planforge/internal/tolerance"
	"github.com/shopspring/decimal"
)

// Difference is one rule field that differs beyond tolerance
type Difference struct {
	Field  string `json:"field"`
	Base   string `json:"base"`
	Target string `json:"target"`
}

// BuildEventRuleOverrides returns the patch that, laid over base, reproduces
// target: each field differing beyond tolerance carries target's value. A nil
// patch means the rules already agree.
func BuildEventRuleOverrides(base, target events.EffectiveRule) *domain.EventRuleOverrides {
	return NewDetector().BuildOverrides(base, target)
}

// ListEventRuleDifferences reports the fields BuildEventRuleOverrides would patch
func ListEventRuleDifferences(base, target events.EffectiveRule) []Difference {
	return NewDetector().Differences(base, target)
}

// BuildOverrides is BuildEventRuleOverrides with this detector's bands
func (d *Detector) BuildOverrides(base, target events.EffectiveRule) *domain.EventRuleOverrides {
	_, patch := d.compare(base, target)
	if patch.IsEmpty() {
		return nil
	}
	return patch
}

// Differences is ListEventRuleDifferences with this detector's bands
func (d *Detector) Differences(base, target events.EffectiveRule) []Difference {
	diffs, _ := d.compare(base, target)
	return diffs
}

// compare walks the rule fields once, producing both the display rows and the patch
func (d *Detector) compare(base, target events.EffectiveRule) ([]Difference, *domain.EventRuleOverrides) {
	var diffs []Difference
	patch := &domain.EventRuleOverrides{}
	if base == nil || target == nil {
		return nil, patch
	}

	modeChanged := base.Mode() != target.Mode()
	if modeChanged {
		mode := target.Mode()
		patch.Mode = &mode
		diffs = append(diffs, Difference{Field: "mode", Base: string(base.Mode()), Target: string(mode)})
	}

	if !tolerance.MonthsWithin(base.Start(), target.Start(), d.MonthSlack) {
		patch.StartMonth = month.Ptr(target.Start())
		diffs = append(diffs, Difference{Field: "start_month", Base: base.Start().String(), Target: target.Start().String()})
	}

	if !tolerance.OptionalMonthsWithin(base.End(), target.End(), d.MonthSlack) {
		if end := target.End(); end == nil {
			patch.EndMonth = domain.ClearedMonth()
		} else {
			patch.EndMonth = domain.OverrideMonth(*end)
		}
		diffs = append(diffs, Difference{Field: "end_month", Base: showMonth(base.End()), Target: showMonth(target.End())})
	}

	switch t := target.(type) {
	case events.ParamsRule:
		// after a mode switch the base has no params values to keep
		b, _ := base.(events.ParamsRule)
		fields := []struct {
			name   string
			band   tolerance.Tolerance
			base   decimal.Decimal
			target decimal.Decimal
			dst    **decimal.Decimal
		}{
			{"monthly_amount", d.Amount, b.MonthlyAmount, t.MonthlyAmount, &patch.MonthlyAmount},
			{"one_time_amount", d.Amount, b.OneTimeAmount, t.OneTimeAmount, &patch.OneTimeAmount},
			{"annual_growth_pct", d.Growth, b.AnnualGrowthPct, t.AnnualGrowthPct, &patch.AnnualGrowthPct},
		}
		for _, f := range fields {
			if !modeChanged && f.band.Within(f.base, f.target) {
				continue
			}
			v := f.target
			*f.dst = &v
			diffs = append(diffs, Difference{Field: f.name, Base: showAmount(modeChanged, f.base), Target: f.target.String()})
		}
	case events.ScheduleRule:
		b, isSchedule := base.(events.ScheduleRule)
		if !isSchedule || !d.schedulesSimilar(b, t) {
			patch.Schedule = append([]domain.ScheduleEntry{}, t.Entries...)
			diffs = append(diffs, Difference{Field: "schedule", Base: showSchedule(b.Entries), Target: showSchedule(t.Entries)})
		}
	}

	return diffs, patch
}

func showMonth(m *month.Month) string {
	if m == nil {
		return "open"
	}
	return m.String()
}

func showAmount(missing bool, v decimal.Decimal) string {
	if missing {
		return "-"
	}
	return v.String()
}

func showSchedule(entries []domain.ScheduleEntry) string {
	if len(entries) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(entries))
	for _, e := range sortedEntries(entries) {
		parts = append(parts, fmt.Sprintf("%s:%s", e.Month, e.Amount))
	}
	return strings.Join(parts, " ")
}
