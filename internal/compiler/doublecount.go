package compiler

import (
	"fmt"

	"github.com/rgehrsitz/planforge/internal/events"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/rgehrsitz/planforge/internal/tolerance"
)

// overlapShare is the fraction of the shorter window two ranges must share
// to count as the same obligation when their starts are further apart.
const overlapShare = 0.8

// window is an inclusive range of month offsets from the base month
type window struct {
	from, to int
}

func (w window) length() int { return w.to - w.from + 1 }

func (w window) overlap(o window) int {
	from := max(w.from, o.from)
	to := min(w.to, o.to)
	if to < from {
		return 0
	}
	return to - from + 1
}

// checkDoubleCount warns when a loan payment and a recurring outflow event
// look like the same obligation. Neither input is changed.
func (c *compilation) checkDoubleCount(base month.Month, resolved []events.Resolved, loans []EngineLoan) {
	last := c.scenario.Assumptions.HorizonMonths - 1
	for _, loan := range loans {
		if !loan.MonthlyPayment.IsPositive() {
			continue
		}
		loanWin, ok := loanWindow(base, loan, last)
		if !ok {
			continue
		}
		for _, r := range resolved {
			if r.Definition.Type.IsIncome() {
				continue
			}
			rule, ok := r.Rule.(events.ParamsRule)
			if !ok || rule.MonthlyAmount.IsZero() {
				continue
			}
			if !tolerance.Amount.Within(rule.MonthlyAmount.Abs(), loan.MonthlyPayment.Abs()) {
				continue
			}
			eventWin, ok := ruleWindow(base, rule, last)
			if !ok || !sameObligation(loanWin, eventWin) {
				continue
			}
			c.warn(CodeDoubleCount, r.Definition.ID, fmt.Sprintf(
				"event %s (%s/month) may repeat the payment of loan %s (%s/month)",
				r.Definition.ID, rule.MonthlyAmount.Abs(), loan.ID, loan.MonthlyPayment))
		}
	}
}

func sameObligation(a, b window) bool {
	if d := a.from - b.from; d >= -1 && d <= 1 {
		return true
	}
	shorter := min(a.length(), b.length())
	if shorter <= 0 {
		return false
	}
	return float64(a.overlap(b)) >= overlapShare*float64(shorter)
}

func loanWindow(base month.Month, loan EngineLoan, last int) (window, bool) {
	from, ok := month.Offset(base, loan.StartMonth)
	if !ok {
		return window{}, false
	}
	to := last
	if loan.TermMonths > 0 {
		to = from + loan.TermMonths - 1
	}
	return window{from: from, to: to}, true
}

func ruleWindow(base month.Month, rule events.ParamsRule, last int) (window, bool) {
	from, ok := month.Offset(base, rule.StartMonth)
	if !ok {
		return window{}, false
	}
	to := last
	if rule.EndMonth != nil {
		if to, ok = month.Offset(base, *rule.EndMonth); !ok {
			return window{}, false
		}
	}
	return window{from: from, to: to}, true
}
