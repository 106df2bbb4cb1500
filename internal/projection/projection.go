// Package projection is the boundary to the month-by-month forecast
// calculator, with a cash-only reference implementation.
package projection

import (
	"context"
	"fmt"
	"sort"

	"github.com/rgehrsitz/planforge/internal/budget"
	"github.com/rgehrsitz/planforge/internal/compiler"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
)

// Calculator turns a compiled input and budget series into balances
type Calculator interface {
	Project(ctx context.Context, input compiler.EngineInput, entries []budget.MonthlyEntry) (*Projection, error)
}

// MonthBalance is the cash movement of one projected month
type MonthBalance struct {
	Month   month.Month     `json:"month"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
	Cash    decimal.Decimal `json:"cash"`
}

// Projection is the calculator output
type Projection struct {
	BaseMonth   month.Month     `json:"baseMonth"`
	InitialCash decimal.Decimal `json:"initialCash"`
	Months      []MonthBalance  `json:"months"`
}

// Final returns the last month's cash balance, or the initial cash for an empty projection
func (p *Projection) Final() decimal.Decimal {
	if len(p.Months) == 0 {
		return p.InitialCash
	}
	return p.Months[len(p.Months)-1].Cash
}

// LowestCash returns the month with the smallest cash balance
func (p *Projection) LowestCash() (MonthBalance, bool) {
	if len(p.Months) == 0 {
		return MonthBalance{}, false
	}
	lowest := p.Months[0]
	for _, m := range p.Months[1:] {
		if m.Cash.LessThan(lowest.Cash) {
			lowest = m
		}
	}
	return lowest, true
}

// CashLedger sums signed cash flows into a running balance. It applies event
// growth and position cash movements but no amortization, interest or
// valuation; those belong to the full forecast calculator.
type CashLedger struct{}

// flows accumulates money in and out per month offset
type flows struct {
	in, out map[int]decimal.Decimal
}

func newFlows() *flows {
	return &flows{in: make(map[int]decimal.Decimal), out: make(map[int]decimal.Decimal)}
}

// add books a signed amount: positive is money in
func (f *flows) add(offset int, amount decimal.Decimal) {
	if amount.IsNegative() {
		f.out[offset] = f.out[offset].Add(amount.Neg())
		return
	}
	f.in[offset] = f.in[offset].Add(amount)
}

// Project implements Calculator
func (CashLedger) Project(ctx context.Context, input compiler.EngineInput, entries []budget.MonthlyEntry) (*Projection, error) {
	if input.HorizonMonths <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", input.HorizonMonths)
	}
	if !input.BaseMonth.Valid() {
		return nil, fmt.Errorf("base month %q is not YYYY-MM", input.BaseMonth)
	}

	last := input.HorizonMonths - 1
	f := newFlows()
	for _, ev := range input.Events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		addEvent(f, input.BaseMonth, last, ev)
	}
	for _, e := range entries {
		if offset, ok := month.Offset(input.BaseMonth, e.Month); ok && offset >= 0 && offset <= last {
			f.add(offset, e.AmountSigned)
		}
	}
	if input.Positions != nil {
		addPositions(f, input.BaseMonth, last, input.Positions)
	}

	proj := &Projection{
		BaseMonth:   input.BaseMonth,
		InitialCash: input.InitialCash,
		Months:      make([]MonthBalance, 0, input.HorizonMonths),
	}
	cash := input.InitialCash
	for i := 0; i <= last; i++ {
		if i%12 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		m, ok := month.Add(input.BaseMonth, i)
		if !ok {
			return nil, fmt.Errorf("month %d after %s is out of range", i, input.BaseMonth)
		}
		bal := MonthBalance{Month: m, Inflow: f.in[i], Outflow: f.out[i]}
		bal.Net = bal.Inflow.Sub(bal.Outflow)
		cash = cash.Add(bal.Net)
		bal.Cash = cash
		proj.Months = append(proj.Months, bal)
	}
	return proj, nil
}

// sign returns the cash direction of an event amount: income types add,
// everything else is spent regardless of how the amount was entered.
func sign(ev compiler.EngineEvent, amount decimal.Decimal) decimal.Decimal {
	if ev.Type.IsIncome() {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}

func addEvent(f *flows, base month.Month, last int, ev compiler.EngineEvent) {
	if len(ev.Schedule) > 0 {
		for _, e := range ev.Schedule {
			if offset, ok := month.Offset(base, e.Month); ok && offset >= 0 && offset <= last {
				f.add(offset, sign(ev, e.Amount))
			}
		}
		return
	}

	start, ok := month.Offset(base, ev.StartMonth)
	if !ok {
		return
	}
	end := last
	if ev.EndMonth != nil {
		if end, ok = month.Offset(base, *ev.EndMonth); !ok {
			return
		}
	}
	if !ev.OneTimeAmount.IsZero() && start >= 0 && start <= last {
		f.add(start, sign(ev, ev.OneTimeAmount))
	}
	if ev.MonthlyAmount.IsZero() {
		return
	}
	growthPct := ev.AnnualGrowthRate.Mul(decimal.NewFromInt(100))
	for i := max(start, 0); i <= min(end, last); i++ {
		amount := ev.MonthlyAmount.Mul(budget.GrowthFactor(growthPct, i-start))
		f.add(i, sign(ev, amount))
	}
}

func addRecurring(f *flows, base, from month.Month, months, last int, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	start, ok := month.Offset(base, from)
	if !ok {
		return
	}
	end := last
	if months > 0 {
		end = min(last, start+months-1)
	}
	for i := max(start, 0); i <= end; i++ {
		f.add(i, amount.Abs().Neg())
	}
}

func addOnce(f *flows, base, at month.Month, last int, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	if offset, ok := month.Offset(base, at); ok && offset >= 0 && offset <= last {
		f.add(offset, amount.Abs().Neg())
	}
}

func addPositions(f *flows, base month.Month, last int, p *compiler.EnginePositions) {
	for _, h := range p.Homes {
		addOnce(f, base, h.PurchaseMonth, last, h.DownPayment)
		addRecurring(f, base, h.PurchaseMonth, 0, last, h.MonthlyHoldingCost)
	}
	for _, l := range p.Loans {
		addRecurring(f, base, l.StartMonth, l.TermMonths, last, l.MonthlyPayment)
	}
	for _, inv := range p.Investments {
		addRecurring(f, base, inv.StartMonth, 0, last, inv.MonthlyContribution)
	}
	for _, c := range p.Cars {
		addOnce(f, base, c.PurchaseMonth, last, c.PurchasePrice)
		addRecurring(f, base, c.PurchaseMonth, 0, last, c.MonthlyHoldingCost)
	}
}

// Totals sums inflows and outflows per calendar year, sorted by year
func (p *Projection) Totals() []YearTotal {
	byYear := make(map[string]*YearTotal)
	for _, m := range p.Months {
		year := string(m.Month)[:4]
		t, ok := byYear[year]
		if !ok {
			t = &YearTotal{Year: year, Inflow: decimal.Zero, Outflow: decimal.Zero}
			byYear[year] = t
		}
		t.Inflow = t.Inflow.Add(m.Inflow)
		t.Outflow = t.Outflow.Add(m.Outflow)
		t.EndCash = m.Cash
	}
	out := make([]YearTotal, 0, len(byYear))
	for _, t := range byYear {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// YearTotal aggregates one calendar year of a projection
type YearTotal struct {
	Year    string          `json:"year"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	EndCash decimal.Decimal `json:"endCash"`
}
