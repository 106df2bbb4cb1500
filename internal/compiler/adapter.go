package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/events"
	"github.com/rgehrsitz/planforge/internal/logging"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// compilation carries the per-call state of MapScenarioToEngineInput
type compilation struct {
	scenario domain.Scenario
	opts     Options
	log      logging.Logger
	warnings []Warning
}

// reject handles a structurally invalid fragment. In strict mode it returns the
// fatal error; in lenient mode it records a warning and returns nil so the
// caller drops the fragment and carries on.
func (c *compilation) reject(code Code, ref, format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)
	if !c.opts.Lenient {
		return &CompileError{Code: code, Ref: ref, Reason: reason, Err: ErrStrict}
	}
	c.warn(code, ref, reason)
	return nil
}

func (c *compilation) warn(code Code, ref, message string) {
	c.log.Debugf("scenario %s: %s %s: %s", c.scenario.ID, code, ref, message)
	c.warnings = append(c.warnings, Warning{Code: code, Message: message, Ref: ref})
}

// MapScenarioToEngineInput compiles the enabled events, positions and
// assumptions of scenario into the calculator input. Inputs are read only;
// the result shares no mutable state with them.
func MapScenarioToEngineInput(scenario domain.Scenario, library []domain.EventDefinition, opts Options) (*Result, error) {
	c := &compilation{scenario: scenario, opts: opts, log: logging.OrNop(opts.Logger)}

	if scenario.Assumptions.HorizonMonths <= 0 {
		return nil, &CompileError{
			Code:   CodeInvalidHorizon,
			Reason: fmt.Sprintf("horizon must be positive, got %d", scenario.Assumptions.HorizonMonths),
			Err:    ErrInvalidAssumptions,
		}
	}

	resolved, skipped := events.ResolveScenario(scenario, domain.NewLibrary(library))
	for _, s := range skipped {
		if s.Reason == events.SkipMissingDefinition {
			c.warn(CodeMissingDefinition, s.RefID, "scenario references an event that is not in the library")
		}
	}

	base, err := c.baseMonth(resolved)
	if err != nil {
		return nil, err
	}

	homes, err := c.mapHomes()
	if err != nil {
		return nil, err
	}

	valid, err := c.validateEventMonths(resolved)
	if err != nil {
		return nil, err
	}
	valid, err = c.reconcileBuyHome(valid, homes)
	if err != nil {
		return nil, err
	}

	mapped := make([]EngineEvent, 0, len(valid))
	for _, r := range valid {
		ev, err := c.mapEvent(r)
		if err != nil {
			return nil, err
		}
		mapped = append(mapped, ev)
	}

	loans, err := c.mapLoans()
	if err != nil {
		return nil, err
	}
	investments, err := c.mapInvestments()
	if err != nil {
		return nil, err
	}
	cars, err := c.mapCars()
	if err != nil {
		return nil, err
	}

	c.checkDoubleCount(base, valid, loans)

	input := EngineInput{
		BaseMonth:     base,
		HorizonMonths: scenario.Assumptions.HorizonMonths,
		InitialCash:   scenario.Assumptions.InitialCash,
		Events:        mapped,
	}
	if len(homes) > 0 || len(loans) > 0 || len(investments) > 0 || len(cars) > 0 {
		input.Positions = &EnginePositions{Homes: homes, Loans: loans, Investments: investments, Cars: cars}
	}

	c.log.Infof("compiled scenario %s: base %s, %d events, %d homes, %d loans, %d warnings",
		scenario.ID, base, len(mapped), len(homes), len(loans), len(c.warnings))

	return &Result{Input: input, Warnings: c.warnings}, nil
}

// baseMonth returns the explicit base month when it is well-formed and infers one otherwise
func (c *compilation) baseMonth(resolved []events.Resolved) (month.Month, error) {
	if explicit := c.scenario.Assumptions.BaseMonth; explicit != nil {
		if explicit.Valid() {
			return *explicit, nil
		}
		if err := c.reject(CodeInvalidMonth, "assumptions.base_month", "base month %q is not YYYY-MM", *explicit); err != nil {
			return "", err
		}
	}
	return inferBaseMonth(c.scenario, resolved, c.opts.now()), nil
}

// InferBaseMonth picks the base month of a scenario: the explicit assumption if
// well-formed, else the earliest start among enabled events, else the earliest
// position acquisition, else the month containing now.
func InferBaseMonth(scenario domain.Scenario, library []domain.EventDefinition, now time.Time) month.Month {
	if explicit := scenario.Assumptions.BaseMonth; explicit != nil && explicit.Valid() {
		return *explicit
	}
	resolved, _ := events.ResolveScenario(scenario, domain.NewLibrary(library))
	return inferBaseMonth(scenario, resolved, now)
}

func inferBaseMonth(scenario domain.Scenario, resolved []events.Resolved, now time.Time) month.Month {
	starts := make([]month.Month, 0, len(resolved))
	for _, r := range resolved {
		starts = append(starts, r.Rule.Start())
	}
	if m, ok := month.Earliest(starts...); ok {
		return m
	}

	var acquired []month.Month
	for _, h := range scenario.Positions.AllHomes() {
		acquired = append(acquired, h.PurchaseMonth)
	}
	for _, l := range scenario.Positions.Loans {
		acquired = append(acquired, l.StartMonth)
	}
	for _, inv := range scenario.Positions.Investments {
		acquired = append(acquired, inv.StartMonth)
	}
	for _, car := range scenario.Positions.Cars {
		acquired = append(acquired, car.PurchaseMonth)
	}
	if m, ok := month.Earliest(acquired...); ok {
		return m
	}
	return month.FromTime(now)
}

// validateEventMonths drops events whose start or end month is malformed
func (c *compilation) validateEventMonths(resolved []events.Resolved) ([]events.Resolved, error) {
	valid := make([]events.Resolved, 0, len(resolved))
	for _, r := range resolved {
		id := r.Definition.ID
		if !r.Rule.Start().Valid() {
			if err := c.reject(CodeInvalidMonth, id, "start month %q is not YYYY-MM", r.Rule.Start()); err != nil {
				return nil, err
			}
			continue
		}
		if end := r.Rule.End(); end != nil && !end.Valid() {
			if err := c.reject(CodeInvalidMonth, id, "end month %q is not YYYY-MM", *end); err != nil {
				return nil, err
			}
			continue
		}
		valid = append(valid, r)
	}
	return valid, nil
}

// reconcileBuyHome removes buy_home events so a purchase is never counted both
// as an event and as a home position. Only the earliest buy_home event can be
// matched to a home; later ones are dropped with a warning.
func (c *compilation) reconcileBuyHome(resolved []events.Resolved, homes []EngineHome) ([]events.Resolved, error) {
	earliest := -1
	for i, r := range resolved {
		if r.Definition.Type != domain.EventTypeBuyHome {
			continue
		}
		if earliest < 0 || month.Before(r.Rule.Start(), resolved[earliest].Rule.Start()) {
			earliest = i
		}
	}
	if earliest < 0 {
		return resolved, nil
	}

	kept := make([]events.Resolved, 0, len(resolved))
	for i, r := range resolved {
		if r.Definition.Type != domain.EventTypeBuyHome {
			kept = append(kept, r)
			continue
		}
		if i != earliest {
			c.warn(CodeIgnoredBuyHome, r.Definition.ID,
				fmt.Sprintf("only the earliest buy_home event is mapped; %s starting %s ignored", r.Definition.ID, r.Rule.Start()))
			continue
		}
		if matchesHome(r.Rule.Start(), homes) {
			c.log.Debugf("scenario %s: buy_home %s covered by home position", c.scenario.ID, r.Definition.ID)
			continue
		}
		if err := c.reject(CodeMissingHomePosition, r.Definition.ID,
			"buy_home event starting %s has no home position purchased that month", r.Rule.Start()); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

func matchesHome(start month.Month, homes []EngineHome) bool {
	for _, h := range homes {
		if h.PurchaseMonth == start {
			return true
		}
	}
	return false
}

func (c *compilation) mapEvent(r events.Resolved) (EngineEvent, error) {
	def := r.Definition
	ev := EngineEvent{
		ID:         def.ID,
		Title:      def.Title,
		Type:       def.Type,
		Mode:       r.Rule.Mode(),
		StartMonth: r.Rule.Start(),
		EndMonth:   r.Rule.End(),
		Currency:   def.Currency,
		MemberID:   def.MemberID,
	}

	switch rule := r.Rule.(type) {
	case events.ParamsRule:
		ev.MonthlyAmount = rule.MonthlyAmount
		ev.OneTimeAmount = rule.OneTimeAmount
		ev.AnnualGrowthRate = rule.AnnualGrowthPct.Div(hundred)
	case events.ScheduleRule:
		for _, e := range rule.Entries {
			if !e.Month.Valid() {
				if err := c.reject(CodeInvalidMonth, def.ID, "schedule month %q is not YYYY-MM", e.Month); err != nil {
					return EngineEvent{}, err
				}
				continue
			}
			ev.Schedule = append(ev.Schedule, e)
		}
	}

	if def.Currency != "" && c.scenario.BaseCurrency != "" && !strings.EqualFold(def.Currency, c.scenario.BaseCurrency) {
		c.warn(CodeCurrencyMismatch, def.ID,
			fmt.Sprintf("event currency %s differs from scenario currency %s; amounts are not converted", def.Currency, c.scenario.BaseCurrency))
	}
	return ev, nil
}
