// Package compiler maps a scenario and the shared event library onto the input
// record of the projection calculator.
package compiler

import (
	"errors"
	"fmt"
	"time"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/logging"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
)

// EngineInput is the normalized record the projection calculator consumes.
// Rates are decimals (0.04, not 4) and durations are month counts.
type EngineInput struct {
	BaseMonth     month.Month      `json:"baseMonth"`
	HorizonMonths int              `json:"horizonMonths"`
	InitialCash   decimal.Decimal  `json:"initialCash"`
	Events        []EngineEvent    `json:"events"`
	Positions     *EnginePositions `json:"positions,omitempty"`
}

// EngineEvent is one resolved cash-flow event
type EngineEvent struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Type             domain.EventType       `json:"type"`
	Mode             domain.RuleMode        `json:"mode"`
	StartMonth       month.Month            `json:"startMonth"`
	EndMonth         *month.Month           `json:"endMonth,omitempty"`
	MonthlyAmount    decimal.Decimal        `json:"monthlyAmount"`
	OneTimeAmount    decimal.Decimal        `json:"oneTimeAmount"`
	AnnualGrowthRate decimal.Decimal        `json:"annualGrowthRate"`
	Schedule         []domain.ScheduleEntry `json:"schedule,omitempty"`
	Currency         string                 `json:"currency,omitempty"`
	MemberID         string                 `json:"memberId,omitempty"`
}

// EngineMortgage is the financing derived from a home position
type EngineMortgage struct {
	Principal  decimal.Decimal `json:"principal"`
	AnnualRate decimal.Decimal `json:"annualRate"`
	TermMonths int             `json:"termMonths"`
}

type EngineHome struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name,omitempty"`
	PurchaseMonth          month.Month     `json:"purchaseMonth"`
	PurchasePrice          decimal.Decimal `json:"purchasePrice"`
	DownPayment            decimal.Decimal `json:"downPayment"`
	AnnualAppreciationRate decimal.Decimal `json:"annualAppreciationRate"`
	MonthlyHoldingCost     decimal.Decimal `json:"monthlyHoldingCost"`
	Mortgage               *EngineMortgage `json:"mortgage,omitempty"`
}

type EngineLoan struct {
	ID             string          `json:"id"`
	Name           string          `json:"name,omitempty"`
	StartMonth     month.Month     `json:"startMonth"`
	Principal      decimal.Decimal `json:"principal"`
	AnnualRate     decimal.Decimal `json:"annualRate"`
	TermMonths     int             `json:"termMonths"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
}

type EngineInvestment struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name,omitempty"`
	StartMonth          month.Month     `json:"startMonth"`
	InitialValue        decimal.Decimal `json:"initialValue"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	AnnualReturnRate    decimal.Decimal `json:"annualReturnRate"`
}

type EngineCar struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name,omitempty"`
	PurchaseMonth          month.Month     `json:"purchaseMonth"`
	PurchasePrice          decimal.Decimal `json:"purchasePrice"`
	AnnualDepreciationRate decimal.Decimal `json:"annualDepreciationRate"`
	MonthlyHoldingCost     decimal.Decimal `json:"monthlyHoldingCost"`
}

// EnginePositions holds the mapped positions. A nil slice means none survived mapping.
type EnginePositions struct {
	Homes       []EngineHome       `json:"homes,omitempty"`
	Loans       []EngineLoan       `json:"loans,omitempty"`
	Investments []EngineInvestment `json:"investments,omitempty"`
	Cars        []EngineCar        `json:"cars,omitempty"`
}

// Code identifies a warning or compile error category
type Code string

const (
	CodeInvalidMonth        Code = "invalid-month"
	CodeDoubleCount         Code = "double-count"
	CodeMissingHomePosition Code = "missing-home-position"
	CodeIgnoredBuyHome      Code = "ignored-buy-home"
	CodeInvalidHome         Code = "invalid-home"
	CodeInvalidPosition     Code = "invalid-position"
	CodeMissingDefinition   Code = "missing-definition"
	CodeCurrencyMismatch    Code = "currency-mismatch"
	CodeInvalidHorizon      Code = "invalid-horizon"
)

// Warning is a non-fatal finding. Ref names the event or position it concerns.
type Warning struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Ref     string `json:"ref,omitempty"`
}

// Result is the output of one compilation
type Result struct {
	Input    EngineInput `json:"input"`
	Warnings []Warning   `json:"warnings"`
}

// HasWarning reports whether a warning with the given code was emitted
func (r *Result) HasWarning(code Code) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

var (
	// ErrStrict is wrapped by every CompileError raised because strict mode refused to degrade
	ErrStrict = errors.New("strict compilation failed")
	// ErrInvalidAssumptions is wrapped when the scenario assumptions cannot be compiled in any mode
	ErrInvalidAssumptions = errors.New("invalid scenario assumptions")
)

// CompileError is a fatal compilation failure
type CompileError struct {
	Code   Code
	Ref    string
	Reason string
	Err    error
}

func (e *CompileError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("compile %s (%s): %s", e.Ref, e.Code, e.Reason)
	}
	return fmt.Sprintf("compile (%s): %s", e.Code, e.Reason)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Options controls one compilation. The zero value compiles strictly.
type Options struct {
	// Lenient degrades structural failures to warnings and drops the offending fragment
	Lenient bool
	// Now supplies the fallback base month; defaults to time.Now
	Now func() time.Time
	// Logger receives per-fragment debug lines and a compile summary
	Logger logging.Logger
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
