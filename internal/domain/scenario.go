package domain

import (
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
)

// Assumptions holds the scenario-wide projection parameters
type Assumptions struct {
	BaseMonth          *month.Month    `yaml:"base_month,omitempty" json:"baseMonth,omitempty"`
	HorizonMonths      int             `yaml:"horizon_months" json:"horizonMonths"`
	InitialCash        decimal.Decimal `yaml:"initial_cash" json:"initialCash"`
	AnnualInflationPct decimal.Decimal `yaml:"annual_inflation_pct,omitempty" json:"annualInflationPct,omitempty"`
	AnnualReturnPct    decimal.Decimal `yaml:"annual_return_pct,omitempty" json:"annualReturnPct,omitempty"`
}

// Member is a household member that budget rules and events may be tied to
type Member struct {
	ID             string       `yaml:"id" json:"id"`
	Name           string       `yaml:"name" json:"name"`
	Relation       string       `yaml:"relation,omitempty" json:"relation,omitempty"`
	BirthMonth     *month.Month `yaml:"birth_month,omitempty" json:"birthMonth,omitempty"`
	AgeAtBaseMonth *int         `yaml:"age_at_base_month,omitempty" json:"ageAtBaseMonth,omitempty"` // whole years
}

// AgeBand is a half-open age interval [FromYears, ToYears)
type AgeBand struct {
	FromYears int `yaml:"from_years" json:"fromYears"`
	ToYears   int `yaml:"to_years" json:"toYears"`
}

// BudgetRule is an age-banded recurring expense independent of the event library
type BudgetRule struct {
	ID              string          `yaml:"id" json:"id"`
	Name            string          `yaml:"name" json:"name"`
	Enabled         bool            `yaml:"enabled" json:"enabled"`
	MemberID        string          `yaml:"member_id,omitempty" json:"memberId,omitempty"`
	Category        string          `yaml:"category" json:"category"`
	AgeBand         AgeBand         `yaml:"age_band" json:"ageBand"`
	MonthlyAmount   decimal.Decimal `yaml:"monthly_amount" json:"monthlyAmount"`
	AnnualGrowthPct decimal.Decimal `yaml:"annual_growth_pct,omitempty" json:"annualGrowthPct,omitempty"`
	StartMonth      *month.Month    `yaml:"start_month,omitempty" json:"startMonth,omitempty"`
	EndMonth        *month.Month    `yaml:"end_month,omitempty" json:"endMonth,omitempty"`
}

// Home is a residential property position, optionally financed by a mortgage
type Home struct {
	ID                    string          `yaml:"id" json:"id"`
	Name                  string          `yaml:"name,omitempty" json:"name,omitempty"`
	PurchaseMonth         month.Month     `yaml:"purchase_month" json:"purchaseMonth"`
	PurchasePrice         decimal.Decimal `yaml:"purchase_price" json:"purchasePrice"`
	DownPayment           decimal.Decimal `yaml:"down_payment" json:"downPayment"`
	MortgageRatePct       decimal.Decimal `yaml:"mortgage_rate_pct" json:"mortgageRatePct"`
	MortgageTermYears     int             `yaml:"mortgage_term_years" json:"mortgageTermYears"`
	AnnualAppreciationPct decimal.Decimal `yaml:"annual_appreciation_pct,omitempty" json:"annualAppreciationPct,omitempty"`
	MonthlyHoldingCost    decimal.Decimal `yaml:"monthly_holding_cost,omitempty" json:"monthlyHoldingCost,omitempty"`
}

// Loan is a non-mortgage liability
type Loan struct {
	ID             string          `yaml:"id" json:"id"`
	Name           string          `yaml:"name,omitempty" json:"name,omitempty"`
	StartMonth     month.Month     `yaml:"start_month" json:"startMonth"`
	Principal      decimal.Decimal `yaml:"principal" json:"principal"`
	AnnualRatePct  decimal.Decimal `yaml:"annual_rate_pct" json:"annualRatePct"`
	TermYears      int             `yaml:"term_years" json:"termYears"`
	MonthlyPayment decimal.Decimal `yaml:"monthly_payment,omitempty" json:"monthlyPayment,omitempty"`
}

// Investment is a brokerage or savings position
type Investment struct {
	ID                  string          `yaml:"id" json:"id"`
	Name                string          `yaml:"name,omitempty" json:"name,omitempty"`
	StartMonth          month.Month     `yaml:"start_month" json:"startMonth"`
	InitialValue        decimal.Decimal `yaml:"initial_value" json:"initialValue"`
	MonthlyContribution decimal.Decimal `yaml:"monthly_contribution,omitempty" json:"monthlyContribution,omitempty"`
	AnnualReturnPct     decimal.Decimal `yaml:"annual_return_pct" json:"annualReturnPct"`
}

// Car is a depreciating vehicle position
type Car struct {
	ID                    string          `yaml:"id" json:"id"`
	Name                  string          `yaml:"name,omitempty" json:"name,omitempty"`
	PurchaseMonth         month.Month     `yaml:"purchase_month" json:"purchaseMonth"`
	PurchasePrice         decimal.Decimal `yaml:"purchase_price" json:"purchasePrice"`
	AnnualDepreciationPct decimal.Decimal `yaml:"annual_depreciation_pct" json:"annualDepreciationPct"`
	MonthlyHoldingCost    decimal.Decimal `yaml:"monthly_holding_cost,omitempty" json:"monthlyHoldingCost,omitempty"`
}

// Positions groups the scenario's asset and liability snapshots.
// Home is the legacy singular form kept for older documents.
type Positions struct {
	Home        *Home        `yaml:"home,omitempty" json:"home,omitempty"`
	Homes       []Home       `yaml:"homes,omitempty" json:"homes,omitempty"`
	Loans       []Loan       `yaml:"loans,omitempty" json:"loans,omitempty"`
	Investments []Investment `yaml:"investments,omitempty" json:"investments,omitempty"`
	Cars        []Car        `yaml:"cars,omitempty" json:"cars,omitempty"`
}

// AllHomes normalizes the legacy singular home and the plural list into one list.
// The singular home is prepended unless a home with the same id is already listed.
func (p Positions) AllHomes() []Home {
	homes := make([]Home, 0, len(p.Homes)+1)
	if p.Home != nil {
		duplicate := false
		for _, h := range p.Homes {
			if h.ID != "" && h.ID == p.Home.ID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			homes = append(homes, *p.Home)
		}
	}
	return append(homes, p.Homes...)
}

// Scenario is the aggregate root of one what-if plan
type Scenario struct {
	ID           string             `yaml:"id" json:"id"`
	Name         string             `yaml:"name" json:"name"`
	BaseCurrency string             `yaml:"base_currency" json:"baseCurrency"`
	Assumptions  Assumptions        `yaml:"assumptions" json:"assumptions"`
	Members      []Member           `yaml:"members,omitempty" json:"members,omitempty"`
	EventRefs    []ScenarioEventRef `yaml:"event_refs,omitempty" json:"eventRefs,omitempty"`
	BudgetRules  []BudgetRule       `yaml:"budget_rules,omitempty" json:"budgetRules,omitempty"`
	Positions    Positions          `yaml:"positions,omitempty" json:"positions,omitempty"`
}

// Member returns the member with the given id
func (s *Scenario) Member(id string) (Member, bool) {
	for _, m := range s.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// EventRef returns the index of the reference to refID, or -1
func (s *Scenario) EventRef(refID string) int {
	for i, r := range s.EventRefs {
		if r.RefID == refID {
			return i
		}
	}
	return -1
}

// Plan is a complete document: the shared event library plus every scenario
type Plan struct {
	EventLibrary []EventDefinition `yaml:"event_library" json:"eventLibrary"`
	Scenarios    []Scenario        `yaml:"scenarios" json:"scenarios"`
}

// Scenario returns the scenario with the given id
func (p *Plan) Scenario(id string) (*Scenario, bool) {
	for i := range p.Scenarios {
		if p.Scenarios[i].ID == id {
			return &p.Scenarios[i], true
		}
	}
	return nil, false
}
