package domain

import (
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
)

// EventType is the cash-flow category of an event definition
type EventType string

const (
	EventTypeSalary           EventType = "salary"
	EventTypeBonus            EventType = "bonus"
	EventTypeRent             EventType = "rent"
	EventTypeTravel           EventType = "travel"
	EventTypeEducation        EventType = "education"
	EventTypeMedical          EventType = "medical"
	EventTypeInsuranceProduct EventType = "insurance_product"
	EventTypeBuyHome          EventType = "buy_home"
	EventTypeBuyCar           EventType = "buy_car"
	EventTypeLoanRepayment    EventType = "loan_repayment"
	EventTypeCustom           EventType = "custom"
	EventTypeGroup            EventType = "group"
)

var knownEventTypes = map[EventType]bool{
	EventTypeSalary:           true,
	EventTypeBonus:            true,
	EventTypeRent:             true,
	EventTypeTravel:           true,
	EventTypeEducation:        true,
	EventTypeMedical:          true,
	EventTypeInsuranceProduct: true,
	EventTypeBuyHome:          true,
	EventTypeBuyCar:           true,
	EventTypeLoanRepayment:    true,
	EventTypeCustom:           true,
	EventTypeGroup:            true,
}

// Valid reports whether t belongs to the closed set of event types
func (t EventType) Valid() bool {
	return knownEventTypes[t]
}

// IsIncome reports whether events of this type bring money in
func (t EventType) IsIncome() bool {
	return t == EventTypeSalary || t == EventTypeBonus
}

// EventKind separates cash-flow producing definitions from grouping containers
type EventKind string

const (
	EventKindCashflow EventKind = "cashflow"
	EventKindGroup    EventKind = "group"
)

// RuleMode selects which field set of a Rule is authoritative
type RuleMode string

const (
	RuleModeParams   RuleMode = "params"
	RuleModeSchedule RuleMode = "schedule"
)

// OrDefault returns m, or params mode when m is empty
func (m RuleMode) OrDefault() RuleMode {
	if m == "" {
		return RuleModeParams
	}
	return m
}

// ScheduleEntry is one explicit month/amount pair of a schedule-mode rule
type ScheduleEntry struct {
	Month  month.Month     `yaml:"month" json:"month"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
}

// Rule is the stored recurring cash-flow record as the editor persists it.
// Both field sets may be present; Mode decides which one is meaningful.
type Rule struct {
	Mode            RuleMode        `yaml:"mode" json:"mode"`
	StartMonth      month.Month     `yaml:"start_month" json:"startMonth"`
	EndMonth        *month.Month    `yaml:"end_month,omitempty" json:"endMonth,omitempty"`
	MonthlyAmount   decimal.Decimal `yaml:"monthly_amount" json:"monthlyAmount"`
	OneTimeAmount   decimal.Decimal `yaml:"one_time_amount" json:"oneTimeAmount"`
	AnnualGrowthPct decimal.Decimal `yaml:"annual_growth_pct" json:"annualGrowthPct"` // whole percent, 3 = 3%
	Schedule        []ScheduleEntry `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// EventTemplate records which editor template produced a definition
type EventTemplate struct {
	ID     string            `yaml:"id" json:"id"`
	Params map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
}

// EventDefinition is a shared, library-level cash-flow rule referenced by scenarios
type EventDefinition struct {
	ID       string         `yaml:"id" json:"id"`
	Title    string         `yaml:"title" json:"title"`
	Type     EventType      `yaml:"type" json:"type"`
	Kind     EventKind      `yaml:"kind" json:"kind"`
	Rule     Rule           `yaml:"rule" json:"rule"`
	Currency string         `yaml:"currency,omitempty" json:"currency,omitempty"`
	MemberID string         `yaml:"member_id,omitempty" json:"memberId,omitempty"`
	ParentID string         `yaml:"parent_id,omitempty" json:"parentId,omitempty"`
	Template *EventTemplate `yaml:"template,omitempty" json:"template,omitempty"`
}

// IsCashflow reports whether the definition produces cash flow. An empty kind
// is treated as cashflow unless the type is group.
func (d EventDefinition) IsCashflow() bool {
	switch d.Kind {
	case EventKindCashflow:
		return true
	case EventKindGroup:
		return false
	default:
		return d.Type != EventTypeGroup
	}
}

// ScenarioEventRef attaches a library definition to one scenario
type ScenarioEventRef struct {
	RefID     string              `yaml:"ref_id" json:"refId"`
	Enabled   bool                `yaml:"enabled" json:"enabled"`
	Overrides *EventRuleOverrides `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Library indexes event definitions by id
type Library map[string]EventDefinition

// NewLibrary builds an index over defs. Later duplicates of an id are ignored.
func NewLibrary(defs []EventDefinition) Library {
	lib := make(Library, len(defs))
	for _, d := range defs {
		if _, exists := lib[d.ID]; exists {
			continue
		}
		lib[d.ID] = d
	}
	return lib
}

// Get returns the definition with the given id
func (l Library) Get(id string) (EventDefinition, bool) {
	d, ok := l[id]
	return d, ok
}
