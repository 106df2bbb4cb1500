// Package output renders compile results, budget series, duplicate clusters
// and projections as console tables, JSON or CSV.
package output

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/planforge/internal/budget"
	"github.com/rgehrsitz/planforge/internal/compiler"
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/duplicates"
	"github.com/rgehrsitz/planforge/internal/projection"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders each report kind in one output format
type Formatter interface {
	Name() string
	Compile(reports []CompileReport) ([]byte, error)
	Budget(report BudgetReport) ([]byte, error)
	Clusters(clusters []duplicates.Cluster) ([]byte, error)
	Differences(report DiffReport) ([]byte, error)
	Merge(steps []duplicates.MergeStep) ([]byte, error)
	Projection(report ProjectionReport) ([]byte, error)
}

// CompileReport is the outcome of compiling one scenario
type CompileReport struct {
	ScenarioID   string           `json:"scenarioId"`
	ScenarioName string           `json:"scenarioName,omitempty"`
	Result       *compiler.Result `json:"result,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// NewCompileReport pairs a scenario with its compile result or error
func NewCompileReport(scenario domain.Scenario, result *compiler.Result, err error) CompileReport {
	r := CompileReport{ScenarioID: scenario.ID, ScenarioName: scenario.Name, Result: result}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// BudgetReport is a scenario's compiled budget series and its per-month totals
type BudgetReport struct {
	ScenarioID string                `json:"scenarioId"`
	Entries    []budget.MonthlyEntry `json:"entries"`
	Totals     []budget.MonthTotal   `json:"totals"`
}

// NewBudgetReport summarizes entries by month
func NewBudgetReport(scenarioID string, entries []budget.MonthlyEntry) BudgetReport {
	return BudgetReport{ScenarioID: scenarioID, Entries: entries, Totals: budget.SummarizeByMonth(entries)}
}

// DiffReport compares one scenario's event against a base definition
type DiffReport struct {
	ScenarioID  string                     `json:"scenarioId"`
	RefID       string                     `json:"refId"`
	BaseID      string                     `json:"baseId"`
	Differences []duplicates.Difference    `json:"differences"`
	Overrides   *domain.EventRuleOverrides `json:"overrides,omitempty"`
}

// ProjectionReport is a cash projection with the warnings its compilation raised
type ProjectionReport struct {
	ScenarioID string                 `json:"scenarioId"`
	Projection *projection.Projection `json:"projection"`
	Warnings   []compiler.Warning     `json:"warnings,omitempty"`
}

// NormalizeFormatName maps aliases onto the canonical format names
func NormalizeFormatName(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "table", "text", "console":
		return "console"
	default:
		return f
	}
}

// NewFormatter creates a formatter based on the format name
func NewFormatter(format string) (Formatter, error) {
	switch NormalizeFormatName(format) {
	case "console":
		return ConsoleFormatter{}, nil
	case "json":
		return JSONFormatter{Indent: true}, nil
	case "csv":
		return CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

var printer = message.NewPrinter(language.English)

// FormatAmount formats a decimal with thousands separators and two decimals
func FormatAmount(amount decimal.Decimal) string {
	return printer.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
}

// FormatPercentage formats a decimal as percentage
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}

// FormatRate formats a fractional rate (0.035) as a percentage
func FormatRate(rate decimal.Decimal) string {
	return FormatPercentage(rate.Mul(decimal.NewFromInt(100)))
}
