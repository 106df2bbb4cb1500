package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rgehrsitz/planforge/internal/domain"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a plan document
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the document format from a file extension; anything but .json is YAML
func FormatFor(filename string) Format {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// InputParser handles parsing of plan documents
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads and validates a plan from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	plan, err := ip.Parse(data, FormatFor(filename))
	if err != nil {
		return nil, err
	}

	if err := ip.ValidatePlan(plan); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}

	return plan, nil
}

// Parse decodes a plan document without validating it
func (ip *InputParser) Parse(data []byte, format Format) (*domain.Plan, error) {
	var plan domain.Plan
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	return &plan, nil
}

// Encode serializes a plan in the given format
func (ip *InputParser) Encode(plan *domain.Plan, format Format) ([]byte, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(plan); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveToFile writes a plan to filename in the format its extension implies
func (ip *InputParser) SaveToFile(plan *domain.Plan, filename string) error {
	data, err := ip.Encode(plan, FormatFor(filename))
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}

// ValidatePlan checks the structure of a plan: identifiers, enums and
// horizons. Month tokens and position values are left to the compiler so
// lenient compilation can still report on partially broken plans.
func (ip *InputParser) ValidatePlan(plan *domain.Plan) error {
	if plan == nil {
		return fmt.Errorf("plan is required")
	}

	seen := make(map[string]bool, len(plan.EventLibrary))
	for i, def := range plan.EventLibrary {
		if err := ip.validateDefinition(&def); err != nil {
			return fmt.Errorf("event definition %d (%s) validation failed: %w", i, def.ID, err)
		}
		if seen[def.ID] {
			return fmt.Errorf("event definition id %s is used more than once", def.ID)
		}
		seen[def.ID] = true
	}

	if len(plan.Scenarios) == 0 {
		return fmt.Errorf("no scenarios provided")
	}

	scenarioIDs := make(map[string]bool, len(plan.Scenarios))
	for i, scenario := range plan.Scenarios {
		if err := ip.validateScenario(&scenario); err != nil {
			return fmt.Errorf("scenario %d (%s) validation failed: %w", i, scenario.ID, err)
		}
		if scenarioIDs[scenario.ID] {
			return fmt.Errorf("scenario id %s is used more than once", scenario.ID)
		}
		scenarioIDs[scenario.ID] = true
	}

	return nil
}

func (ip *InputParser) validateDefinition(def *domain.EventDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !def.Type.Valid() {
		return fmt.Errorf("unknown event type %q", def.Type)
	}
	switch def.Kind {
	case "", domain.EventKindCashflow, domain.EventKindGroup:
	default:
		return fmt.Errorf("unknown event kind %q", def.Kind)
	}
	if err := validateMode(def.Rule.Mode); err != nil {
		return err
	}
	if def.ParentID == def.ID {
		return fmt.Errorf("event cannot be its own parent")
	}
	return nil
}

func validateMode(mode domain.RuleMode) error {
	switch mode {
	case "", domain.RuleModeParams, domain.RuleModeSchedule:
		return nil
	}
	return fmt.Errorf("unknown rule mode %q", mode)
}

func (ip *InputParser) validateScenario(scenario *domain.Scenario) error {
	if scenario.ID == "" {
		return fmt.Errorf("id is required")
	}
	if scenario.Assumptions.HorizonMonths <= 0 {
		return fmt.Errorf("horizon_months must be positive, got %d", scenario.Assumptions.HorizonMonths)
	}

	members := make(map[string]bool, len(scenario.Members))
	for _, m := range scenario.Members {
		if m.ID == "" {
			return fmt.Errorf("member id is required")
		}
		if members[m.ID] {
			return fmt.Errorf("member id %s is used more than once", m.ID)
		}
		if m.AgeAtBaseMonth != nil && *m.AgeAtBaseMonth < 0 {
			return fmt.Errorf("member %s age must not be negative", m.ID)
		}
		members[m.ID] = true
	}

	refs := make(map[string]bool, len(scenario.EventRefs))
	for _, ref := range scenario.EventRefs {
		if ref.RefID == "" {
			return fmt.Errorf("event reference without ref_id")
		}
		if refs[ref.RefID] {
			return fmt.Errorf("event %s is referenced more than once", ref.RefID)
		}
		refs[ref.RefID] = true
		if ref.Overrides != nil && ref.Overrides.Mode != nil {
			if err := validateMode(*ref.Overrides.Mode); err != nil {
				return fmt.Errorf("event %s overrides: %w", ref.RefID, err)
			}
		}
	}

	rules := make(map[string]bool, len(scenario.BudgetRules))
	for _, rule := range scenario.BudgetRules {
		if rule.ID == "" {
			return fmt.Errorf("budget rule id is required")
		}
		if rules[rule.ID] {
			return fmt.Errorf("budget rule id %s is used more than once", rule.ID)
		}
		rules[rule.ID] = true
		if rule.AgeBand.FromYears < 0 || rule.AgeBand.ToYears < rule.AgeBand.FromYears {
			return fmt.Errorf("budget rule %s has invalid age band [%d, %d)", rule.ID, rule.AgeBand.FromYears, rule.AgeBand.ToYears)
		}
	}

	return nil
}
