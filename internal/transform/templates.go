package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/shopspring/decimal"
)

// TemplateRegistry manages built-in what-if templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []ScenarioTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names, sorted
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// discretionary event types that the lean templates switch off
var discretionaryTypes = map[domain.EventType]bool{
	domain.EventTypeTravel: true,
	domain.EventTypeCustom: true,
}

// CreateBuiltInTemplates builds the what-if templates for one scenario. Event
// templates only touch references the scenario actually enables.
func CreateBuiltInTemplates(scenario *domain.Scenario, library domain.Library) *TemplateRegistry {
	registry := NewTemplateRegistry()

	for _, years := range []int{5, 10, 20, 30} {
		registry.Register(Template{
			Name:        fmt.Sprintf("horizon_%dyr", years),
			Description: fmt.Sprintf("Project %d years (%d months)", years, years*12),
			Transforms:  []ScenarioTransform{&SetHorizon{Months: years * 12}},
		})
	}

	if scenario == nil {
		return registry
	}

	var freeze, lean []ScenarioTransform
	zero := decimal.Zero
	for _, ref := range scenario.EventRefs {
		if !ref.Enabled {
			continue
		}
		def, ok := library.Get(ref.RefID)
		if !ok || !def.IsCashflow() {
			continue
		}
		if def.Rule.Mode.OrDefault() == domain.RuleModeParams {
			freeze = append(freeze, &SetEventOverrides{
				RefID:     ref.RefID,
				Overrides: &domain.EventRuleOverrides{AnnualGrowthPct: &zero},
			})
		}
		if discretionaryTypes[def.Type] {
			lean = append(lean, &SetEventEnabled{RefID: ref.RefID, Enabled: false})
		}
	}

	registry.Register(Template{
		Name:        "freeze_growth",
		Description: "Hold every recurring event at its starting amount",
		Transforms:  freeze,
	})
	registry.Register(Template{
		Name:        "lean",
		Description: "Switch off travel and custom discretionary events",
		Transforms:  lean,
	})
	registry.Register(Template{
		Name:        "lean_10yr",
		Description: "Lean spending over a 10 year horizon",
		Transforms:  append(append([]ScenarioTransform{}, lean...), &SetHorizon{Months: 120}),
	})

	return registry
}

// ApplyTemplate applies a template to a base scenario
func ApplyTemplate(base *domain.Scenario, template Template) (*domain.Scenario, error) {
	if len(template.Transforms) == 0 {
		return base.DeepCopy(), nil
	}
	return ApplyTransforms(base, template.Transforms)
}

// ParseTemplateList parses a comma-separated list of template names
func ParseTemplateList(templateList string) []string {
	if templateList == "" {
		return nil
	}

	parts := strings.Split(templateList, ",")
	templates := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			templates = append(templates, trimmed)
		}
	}
	return templates
}

// GetTemplateHelp returns formatted help text for all templates
func GetTemplateHelp(registry *TemplateRegistry) string {
	if len(registry.templates) == 0 {
		return "No templates registered"
	}

	var sb strings.Builder
	sb.WriteString("Available Templates:\n\n")

	categories := map[string][]Template{}
	order := []string{"Horizon", "Events"}
	for _, name := range registry.List() {
		t := registry.templates[name]
		category := "Events"
		if strings.HasPrefix(t.Name, "horizon_") {
			category = "Horizon"
		}
		categories[category] = append(categories[category], t)
	}

	for _, category := range order {
		templates := categories[category]
		if len(templates) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("%s:\n", category))
		for _, t := range templates {
			sb.WriteString(fmt.Sprintf("  %-20s %s\n", t.Name, t.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Usage:\n")
	sb.WriteString("  planforge whatif plan.yaml --scenario base --with lean,horizon_10yr\n")

	return sb.String()
}
