package events

import "github.com/rgehrsitz/planforge/internal/domain"

// Resolved bundles one scenario reference with its definition and effective rule
type Resolved struct {
	Definition domain.EventDefinition
	Ref        domain.ScenarioEventRef
	Rule       EffectiveRule
}

// SkipReason explains why a reference produced no resolved event
type SkipReason string

const (
	SkipDisabled          SkipReason = "disabled"
	SkipMissingDefinition SkipReason = "missing-definition"
	SkipGroup             SkipReason = "group"
	SkipParentDisabled    SkipReason = "parent-disabled"
)

// Skipped records a reference left out by ResolveScenario
type Skipped struct {
	RefID  string
	Reason SkipReason
}

// ResolveScenario resolves every enabled cashflow reference of the scenario, in
// reference order. Group definitions never produce cash flow; children of a
// group the scenario disabled are skipped with it.
func ResolveScenario(scenario domain.Scenario, lib domain.Library) ([]Resolved, []Skipped) {
	disabledGroups := make(map[string]bool)
	for _, ref := range scenario.EventRefs {
		if def, ok := lib.Get(ref.RefID); ok && !def.IsCashflow() && !ref.Enabled {
			disabledGroups[def.ID] = true
		}
	}

	var resolved []Resolved
	var skipped []Skipped
	for _, ref := range scenario.EventRefs {
		if !ref.Enabled {
			skipped = append(skipped, Skipped{RefID: ref.RefID, Reason: SkipDisabled})
			continue
		}
		def, ok := lib.Get(ref.RefID)
		if !ok {
			skipped = append(skipped, Skipped{RefID: ref.RefID, Reason: SkipMissingDefinition})
			continue
		}
		if !def.IsCashflow() {
			skipped = append(skipped, Skipped{RefID: ref.RefID, Reason: SkipGroup})
			continue
		}
		if def.ParentID != "" && disabledGroups[def.ParentID] {
			skipped = append(skipped, Skipped{RefID: ref.RefID, Reason: SkipParentDisabled})
			continue
		}

		resolved = append(resolved, Resolved{
			Definition: def.DeepCopy(),
			Ref: domain.ScenarioEventRef{
				RefID:     ref.RefID,
				Enabled:   ref.Enabled,
				Overrides: ref.Overrides.DeepCopy(),
			},
			Rule: ResolveEventRule(def, ref),
		})
	}
	return resolved, skipped
}
