package duplicates

import (
	"fmt"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/events"
	"github.com/rgehrsitz/planforge/internal/transform"
)

// MergeStep is the edit one scenario needs to point at the chosen base definition
type MergeStep struct {
	ScenarioID  string                   `json:"scenarioId"`
	FromRefID   string                   `json:"fromRefId"`
	Differences []Difference             `json:"differences,omitempty"`
	Transform   *transform.RetargetEvent `json:"-"`
}

// PlanMerge turns a cluster and the definition the user chose to keep into
// per-scenario retarget steps. Each step carries the overrides that keep the
// scenario's own numbers. Nothing is applied; see ApplyMerge.
func PlanMerge(cluster Cluster, baseDefinitionID string) ([]MergeStep, error) {
	return NewDetector().PlanMerge(cluster, baseDefinitionID)
}

// PlanMerge is the package-level PlanMerge with this detector's bands
func (d *Detector) PlanMerge(cluster Cluster, baseDefinitionID string) ([]MergeStep, error) {
	var baseDef *domain.EventDefinition
	for i := range cluster.Candidates {
		if cluster.Candidates[i].Definition.ID == baseDefinitionID {
			def := cluster.Candidates[i].Definition.DeepCopy()
			baseDef = &def
			break
		}
	}
	if baseDef == nil {
		return nil, fmt.Errorf("definition %s is not part of cluster %s", baseDefinitionID, cluster.ID)
	}

	// the shared definition as every retargeted scenario will see it before overrides
	baseRule := events.ResolveEventRule(*baseDef, domain.ScenarioEventRef{RefID: baseDef.ID, Enabled: true})

	var steps []MergeStep
	for _, cand := range cluster.Candidates {
		if cand.RefID == baseDefinitionID {
			continue
		}
		diffs, patch := d.compare(baseRule, cand.Rule)
		if patch.IsEmpty() {
			patch = nil
		}
		steps = append(steps, MergeStep{
			ScenarioID:  cand.ScenarioID,
			FromRefID:   cand.RefID,
			Differences: diffs,
			Transform: &transform.RetargetEvent{
				FromRefID: cand.RefID,
				ToRefID:   baseDefinitionID,
				Overrides: patch,
			},
		})
	}
	return steps, nil
}

// ApplyMerge applies the steps to a copy of plan. The event library is left
// as is; definitions that lost every reference stay available for reuse.
func ApplyMerge(plan *domain.Plan, steps []MergeStep) (*domain.Plan, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan cannot be nil")
	}

	out := &domain.Plan{
		EventLibrary: make([]domain.EventDefinition, len(plan.EventLibrary)),
		Scenarios:    make([]domain.Scenario, len(plan.Scenarios)),
	}
	for i, def := range plan.EventLibrary {
		out.EventLibrary[i] = def.DeepCopy()
	}
	for i := range plan.Scenarios {
		out.Scenarios[i] = *plan.Scenarios[i].DeepCopy()
	}

	for _, step := range steps {
		scenario, ok := out.Scenario(step.ScenarioID)
		if !ok {
			return nil, fmt.Errorf("merge step references unknown scenario %s", step.ScenarioID)
		}
		merged, err := transform.ApplyTransforms(scenario, []transform.ScenarioTransform{step.Transform})
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", step.ScenarioID, err)
		}
		*scenario = *merged
	}
	return out, nil
}
