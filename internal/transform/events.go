package transform

import (
	"fmt"

	"github.com/rgehrsitz/planforge/internal/domain"
)

func requireRef(name string, base *domain.Scenario, refID string) error {
	if refID == "" {
		return NewTransformError(name, "validate", "ref id cannot be empty", nil)
	}
	if base == nil {
		return NewTransformError(name, "validate", "base scenario cannot be nil", nil)
	}
	if base.EventRef(refID) < 0 {
		return NewTransformError(name, "validate", fmt.Sprintf("scenario %s does not reference event %s", base.ID, refID), nil)
	}
	return nil
}

// SetEventEnabled switches one event reference on or off
type SetEventEnabled struct {
	RefID   string
	Enabled bool
}

func (t *SetEventEnabled) Name() string {
	return "set_event_enabled"
}

func (t *SetEventEnabled) Description() string {
	if t.Enabled {
		return fmt.Sprintf("Enable event %s", t.RefID)
	}
	return fmt.Sprintf("Disable event %s", t.RefID)
}

func (t *SetEventEnabled) Validate(base *domain.Scenario) error {
	return requireRef(t.Name(), base, t.RefID)
}

func (t *SetEventEnabled) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	modified.EventRefs[modified.EventRef(t.RefID)].Enabled = t.Enabled
	return modified, nil
}

// SetEventOverrides lays an override patch over one event reference.
// With Replace the patch becomes the complete override set.
type SetEventOverrides struct {
	RefID     string
	Overrides *domain.EventRuleOverrides
	Replace   bool
}

func (t *SetEventOverrides) Name() string {
	return "set_event_overrides"
}

func (t *SetEventOverrides) Description() string {
	if t.Overrides.IsEmpty() && t.Replace {
		return fmt.Sprintf("Clear overrides of event %s", t.RefID)
	}
	return fmt.Sprintf("Override rule fields of event %s", t.RefID)
}

func (t *SetEventOverrides) Validate(base *domain.Scenario) error {
	if err := requireRef(t.Name(), base, t.RefID); err != nil {
		return err
	}
	if t.Overrides.IsEmpty() && !t.Replace {
		return NewTransformError(t.Name(), "validate", "override patch is empty", nil)
	}
	if o := t.Overrides; o != nil {
		if o.StartMonth != nil && !o.StartMonth.Valid() {
			return NewTransformError(t.Name(), "validate", fmt.Sprintf("start month %q is not YYYY-MM", *o.StartMonth), nil)
		}
		if o.EndMonth.Value != nil && !o.EndMonth.Value.Valid() {
			return NewTransformError(t.Name(), "validate", fmt.Sprintf("end month %q is not YYYY-MM", *o.EndMonth.Value), nil)
		}
	}
	return nil
}

func (t *SetEventOverrides) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	ref := &modified.EventRefs[modified.EventRef(t.RefID)]
	if t.Replace {
		ref.Overrides = nil
	}
	ref.Overrides = ref.Overrides.Merge(t.Overrides)
	return modified, nil
}

// RetargetEvent points a scenario reference at another library definition,
// carrying Overrides so the scenario keeps its own numbers. When the scenario
// already references the target, the source reference is dropped instead.
type RetargetEvent struct {
	FromRefID string
	ToRefID   string
	Overrides *domain.EventRuleOverrides
}

func (t *RetargetEvent) Name() string {
	return "retarget_event"
}

func (t *RetargetEvent) Description() string {
	return fmt.Sprintf("Replace event %s with shared event %s", t.FromRefID, t.ToRefID)
}

func (t *RetargetEvent) Validate(base *domain.Scenario) error {
	if err := requireRef(t.Name(), base, t.FromRefID); err != nil {
		return err
	}
	if t.ToRefID == "" {
		return NewTransformError(t.Name(), "validate", "target ref id cannot be empty", nil)
	}
	if t.ToRefID == t.FromRefID {
		return NewTransformError(t.Name(), "validate", "source and target are the same event", nil)
	}
	return nil
}

func (t *RetargetEvent) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	from := modified.EventRef(t.FromRefID)
	if modified.EventRef(t.ToRefID) >= 0 {
		modified.EventRefs = append(modified.EventRefs[:from], modified.EventRefs[from+1:]...)
		return modified, nil
	}
	modified.EventRefs[from] = domain.ScenarioEventRef{
		RefID:     t.ToRefID,
		Enabled:   modified.EventRefs[from].Enabled,
		Overrides: (*domain.EventRuleOverrides)(nil).Merge(t.Overrides),
	}
	return modified, nil
}

// DetachEvent removes an event reference from the scenario. The library
// definition is untouched.
type DetachEvent struct {
	RefID string
}

func (t *DetachEvent) Name() string {
	return "detach_event"
}

func (t *DetachEvent) Description() string {
	return fmt.Sprintf("Detach event %s", t.RefID)
}

func (t *DetachEvent) Validate(base *domain.Scenario) error {
	return requireRef(t.Name(), base, t.RefID)
}

func (t *DetachEvent) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	i := modified.EventRef(t.RefID)
	modified.EventRefs = append(modified.EventRefs[:i], modified.EventRefs[i+1:]...)
	return modified, nil
}
