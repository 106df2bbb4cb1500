package transform

import (
	"fmt"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/month"
)

// SetHorizon changes how many months the projection covers
type SetHorizon struct {
	Months int
}

func (t *SetHorizon) Name() string {
	return "set_horizon"
}

func (t *SetHorizon) Description() string {
	return fmt.Sprintf("Project %d months (%.1f years)", t.Months, float64(t.Months)/12)
}

func (t *SetHorizon) Validate(base *domain.Scenario) error {
	if t.Months <= 0 {
		return NewTransformError(t.Name(), "validate", fmt.Sprintf("months must be positive, got %d", t.Months), nil)
	}
	if base == nil {
		return NewTransformError(t.Name(), "validate", "base scenario cannot be nil", nil)
	}
	return nil
}

func (t *SetHorizon) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	modified.Assumptions.HorizonMonths = t.Months
	return modified, nil
}

// SetBaseMonth pins the first projected month. An empty Month removes the
// explicit base month so it is inferred again.
type SetBaseMonth struct {
	Month month.Month
}

func (t *SetBaseMonth) Name() string {
	return "set_base_month"
}

func (t *SetBaseMonth) Description() string {
	if t.Month == "" {
		return "Infer the base month"
	}
	return fmt.Sprintf("Start the projection in %s", t.Month)
}

func (t *SetBaseMonth) Validate(base *domain.Scenario) error {
	if t.Month != "" && !t.Month.Valid() {
		return NewTransformError(t.Name(), "validate", fmt.Sprintf("month %q is not YYYY-MM", t.Month), nil)
	}
	if base == nil {
		return NewTransformError(t.Name(), "validate", "base scenario cannot be nil", nil)
	}
	return nil
}

func (t *SetBaseMonth) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	if t.Month == "" {
		modified.Assumptions.BaseMonth = nil
	} else {
		modified.Assumptions.BaseMonth = month.Ptr(t.Month)
	}
	return modified, nil
}
