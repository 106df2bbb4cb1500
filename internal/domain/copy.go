package domain

import "github.com/rgehrsitz/planforge/internal/month"

// DeepCopy creates a deep copy of the scenario so transforms never alias the caller's data
func (s *Scenario) DeepCopy() *Scenario {
	if s == nil {
		return nil
	}

	out := &Scenario{
		ID:           s.ID,
		Name:         s.Name,
		BaseCurrency: s.BaseCurrency,
		Assumptions:  s.Assumptions,
	}
	out.Assumptions.BaseMonth = copyMonth(s.Assumptions.BaseMonth)

	if s.Members != nil {
		out.Members = make([]Member, len(s.Members))
		for i, m := range s.Members {
			out.Members[i] = m
			out.Members[i].BirthMonth = copyMonth(m.BirthMonth)
			if m.AgeAtBaseMonth != nil {
				age := *m.AgeAtBaseMonth
				out.Members[i].AgeAtBaseMonth = &age
			}
		}
	}

	if s.EventRefs != nil {
		out.EventRefs = make([]ScenarioEventRef, len(s.EventRefs))
		for i, r := range s.EventRefs {
			out.EventRefs[i] = ScenarioEventRef{
				RefID:     r.RefID,
				Enabled:   r.Enabled,
				Overrides: r.Overrides.DeepCopy(),
			}
		}
	}

	if s.BudgetRules != nil {
		out.BudgetRules = make([]BudgetRule, len(s.BudgetRules))
		for i, b := range s.BudgetRules {
			out.BudgetRules[i] = b
			out.BudgetRules[i].StartMonth = copyMonth(b.StartMonth)
			out.BudgetRules[i].EndMonth = copyMonth(b.EndMonth)
		}
	}

	if s.Positions.Home != nil {
		h := *s.Positions.Home
		out.Positions.Home = &h
	}
	out.Positions.Homes = append([]Home(nil), s.Positions.Homes...)
	out.Positions.Loans = append([]Loan(nil), s.Positions.Loans...)
	out.Positions.Investments = append([]Investment(nil), s.Positions.Investments...)
	out.Positions.Cars = append([]Car(nil), s.Positions.Cars...)

	return out
}

// DeepCopy returns an independent copy of the definition
func (d EventDefinition) DeepCopy() EventDefinition {
	out := d
	out.Rule.EndMonth = copyMonth(d.Rule.EndMonth)
	if d.Rule.Schedule != nil {
		out.Rule.Schedule = append([]ScheduleEntry{}, d.Rule.Schedule...)
	}
	if d.Template != nil {
		t := EventTemplate{ID: d.Template.ID}
		if d.Template.Params != nil {
			t.Params = make(map[string]string, len(d.Template.Params))
			for k, v := range d.Template.Params {
				t.Params[k] = v
			}
		}
		out.Template = &t
	}
	return out
}

func copyMonth(m *month.Month) *month.Month {
	if m == nil {
		return nil
	}
	return month.Ptr(*m)
}
