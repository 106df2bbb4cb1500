package domain

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// NullableMonth is a month override that can be absent, explicitly null or set.
// An explicit null clears the definition's value (an open-ended rule).
type NullableMonth struct {
	Set   bool
	Value *month.Month
}

// OverrideMonth returns a set NullableMonth holding m
func OverrideMonth(m month.Month) NullableMonth {
	return NullableMonth{Set: true, Value: month.Ptr(m)}
}

// ClearedMonth returns an explicit null override
func ClearedMonth() NullableMonth {
	return NullableMonth{Set: true}
}

// IsNull reports whether the override explicitly clears the value
func (n NullableMonth) IsNull() bool {
	return n.Set && n.Value == nil
}

// EventRuleOverrides is a partial Rule patch that shadows definition fields for one scenario.
// Nil pointers and a nil Schedule mean "not overridden".
type EventRuleOverrides struct {
	Mode            *RuleMode        `yaml:"mode,omitempty" json:"mode,omitempty"`
	StartMonth      *month.Month     `yaml:"start_month,omitempty" json:"startMonth,omitempty"`
	EndMonth        NullableMonth    `yaml:"-" json:"-"`
	MonthlyAmount   *decimal.Decimal `yaml:"monthly_amount,omitempty" json:"monthlyAmount,omitempty"`
	OneTimeAmount   *decimal.Decimal `yaml:"one_time_amount,omitempty" json:"oneTimeAmount,omitempty"`
	AnnualGrowthPct *decimal.Decimal `yaml:"annual_growth_pct,omitempty" json:"annualGrowthPct,omitempty"`
	Schedule        []ScheduleEntry  `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// IsEmpty reports whether the patch overrides nothing
func (o *EventRuleOverrides) IsEmpty() bool {
	if o == nil {
		return true
	}
	return o.Mode == nil && o.StartMonth == nil && !o.EndMonth.Set &&
		o.MonthlyAmount == nil && o.OneTimeAmount == nil && o.AnnualGrowthPct == nil &&
		o.Schedule == nil
}

// Merge returns a copy of o with every field patch overrides laid on top.
// A nil result means nothing is overridden.
func (o *EventRuleOverrides) Merge(patch *EventRuleOverrides) *EventRuleOverrides {
	out := o.DeepCopy()
	if out == nil {
		out = &EventRuleOverrides{}
	}
	p := patch.DeepCopy()
	if p != nil {
		if p.Mode != nil {
			out.Mode = p.Mode
		}
		if p.StartMonth != nil {
			out.StartMonth = p.StartMonth
		}
		if p.EndMonth.Set {
			out.EndMonth = p.EndMonth
		}
		if p.MonthlyAmount != nil {
			out.MonthlyAmount = p.MonthlyAmount
		}
		if p.OneTimeAmount != nil {
			out.OneTimeAmount = p.OneTimeAmount
		}
		if p.AnnualGrowthPct != nil {
			out.AnnualGrowthPct = p.AnnualGrowthPct
		}
		if p.Schedule != nil {
			out.Schedule = p.Schedule
		}
	}
	if out.IsEmpty() {
		return nil
	}
	return out
}

// DeepCopy returns an independent copy of the overrides
func (o *EventRuleOverrides) DeepCopy() *EventRuleOverrides {
	if o == nil {
		return nil
	}
	out := &EventRuleOverrides{}
	if o.Mode != nil {
		m := *o.Mode
		out.Mode = &m
	}
	if o.StartMonth != nil {
		out.StartMonth = month.Ptr(*o.StartMonth)
	}
	out.EndMonth.Set = o.EndMonth.Set
	if o.EndMonth.Value != nil {
		out.EndMonth.Value = month.Ptr(*o.EndMonth.Value)
	}
	out.MonthlyAmount = copyDecimal(o.MonthlyAmount)
	out.OneTimeAmount = copyDecimal(o.OneTimeAmount)
	out.AnnualGrowthPct = copyDecimal(o.AnnualGrowthPct)
	if o.Schedule != nil {
		out.Schedule = append([]ScheduleEntry{}, o.Schedule...)
	}
	return out
}

type plainOverrides EventRuleOverrides

// UnmarshalYAML decodes the patch and records whether end_month was present,
// so that an explicit null can be told apart from an absent key.
func (o *EventRuleOverrides) UnmarshalYAML(value *yaml.Node) error {
	var p plainOverrides
	if err := value.Decode(&p); err != nil {
		return err
	}
	*o = EventRuleOverrides(p)
	o.EndMonth = NullableMonth{}

	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value != "end_month" {
			continue
		}
		node := value.Content[i+1]
		o.EndMonth.Set = true
		if node.ShortTag() == "!!null" {
			continue
		}
		var m month.Month
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("overrides.end_month: %w", err)
		}
		o.EndMonth.Value = &m
	}
	return nil
}

// MarshalYAML emits end_month as null when it is explicitly cleared
func (o EventRuleOverrides) MarshalYAML() (interface{}, error) {
	out := map[string]interface{}{}
	if o.Mode != nil {
		out["mode"] = string(*o.Mode)
	}
	if o.StartMonth != nil {
		out["start_month"] = string(*o.StartMonth)
	}
	if o.EndMonth.Set {
		if o.EndMonth.Value == nil {
			out["end_month"] = nil
		} else {
			out["end_month"] = string(*o.EndMonth.Value)
		}
	}
	if o.MonthlyAmount != nil {
		out["monthly_amount"] = o.MonthlyAmount.String()
	}
	if o.OneTimeAmount != nil {
		out["one_time_amount"] = o.OneTimeAmount.String()
	}
	if o.AnnualGrowthPct != nil {
		out["annual_growth_pct"] = o.AnnualGrowthPct.String()
	}
	if o.Schedule != nil {
		out["schedule"] = o.Schedule
	}
	return out, nil
}

// UnmarshalJSON mirrors UnmarshalYAML for the JSON field names
func (o *EventRuleOverrides) UnmarshalJSON(data []byte) error {
	var p plainOverrides
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = EventRuleOverrides(p)
	o.EndMonth = NullableMonth{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	end, ok := raw["endMonth"]
	if !ok {
		return nil
	}
	o.EndMonth.Set = true
	if string(end) == "null" {
		return nil
	}
	var m month.Month
	if err := json.Unmarshal(end, &m); err != nil {
		return fmt.Errorf("overrides.endMonth: %w", err)
	}
	o.EndMonth.Value = &m
	return nil
}

// MarshalJSON emits endMonth as null when it is explicitly cleared
func (o EventRuleOverrides) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	if o.Mode != nil {
		out["mode"] = *o.Mode
	}
	if o.StartMonth != nil {
		out["startMonth"] = *o.StartMonth
	}
	if o.EndMonth.Set {
		if o.EndMonth.Value == nil {
			out["endMonth"] = nil
		} else {
			out["endMonth"] = *o.EndMonth.Value
		}
	}
	if o.MonthlyAmount != nil {
		out["monthlyAmount"] = *o.MonthlyAmount
	}
	if o.OneTimeAmount != nil {
		out["oneTimeAmount"] = *o.OneTimeAmount
	}
	if o.AnnualGrowthPct != nil {
		out["annualGrowthPct"] = *o.AnnualGrowthPct
	}
	if o.Schedule != nil {
		out["schedule"] = o.Schedule
	}
	return json.Marshal(out)
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
