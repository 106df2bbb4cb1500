package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (ScenarioTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("enable_event", createEnableEvent(true))
	registry.Register("disable_event", createEnableEvent(false))
	registry.Register("override_event", createOverrideEvent)
	registry.Register("retarget_event", createRetargetEvent)
	registry.Register("detach_event", createDetachEvent)
	registry.Register("set_horizon", createSetHorizon)
	registry.Register("set_base_month", createSetBaseMonth)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ScenarioTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the sorted names of all registered transforms.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name:param1=value1,param2=value2"
// Example: "override_event:ref=rent,monthly_amount=2100,end_month=null"
func (r *TransformRegistry) ParseTransformSpec(spec string) (ScenarioTransform, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	name := strings.TrimSpace(parts[0])
	paramsStr := strings.TrimSpace(parts[1])

	params := make(map[string]string)
	if paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			kv := strings.SplitN(paramPair, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return r.Create(name, params)
}

// Factory functions for each transform

func createEnableEvent(enabled bool) TransformFactory {
	return func(params map[string]string) (ScenarioTransform, error) {
		ref, ok := params["ref"]
		if !ok {
			return nil, fmt.Errorf("enable_event/disable_event requires 'ref' parameter")
		}
		return &SetEventEnabled{RefID: ref, Enabled: enabled}, nil
	}
}

func createOverrideEvent(params map[string]string) (ScenarioTransform, error) {
	ref, ok := params["ref"]
	if !ok {
		return nil, fmt.Errorf("override_event requires 'ref' parameter")
	}

	o := &domain.EventRuleOverrides{}
	if v, ok := params["mode"]; ok {
		mode := domain.RuleMode(v)
		if mode != domain.RuleModeParams && mode != domain.RuleModeSchedule {
			return nil, fmt.Errorf("invalid mode value: %s", v)
		}
		o.Mode = &mode
	}
	if v, ok := params["start_month"]; ok {
		o.StartMonth = month.Ptr(month.Month(v))
	}
	if v, ok := params["end_month"]; ok {
		if v == "null" || v == "none" {
			o.EndMonth = domain.ClearedMonth()
		} else {
			o.EndMonth = domain.OverrideMonth(month.Month(v))
		}
	}
	for key, dst := range map[string]**decimal.Decimal{
		"monthly_amount":    &o.MonthlyAmount,
		"one_time_amount":   &o.OneTimeAmount,
		"annual_growth_pct": &o.AnnualGrowthPct,
	} {
		v, ok := params[key]
		if !ok {
			continue
		}
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", key, err)
		}
		*dst = &amount
	}
	if v, ok := params["schedule"]; ok {
		entries, err := parseSchedule(v)
		if err != nil {
			return nil, err
		}
		o.Schedule = entries
	}

	replace := false
	if v, ok := params["replace"]; ok {
		replace = v == "true" || v == "yes" || v == "1"
	}

	return &SetEventOverrides{RefID: ref, Overrides: o, Replace: replace}, nil
}

// parseSchedule reads "2024-09:20000;2025-09:21000"
func parseSchedule(v string) ([]domain.ScheduleEntry, error) {
	entries := []domain.ScheduleEntry{}
	for _, pair := range strings.Split(v, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid schedule entry, expected 'YYYY-MM:amount', got: %s", pair)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid schedule amount: %w", err)
		}
		entries = append(entries, domain.ScheduleEntry{Month: month.Month(strings.TrimSpace(parts[0])), Amount: amount})
	}
	return entries, nil
}

func createRetargetEvent(params map[string]string) (ScenarioTransform, error) {
	from, ok := params["from"]
	if !ok {
		return nil, fmt.Errorf("retarget_event requires 'from' parameter")
	}
	to, ok := params["to"]
	if !ok {
		return nil, fmt.Errorf("retarget_event requires 'to' parameter")
	}
	return &RetargetEvent{FromRefID: from, ToRefID: to}, nil
}

func createDetachEvent(params map[string]string) (ScenarioTransform, error) {
	ref, ok := params["ref"]
	if !ok {
		return nil, fmt.Errorf("detach_event requires 'ref' parameter")
	}
	return &DetachEvent{RefID: ref}, nil
}

func createSetHorizon(params map[string]string) (ScenarioTransform, error) {
	monthsStr, ok := params["months"]
	if !ok {
		return nil, fmt.Errorf("set_horizon requires 'months' parameter")
	}

	months, err := strconv.Atoi(monthsStr)
	if err != nil {
		return nil, fmt.Errorf("invalid months value: %w", err)
	}

	return &SetHorizon{Months: months}, nil
}

func createSetBaseMonth(params map[string]string) (ScenarioTransform, error) {
	m, ok := params["month"]
	if !ok {
		return nil, fmt.Errorf("set_base_month requires 'month' parameter")
	}
	if m == "auto" {
		m = ""
	}
	return &SetBaseMonth{Month: month.Month(m)}, nil
}
