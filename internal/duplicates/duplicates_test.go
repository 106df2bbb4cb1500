package duplicates

import (
	"testing"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/events"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func rentDef(id, title string, amount int64) domain.EventDefinition {
	return domain.EventDefinition{
		ID:    id,
		Title: title,
		Type:  domain.EventTypeRent,
		Kind:  domain.EventKindCashflow,
		Rule: domain.Rule{
			Mode:          domain.RuleModeParams,
			StartMonth:    "2024-01",
			MonthlyAmount: d(amount),
		},
	}
}

func scenario(id string, refs ...string) domain.Scenario {
	s := domain.Scenario{ID: id, Name: "Scenario " + id, Assumptions: domain.Assumptions{HorizonMonths: 12}}
	for _, r := range refs {
		s.EventRefs = append(s.EventRefs, domain.ScenarioEventRef{RefID: r, Enabled: true})
	}
	return s
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Rent", "rent"},
		{"rent ", "rent"},
		{"Monthly Rent Plan", "rent"},
		{"Café – Downtown", "cafedowntown"},
		{"Kid's school (2025)", "kidsschool2025"},
		{"STRASSE", "strasse"},
		{"Event", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.in))
		})
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("rent", "rent"))
	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
	assert.Equal(t, 4, Levenshtein("", "rent"))
	assert.Equal(t, 1, Levenshtein("café", "cafe"))
}

func TestTitlesSimilar(t *testing.T) {
	assert.True(t, titlesSimilar("rent", "rent"))
	assert.True(t, titlesSimilar("rent", "apartmentrent"))
	assert.True(t, titlesSimilar("kindergarten", "kindergartn"))
	assert.True(t, titlesSimilar("", ""))
	assert.False(t, titlesSimilar("", "rent"))
	assert.False(t, titlesSimilar("apartmentrent", "carinsurance"))
}

func TestFindDuplicateClusters_CaseAndWhitespace(t *testing.T) {
	lib := []domain.EventDefinition{rentDef("rent-a", "Rent", 1800), rentDef("rent-b", "rent ", 1800)}
	scenarios := []domain.Scenario{scenario("a", "rent-a"), scenario("b", "rent-b")}

	clusters := FindDuplicateClusters(scenarios, lib, nil)
	require.Len(t, clusters, 1)
	assert.Equal(t, "rent:params", clusters[0].Key)
	assert.Equal(t, []string{"rent-a", "rent-b"}, clusters[0].RefIDs())
	assert.NotEmpty(t, clusters[0].ID)
	assert.Equal(t, clusters[0].Candidates[0].Fingerprint, clusters[0].Candidates[1].Fingerprint)

	// symmetric in scan order
	reversed := FindDuplicateClusters([]domain.Scenario{scenarios[1], scenarios[0]}, lib, nil)
	require.Len(t, reversed, 1)
	assert.Equal(t, clusters[0].ID, reversed[0].ID)
}

func TestFindDuplicateClusters_AmountBeyondTolerance(t *testing.T) {
	// band is max(100, 10% of the larger amount) = 210
	lib := []domain.EventDefinition{rentDef("rent-a", "Rent", 1800), rentDef("rent-b", "Rent", 2100)}
	scenarios := []domain.Scenario{scenario("a", "rent-a"), scenario("b", "rent-b")}
	assert.Empty(t, FindDuplicateClusters(scenarios, lib, nil))

	lib[1] = rentDef("rent-b", "Rent", 1950)
	assert.Len(t, FindDuplicateClusters(scenarios, lib, nil), 1)
}

func TestFindDuplicateClusters_SingleReferenceIsNotACluster(t *testing.T) {
	// the same definition shared by two scenarios is already merged
	lib := []domain.EventDefinition{rentDef("rent", "Rent", 1800)}
	scenarios := []domain.Scenario{scenario("a", "rent"), scenario("b", "rent")}
	assert.Empty(t, FindDuplicateClusters(scenarios, lib, nil))
}

func TestFindDuplicateClusters_Filters(t *testing.T) {
	travel := rentDef("trip", "Rent", 1800)
	travel.Type = domain.EventTypeTravel
	lib := []domain.EventDefinition{
		rentDef("rent-a", "Rent", 1800),
		rentDef("rent-b", "Rent", 1800),
		rentDef("rent-c", "Rent", 1800),
		travel,
	}
	a := scenario("a", "rent-a", "trip")
	b := scenario("b", "rent-b")
	c := scenario("c", "rent-c")
	c.EventRefs[0].Enabled = false

	t.Run("disabled references are ignored", func(t *testing.T) {
		clusters := FindDuplicateClusters([]domain.Scenario{a, b, c}, lib, nil)
		require.Len(t, clusters, 1)
		assert.Equal(t, []string{"rent-a", "rent-b"}, clusters[0].RefIDs())
	})

	t.Run("type must match", func(t *testing.T) {
		for _, cl := range FindDuplicateClusters([]domain.Scenario{a, b}, lib, nil) {
			for _, cand := range cl.Candidates {
				assert.NotEqual(t, "trip", cand.RefID)
			}
		}
	})

	t.Run("scenario selection", func(t *testing.T) {
		assert.Empty(t, FindDuplicateClusters([]domain.Scenario{a, b}, lib, []string{"a"}))
		assert.Len(t, FindDuplicateClusters([]domain.Scenario{a, b}, lib, []string{"a", "b"}), 1)
	})
}

func TestFindDuplicateClusters_GreedyFirstMember(t *testing.T) {
	// 1800 ~ 1950 and 1950 ~ 2100, but 1800 is not close to 2100
	lib := []domain.EventDefinition{
		rentDef("r1", "Rent", 1800),
		rentDef("r2", "Rent", 1950),
		rentDef("r3", "Rent", 2100),
	}
	scenarios := []domain.Scenario{scenario("a", "r1"), scenario("b", "r2"), scenario("c", "r3")}

	clusters := FindDuplicateClusters(scenarios, lib, nil)
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"r1", "r2"}, clusters[0].RefIDs())
}

func TestFindDuplicateClusters_Schedules(t *testing.T) {
	sched := func(id string, amounts ...int64) domain.EventDefinition {
		def := domain.EventDefinition{
			ID:    id,
			Title: "Tuition",
			Type:  domain.EventTypeEducation,
			Rule:  domain.Rule{Mode: domain.RuleModeSchedule, StartMonth: "2024-09"},
		}
		m := month.Month("2024-09")
		for _, a := range amounts {
			def.Rule.Schedule = append(def.Rule.Schedule, domain.ScheduleEntry{Month: m, Amount: d(a)})
			m = month.MustAdd(m, 12)
		}
		return def
	}

	lib := []domain.EventDefinition{
		sched("t1", 20000, 21000, 22000),
		sched("t2", 20000, 21000, 22500),
		sched("t3", 5000, 5000, 5000),
	}
	scenarios := []domain.Scenario{scenario("a", "t1"), scenario("b", "t2"), scenario("c", "t3")}

	clusters := FindDuplicateClusters(scenarios, lib, nil)
	require.Len(t, clusters, 1)
	assert.Equal(t, "education:schedule", clusters[0].Key)
	assert.Equal(t, []string{"t1", "t2"}, clusters[0].RefIDs())
}

func TestFindDuplicateClusters_UsesOverrides(t *testing.T) {
	lib := []domain.EventDefinition{rentDef("rent-a", "Rent", 1800), rentDef("rent-b", "Rent", 3000)}
	b := scenario("b", "rent-b")
	amount := d(1820)
	b.EventRefs[0].Overrides = &domain.EventRuleOverrides{MonthlyAmount: &amount}

	clusters := FindDuplicateClusters([]domain.Scenario{scenario("a", "rent-a"), b}, lib, nil)
	assert.Len(t, clusters, 1)
}

func TestBuildEventRuleOverrides(t *testing.T) {
	base := events.ParamsRule{StartMonth: "2024-01", MonthlyAmount: d(1800), AnnualGrowthPct: d(3)}

	t.Run("within tolerance needs no patch", func(t *testing.T) {
		target := events.ParamsRule{StartMonth: "2024-02", MonthlyAmount: d(1850), AnnualGrowthPct: decimal.RequireFromString("3.5")}
		assert.Nil(t, BuildEventRuleOverrides(base, target))
		assert.Empty(t, ListEventRuleDifferences(base, target))
	})

	t.Run("differing fields are patched with target values", func(t *testing.T) {
		end := month.Month("2026-12")
		target := events.ParamsRule{StartMonth: "2024-06", EndMonth: &end, MonthlyAmount: d(2500), AnnualGrowthPct: d(3)}

		patch := BuildEventRuleOverrides(base, target)
		require.NotNil(t, patch)
		assert.Nil(t, patch.Mode)
		require.NotNil(t, patch.StartMonth)
		assert.Equal(t, month.Month("2024-06"), *patch.StartMonth)
		assert.Equal(t, domain.OverrideMonth("2026-12"), patch.EndMonth)
		require.NotNil(t, patch.MonthlyAmount)
		assert.True(t, patch.MonthlyAmount.Equal(d(2500)))
		assert.Nil(t, patch.AnnualGrowthPct)
		assert.Nil(t, patch.OneTimeAmount)

		diffs := ListEventRuleDifferences(base, target)
		fields := make([]string, 0, len(diffs))
		for _, df := range diffs {
			fields = append(fields, df.Field)
		}
		assert.Equal(t, []string{"start_month", "end_month", "monthly_amount"}, fields)
		assert.Equal(t, "open", diffs[1].Base)
	})

	t.Run("open end in target becomes explicit null", func(t *testing.T) {
		end := month.Month("2025-01")
		withEnd := base
		withEnd.EndMonth = &end
		patch := BuildEventRuleOverrides(withEnd, base)
		require.NotNil(t, patch)
		assert.True(t, patch.EndMonth.IsNull())
	})

	t.Run("mode switch carries the full target shape", func(t *testing.T) {
		target := events.ScheduleRule{
			StartMonth: "2024-01",
			Entries:    []domain.ScheduleEntry{{Month: "2024-01", Amount: d(1800)}},
		}
		patch := BuildEventRuleOverrides(base, target)
		require.NotNil(t, patch)
		require.NotNil(t, patch.Mode)
		assert.Equal(t, domain.RuleModeSchedule, *patch.Mode)
		assert.Len(t, patch.Schedule, 1)
	})
}

func TestBuildEventRuleOverrides_ResolvesToTarget(t *testing.T) {
	baseDef := rentDef("rent-a", "Rent", 1800)
	target := events.ParamsRule{StartMonth: "2025-01", MonthlyAmount: d(2600), OneTimeAmount: d(5000)}

	baseRule := events.ResolveEventRule(baseDef, domain.ScenarioEventRef{RefID: "rent-a", Enabled: true})
	patch := BuildEventRuleOverrides(baseRule, target)
	resolved := events.ResolveEventRule(baseDef, domain.ScenarioEventRef{RefID: "rent-a", Enabled: true, Overrides: patch})

	assert.Nil(t, BuildEventRuleOverrides(resolved, target))
}

func TestPlanMerge(t *testing.T) {
	lib := []domain.EventDefinition{rentDef("rent-a", "Rent", 1800), rentDef("rent-b", "rent ", 1750)}
	lib[1].Rule.StartMonth = "2024-02"
	plan := &domain.Plan{
		EventLibrary: lib,
		Scenarios:    []domain.Scenario{scenario("a", "rent-a"), scenario("b", "rent-b"), scenario("c", "rent-a", "rent-b")},
	}

	clusters := FindDuplicateClusters(plan.Scenarios, plan.EventLibrary, nil)
	require.Len(t, clusters, 1)

	steps, err := PlanMerge(clusters[0], "rent-a")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "b", steps[0].ScenarioID)
	assert.Equal(t, "rent-b", steps[0].Transform.FromRefID)
	assert.Equal(t, "rent-a", steps[0].Transform.ToRefID)
	// both differences are inside the bands, so the shared rule is used as is
	assert.Nil(t, steps[0].Transform.Overrides)
	assert.Empty(t, steps[0].Differences)

	merged, err := ApplyMerge(plan, steps)
	require.NoError(t, err)

	b, _ := merged.Scenario("b")
	require.Len(t, b.EventRefs, 1)
	assert.Equal(t, "rent-a", b.EventRefs[0].RefID)
	c, _ := merged.Scenario("c")
	require.Len(t, c.EventRefs, 1)
	assert.Equal(t, "rent-a", c.EventRefs[0].RefID)

	// the input plan is untouched
	orig, _ := plan.Scenario("b")
	assert.Equal(t, "rent-b", orig.EventRefs[0].RefID)
	assert.Empty(t, FindDuplicateClusters(merged.Scenarios, merged.EventLibrary, nil))

	_, err = PlanMerge(clusters[0], "unknown")
	assert.Error(t, err)
}
