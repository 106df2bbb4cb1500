package compiler

import (
	"errors"
	"testing"
	"time"

	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/month"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func rentDefinition() domain.EventDefinition {
	return domain.EventDefinition{
		ID:    "rent",
		Title: "Rent",
		Type:  domain.EventTypeRent,
		Kind:  domain.EventKindCashflow,
		Rule: domain.Rule{
			Mode:          domain.RuleModeParams,
			StartMonth:    "2024-01",
			MonthlyAmount: d(1800),
		},
	}
}

func buyHomeDefinition(start month.Month) domain.EventDefinition {
	return domain.EventDefinition{
		ID:    "buy-home",
		Title: "Buy apartment",
		Type:  domain.EventTypeBuyHome,
		Kind:  domain.EventKindCashflow,
		Rule: domain.Rule{
			Mode:          domain.RuleModeParams,
			StartMonth:    start,
			OneTimeAmount: d(1200000),
		},
	}
}

func baseScenario() domain.Scenario {
	return domain.Scenario{
		ID:           "s1",
		Name:         "Baseline",
		BaseCurrency: "CNY",
		Assumptions: domain.Assumptions{
			BaseMonth:     month.Ptr("2024-01"),
			HorizonMonths: 24,
			InitialCash:   d(500000),
		},
		EventRefs: []domain.ScenarioEventRef{{RefID: "rent", Enabled: true}},
	}
}

func home() domain.Home {
	return domain.Home{
		ID:                "apt",
		PurchaseMonth:     "2024-01",
		PurchasePrice:     d(6000000),
		DownPayment:       d(1200000),
		MortgageRatePct:   d(4),
		MortgageTermYears: 30,
	}
}

func TestMapScenarioToEngineInput_EndToEnd(t *testing.T) {
	scenario := baseScenario()
	scenario.Positions.Homes = []domain.Home{home()}

	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{})
	require.NoError(t, err)

	in := res.Input
	assert.Equal(t, month.Month("2024-01"), in.BaseMonth)
	assert.Equal(t, 24, in.HorizonMonths)
	assert.True(t, in.InitialCash.Equal(d(500000)))

	require.Len(t, in.Events, 1)
	assert.Equal(t, "rent", in.Events[0].ID)
	assert.True(t, in.Events[0].MonthlyAmount.Equal(d(1800)))
	assert.True(t, in.Events[0].AnnualGrowthRate.IsZero())
	assert.Nil(t, in.Events[0].EndMonth)

	require.NotNil(t, in.Positions)
	require.Len(t, in.Positions.Homes, 1)
	mortgage := in.Positions.Homes[0].Mortgage
	require.NotNil(t, mortgage)
	assert.True(t, mortgage.Principal.Equal(d(4800000)), "principal %s", mortgage.Principal)
	assert.True(t, mortgage.AnnualRate.Equal(decimal.RequireFromString("0.04")), "rate %s", mortgage.AnnualRate)
	assert.Equal(t, 360, mortgage.TermMonths)
	assert.Empty(t, res.Warnings)
}

func TestMapScenarioToEngineInput_BuyHomeCoveredByPosition(t *testing.T) {
	scenario := baseScenario()
	scenario.EventRefs = append(scenario.EventRefs, domain.ScenarioEventRef{RefID: "buy-home", Enabled: true})
	scenario.Positions.Homes = []domain.Home{home()}

	lib := []domain.EventDefinition{rentDefinition(), buyHomeDefinition("2024-01")}
	for _, opts := range []Options{{}, {Lenient: true}} {
		res, err := MapScenarioToEngineInput(scenario, lib, opts)
		require.NoError(t, err)
		for _, ev := range res.Input.Events {
			assert.NotEqual(t, domain.EventTypeBuyHome, ev.Type)
		}
		require.Len(t, res.Input.Positions.Homes, 1)
		assert.True(t, res.Input.Positions.Homes[0].Mortgage.Principal.Equal(
			home().PurchasePrice.Sub(home().DownPayment)))
	}
}

func TestMapScenarioToEngineInput_BuyHomeWithoutPosition(t *testing.T) {
	scenario := baseScenario()
	scenario.EventRefs = append(scenario.EventRefs, domain.ScenarioEventRef{RefID: "buy-home", Enabled: true})
	lib := []domain.EventDefinition{rentDefinition(), buyHomeDefinition("2024-06")}

	_, err := MapScenarioToEngineInput(scenario, lib, Options{})
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CodeMissingHomePosition, cerr.Code)
	assert.Equal(t, "buy-home", cerr.Ref)
	assert.True(t, errors.Is(err, ErrStrict))

	res, err := MapScenarioToEngineInput(scenario, lib, Options{Lenient: true})
	require.NoError(t, err)
	assert.Nil(t, res.Input.Positions)
	assert.NotEmpty(t, res.Warnings)
	assert.True(t, res.HasWarning(CodeMissingHomePosition))
	require.Len(t, res.Input.Events, 1)
	assert.Equal(t, "rent", res.Input.Events[0].ID)
}

func TestMapScenarioToEngineInput_OnlyEarliestBuyHomeConsidered(t *testing.T) {
	later := buyHomeDefinition("2025-03")
	later.ID = "buy-home-later"

	scenario := baseScenario()
	scenario.EventRefs = append(scenario.EventRefs,
		domain.ScenarioEventRef{RefID: "buy-home-later", Enabled: true},
		domain.ScenarioEventRef{RefID: "buy-home", Enabled: true},
	)
	scenario.Positions.Homes = []domain.Home{home()}

	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition(), buyHomeDefinition("2024-01"), later}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Input.Events, 1)
	assert.True(t, res.HasWarning(CodeIgnoredBuyHome))
}

func TestMapScenarioToEngineInput_InvalidEventMonth(t *testing.T) {
	bad := rentDefinition()
	bad.ID = "bad"
	bad.Rule.StartMonth = "2024-13"

	scenario := baseScenario()
	scenario.EventRefs = append(scenario.EventRefs, domain.ScenarioEventRef{RefID: "bad", Enabled: true})
	lib := []domain.EventDefinition{rentDefinition(), bad}

	_, err := MapScenarioToEngineInput(scenario, lib, Options{})
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CodeInvalidMonth, cerr.Code)

	res, err := MapScenarioToEngineInput(scenario, lib, Options{Lenient: true})
	require.NoError(t, err)
	require.Len(t, res.Input.Events, 1)
	assert.Equal(t, "rent", res.Input.Events[0].ID)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, CodeInvalidMonth, res.Warnings[0].Code)
	assert.Equal(t, "bad", res.Warnings[0].Ref)
}

func TestMapScenarioToEngineInput_InvalidHome(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *domain.Home)
	}{
		{"down payment above price", func(h *domain.Home) { h.DownPayment = d(7000000) }},
		{"negative down payment", func(h *domain.Home) { h.DownPayment = d(-1) }},
		{"zero price", func(h *domain.Home) { h.PurchasePrice = decimal.Zero; h.DownPayment = decimal.Zero }},
		{"malformed purchase month", func(h *domain.Home) { h.PurchaseMonth = "24-01" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := home()
			tt.mutate(&h)
			scenario := baseScenario()
			scenario.Positions.Homes = []domain.Home{h}

			_, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{})
			var cerr *CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, CodeInvalidHome, cerr.Code)

			res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{Lenient: true})
			require.NoError(t, err)
			assert.Nil(t, res.Input.Positions)
			assert.True(t, res.HasWarning(CodeInvalidHome))
		})
	}
}

func TestMapScenarioToEngineInput_FullDownPaymentHasNoMortgage(t *testing.T) {
	h := home()
	h.DownPayment = h.PurchasePrice
	scenario := baseScenario()
	scenario.Positions.Homes = []domain.Home{h}

	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Input.Positions.Homes, 1)
	assert.Nil(t, res.Input.Positions.Homes[0].Mortgage)
}

func TestMapScenarioToEngineInput_LegacySingularHome(t *testing.T) {
	h := home()
	scenario := baseScenario()
	scenario.Positions.Home = &h

	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Input.Positions.Homes, 1)
	assert.Equal(t, "apt", res.Input.Positions.Homes[0].ID)
}

func TestMapScenarioToEngineInput_OtherPositions(t *testing.T) {
	scenario := baseScenario()
	scenario.Positions.Loans = []domain.Loan{
		{ID: "car-loan", StartMonth: "2024-03", Principal: d(100000), AnnualRatePct: decimal.RequireFromString("5.5"), TermYears: 3},
		{ID: "broken", StartMonth: "March", Principal: d(1)},
	}
	scenario.Positions.Investments = []domain.Investment{
		{ID: "index", StartMonth: "2024-01", InitialValue: d(20000), AnnualReturnPct: d(7)},
	}
	scenario.Positions.Cars = []domain.Car{
		{ID: "sedan", PurchaseMonth: "2024-03", PurchasePrice: d(150000), AnnualDepreciationPct: d(15)},
	}

	_, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{})
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "loan:broken", cerr.Ref)

	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{Lenient: true})
	require.NoError(t, err)
	pos := res.Input.Positions
	require.NotNil(t, pos)
	assert.Nil(t, pos.Homes)

	require.Len(t, pos.Loans, 1)
	assert.True(t, pos.Loans[0].AnnualRate.Equal(decimal.RequireFromString("0.055")))
	assert.Equal(t, 36, pos.Loans[0].TermMonths)

	require.Len(t, pos.Investments, 1)
	assert.True(t, pos.Investments[0].AnnualReturnRate.Equal(decimal.RequireFromString("0.07")))

	require.Len(t, pos.Cars, 1)
	assert.True(t, pos.Cars[0].AnnualDepreciationRate.Equal(decimal.RequireFromString("0.15")))

	assert.True(t, res.HasWarning(CodeInvalidMonth))
}

func TestMapScenarioToEngineInput_DoubleCount(t *testing.T) {
	repayment := domain.EventDefinition{
		ID:    "car-payment",
		Title: "Car loan payment",
		Type:  domain.EventTypeLoanRepayment,
		Kind:  domain.EventKindCashflow,
		Rule: domain.Rule{
			Mode:          domain.RuleModeParams,
			StartMonth:    "2024-03",
			EndMonth:      month.Ptr("2027-02"),
			MonthlyAmount: d(3050),
		},
	}
	scenario := baseScenario()
	scenario.EventRefs = append(scenario.EventRefs, domain.ScenarioEventRef{RefID: "car-payment", Enabled: true})
	scenario.Positions.Loans = []domain.Loan{
		{ID: "car-loan", StartMonth: "2024-03", Principal: d(100000), AnnualRatePct: d(5), TermYears: 3, MonthlyPayment: d(3000)},
	}
	lib := []domain.EventDefinition{rentDefinition(), repayment}

	for _, opts := range []Options{{}, {Lenient: true}} {
		res, err := MapScenarioToEngineInput(scenario, lib, opts)
		require.NoError(t, err)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, CodeDoubleCount, res.Warnings[0].Code)
		assert.Equal(t, "car-payment", res.Warnings[0].Ref)
		// detection only: both inputs survive
		assert.Len(t, res.Input.Events, 2)
		assert.Len(t, res.Input.Positions.Loans, 1)
	}
}

func TestMapScenarioToEngineInput_NoDoubleCountForReconciledBuyHome(t *testing.T) {
	covered := buyHomeDefinition("2024-01")
	covered.Rule.MonthlyAmount = d(3000)
	later := buyHomeDefinition("2024-02")
	later.ID = "buy-home-later"
	later.Rule.MonthlyAmount = d(3000)

	scenario := baseScenario()
	scenario.Positions.Homes = []domain.Home{home()}
	scenario.Positions.Loans = []domain.Loan{
		{ID: "bridge", StartMonth: "2024-01", Principal: d(36000), TermYears: 1, MonthlyPayment: d(3000)},
	}
	scenario.EventRefs = append(scenario.EventRefs,
		domain.ScenarioEventRef{RefID: "buy-home", Enabled: true},
		domain.ScenarioEventRef{RefID: "buy-home-later", Enabled: true},
	)

	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition(), covered, later}, Options{Lenient: true})
	require.NoError(t, err)
	assert.True(t, res.HasWarning(CodeIgnoredBuyHome))
	assert.False(t, res.HasWarning(CodeDoubleCount), "dropped buy_home events are not checked against loans")
	require.Len(t, res.Input.Events, 1)
	assert.Equal(t, "rent", res.Input.Events[0].ID)
}

func TestMapScenarioToEngineInput_NoDoubleCountForDifferentMagnitude(t *testing.T) {
	scenario := baseScenario()
	scenario.Positions.Loans = []domain.Loan{
		{ID: "student", StartMonth: "2024-01", Principal: d(10000), TermYears: 1, MonthlyPayment: d(850)},
	}
	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{})
	require.NoError(t, err)
	assert.False(t, res.HasWarning(CodeDoubleCount))
}

func TestMapScenarioToEngineInput_ScheduleAndGrowth(t *testing.T) {
	tuition := domain.EventDefinition{
		ID:   "tuition",
		Type: domain.EventTypeEducation,
		Rule: domain.Rule{
			Mode:       domain.RuleModeSchedule,
			StartMonth: "2024-09",
			Schedule: []domain.ScheduleEntry{
				{Month: "2024-09", Amount: d(20000)},
				{Month: "2025-9", Amount: d(21000)},
			},
		},
	}
	salary := domain.EventDefinition{
		ID:   "salary",
		Type: domain.EventTypeSalary,
		Rule: domain.Rule{StartMonth: "2024-01", MonthlyAmount: d(30000), AnnualGrowthPct: d(3)},
	}
	scenario := baseScenario()
	scenario.EventRefs = []domain.ScenarioEventRef{{RefID: "tuition", Enabled: true}, {RefID: "salary", Enabled: true}}

	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{tuition, salary}, Options{Lenient: true})
	require.NoError(t, err)
	require.Len(t, res.Input.Events, 2)

	assert.Equal(t, domain.RuleModeSchedule, res.Input.Events[0].Mode)
	require.Len(t, res.Input.Events[0].Schedule, 1)
	assert.True(t, res.HasWarning(CodeInvalidMonth))

	assert.Equal(t, domain.RuleModeParams, res.Input.Events[1].Mode)
	assert.True(t, res.Input.Events[1].AnnualGrowthRate.Equal(decimal.RequireFromString("0.03")))
}

func TestMapScenarioToEngineInput_ScheduleWithoutStartMonth(t *testing.T) {
	tuition := domain.EventDefinition{
		ID:   "tuition",
		Type: domain.EventTypeEducation,
		Rule: domain.Rule{
			Mode: domain.RuleModeSchedule,
			Schedule: []domain.ScheduleEntry{
				{Month: "2024-09", Amount: d(20000)},
				{Month: "2025-01", Amount: d(21000)},
			},
		},
	}
	scenario := baseScenario()
	scenario.Assumptions.BaseMonth = nil
	scenario.EventRefs = []domain.ScenarioEventRef{{RefID: "tuition", Enabled: true}}

	for _, lenient := range []bool{false, true} {
		res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{tuition}, Options{Lenient: lenient})
		require.NoError(t, err)
		assert.Empty(t, res.Warnings)
		require.Len(t, res.Input.Events, 1)
		assert.Equal(t, month.Month("2024-09"), res.Input.Events[0].StartMonth)
		assert.Len(t, res.Input.Events[0].Schedule, 2)
		assert.Equal(t, month.Month("2024-09"), res.Input.BaseMonth)
	}
}

func TestMapScenarioToEngineInput_SkipsDisabledAndMissing(t *testing.T) {
	scenario := baseScenario()
	scenario.EventRefs = []domain.ScenarioEventRef{
		{RefID: "rent", Enabled: false},
		{RefID: "ghost", Enabled: true},
	}
	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Input.Events)
	assert.True(t, res.HasWarning(CodeMissingDefinition))
}

func TestMapScenarioToEngineInput_CurrencyMismatch(t *testing.T) {
	def := rentDefinition()
	def.Currency = "USD"
	res, err := MapScenarioToEngineInput(baseScenario(), []domain.EventDefinition{def}, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Input.Events, 1)
	assert.True(t, res.HasWarning(CodeCurrencyMismatch))
}

func TestMapScenarioToEngineInput_Horizon(t *testing.T) {
	scenario := baseScenario()
	scenario.Assumptions.HorizonMonths = 0
	for _, opts := range []Options{{}, {Lenient: true}} {
		_, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, opts)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidAssumptions)
	}
}

func TestMapScenarioToEngineInput_DoesNotMutateInputs(t *testing.T) {
	scenario := baseScenario()
	scenario.Positions.Homes = []domain.Home{home()}
	lib := []domain.EventDefinition{rentDefinition()}

	res, err := MapScenarioToEngineInput(scenario, lib, Options{})
	require.NoError(t, err)
	res.Input.Events[0].MonthlyAmount = d(1)
	res.Input.Positions.Homes[0].PurchasePrice = d(1)

	assert.True(t, lib[0].Rule.MonthlyAmount.Equal(d(1800)))
	assert.True(t, scenario.Positions.Homes[0].PurchasePrice.Equal(d(6000000)))
}

func TestInferBaseMonth(t *testing.T) {
	now := time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC)
	lib := []domain.EventDefinition{rentDefinition()}

	t.Run("explicit wins", func(t *testing.T) {
		s := baseScenario()
		s.Assumptions.BaseMonth = month.Ptr("2023-07")
		assert.Equal(t, month.Month("2023-07"), InferBaseMonth(s, lib, now))
	})

	t.Run("earliest enabled event", func(t *testing.T) {
		s := baseScenario()
		s.Assumptions.BaseMonth = nil
		s.Positions.Loans = []domain.Loan{{ID: "l", StartMonth: "2020-01"}}
		assert.Equal(t, month.Month("2024-01"), InferBaseMonth(s, lib, now))
	})

	t.Run("earliest position", func(t *testing.T) {
		s := baseScenario()
		s.Assumptions.BaseMonth = nil
		s.EventRefs = nil
		s.Positions.Cars = []domain.Car{{ID: "c", PurchaseMonth: "2025-02"}}
		s.Positions.Loans = []domain.Loan{{ID: "l", StartMonth: "2024-11"}}
		assert.Equal(t, month.Month("2024-11"), InferBaseMonth(s, lib, now))
	})

	t.Run("current month", func(t *testing.T) {
		s := baseScenario()
		s.Assumptions.BaseMonth = nil
		s.EventRefs = nil
		assert.Equal(t, month.Month("2026-05"), InferBaseMonth(s, lib, now))
	})
}

func TestMapScenarioToEngineInput_MalformedBaseMonth(t *testing.T) {
	scenario := baseScenario()
	scenario.Assumptions.BaseMonth = month.Ptr("2024/01")

	_, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{})
	assert.ErrorIs(t, err, ErrStrict)

	res, err := MapScenarioToEngineInput(scenario, []domain.EventDefinition{rentDefinition()}, Options{Lenient: true})
	require.NoError(t, err)
	assert.Equal(t, month.Month("2024-01"), res.Input.BaseMonth)
	assert.True(t, res.HasWarning(CodeInvalidMonth))
}
