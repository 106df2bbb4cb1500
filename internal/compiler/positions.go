package compiler

import "strconv"

// mapHomes normalizes the legacy singular home and the homes list, validates
// each and derives its mortgage. Purchase price and down payment are the only
// source of the principal.
func (c *compilation) mapHomes() ([]EngineHome, error) {
	var homes []EngineHome
	for i, h := range c.scenario.Positions.AllHomes() {
		ref := positionRef("home", h.ID, i)
		if !h.PurchaseMonth.Valid() {
			if err := c.reject(CodeInvalidHome, ref, "purchase month %q is not YYYY-MM", h.PurchaseMonth); err != nil {
				return nil, err
			}
			continue
		}
		if !h.PurchasePrice.IsPositive() {
			if err := c.reject(CodeInvalidHome, ref, "purchase price must be positive, got %s", h.PurchasePrice); err != nil {
				return nil, err
			}
			continue
		}
		if h.DownPayment.IsNegative() || h.DownPayment.GreaterThan(h.PurchasePrice) {
			if err := c.reject(CodeInvalidHome, ref, "down payment %s must be between 0 and the purchase price %s",
				h.DownPayment, h.PurchasePrice); err != nil {
				return nil, err
			}
			continue
		}
		if h.MortgageTermYears < 0 {
			if err := c.reject(CodeInvalidHome, ref, "mortgage term must not be negative, got %d", h.MortgageTermYears); err != nil {
				return nil, err
			}
			continue
		}

		home := EngineHome{
			ID:                     h.ID,
			Name:                   h.Name,
			PurchaseMonth:          h.PurchaseMonth,
			PurchasePrice:          h.PurchasePrice,
			DownPayment:            h.DownPayment,
			AnnualAppreciationRate: h.AnnualAppreciationPct.Div(hundred),
			MonthlyHoldingCost:     h.MonthlyHoldingCost,
		}
		if principal := h.PurchasePrice.Sub(h.DownPayment); principal.IsPositive() {
			home.Mortgage = &EngineMortgage{
				Principal:  principal,
				AnnualRate: h.MortgageRatePct.Div(hundred),
				TermMonths: h.MortgageTermYears * 12,
			}
		}
		homes = append(homes, home)
	}
	return homes, nil
}

func (c *compilation) mapLoans() ([]EngineLoan, error) {
	var loans []EngineLoan
	for i, l := range c.scenario.Positions.Loans {
		ref := positionRef("loan", l.ID, i)
		if !l.StartMonth.Valid() {
			if err := c.reject(CodeInvalidMonth, ref, "start month %q is not YYYY-MM", l.StartMonth); err != nil {
				return nil, err
			}
			continue
		}
		if l.Principal.IsNegative() || l.TermYears < 0 {
			if err := c.reject(CodeInvalidPosition, ref, "loan principal and term must not be negative"); err != nil {
				return nil, err
			}
			continue
		}
		loans = append(loans, EngineLoan{
			ID:             l.ID,
			Name:           l.Name,
			StartMonth:     l.StartMonth,
			Principal:      l.Principal,
			AnnualRate:     l.AnnualRatePct.Div(hundred),
			TermMonths:     l.TermYears * 12,
			MonthlyPayment: l.MonthlyPayment,
		})
	}
	return loans, nil
}

func (c *compilation) mapInvestments() ([]EngineInvestment, error) {
	var investments []EngineInvestment
	for i, inv := range c.scenario.Positions.Investments {
		ref := positionRef("investment", inv.ID, i)
		if !inv.StartMonth.Valid() {
			if err := c.reject(CodeInvalidMonth, ref, "start month %q is not YYYY-MM", inv.StartMonth); err != nil {
				return nil, err
			}
			continue
		}
		investments = append(investments, EngineInvestment{
			ID:                  inv.ID,
			Name:                inv.Name,
			StartMonth:          inv.StartMonth,
			InitialValue:        inv.InitialValue,
			MonthlyContribution: inv.MonthlyContribution,
			AnnualReturnRate:    inv.AnnualReturnPct.Div(hundred),
		})
	}
	return investments, nil
}

func (c *compilation) mapCars() ([]EngineCar, error) {
	var cars []EngineCar
	for i, car := range c.scenario.Positions.Cars {
		ref := positionRef("car", car.ID, i)
		if !car.PurchaseMonth.Valid() {
			if err := c.reject(CodeInvalidMonth, ref, "purchase month %q is not YYYY-MM", car.PurchaseMonth); err != nil {
				return nil, err
			}
			continue
		}
		if car.PurchasePrice.IsNegative() {
			if err := c.reject(CodeInvalidPosition, ref, "purchase price must not be negative, got %s", car.PurchasePrice); err != nil {
				return nil, err
			}
			continue
		}
		cars = append(cars, EngineCar{
			ID:                     car.ID,
			Name:                   car.Name,
			PurchaseMonth:          car.PurchaseMonth,
			PurchasePrice:          car.PurchasePrice,
			AnnualDepreciationRate: car.AnnualDepreciationPct.Div(hundred),
			MonthlyHoldingCost:     car.MonthlyHoldingCost,
		})
	}
	return cars, nil
}

// positionRef names a position for warnings, falling back to its list index
func positionRef(kind, id string, index int) string {
	if id != "" {
		return kind + ":" + id
	}
	return kind + "[" + strconv.Itoa(index) + "]"
}
