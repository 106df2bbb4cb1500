package budget

import (
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/month"
)

// ageGate tests whether a member's age at a horizon offset falls inside an age band
type ageGate struct {
	ageMonthsAtBase int
	fromMonths      int
	toMonths        int
}

// newAgeGate prefers the member's birth month and falls back to the whole-year
// age at the base month. A member with neither cannot be gated.
func newAgeGate(member domain.Member, base month.Month, band domain.AgeBand) (*ageGate, bool) {
	g := &ageGate{fromMonths: band.FromYears * 12, toMonths: band.ToYears * 12}
	switch {
	case member.BirthMonth != nil && member.BirthMonth.Valid():
		off, ok := month.Offset(*member.BirthMonth, base)
		if !ok {
			return nil, false
		}
		g.ageMonthsAtBase = off
	case member.AgeAtBaseMonth != nil:
		g.ageMonthsAtBase = *member.AgeAtBaseMonth * 12
	default:
		return nil, false
	}
	return g, true
}

func (g *ageGate) includes(offset int) bool {
	age := g.ageMonthsAtBase + offset
	return age >= g.fromMonths && age < g.toMonths
}

// AgeAt returns the member's completed years of age at m.
func AgeAt(member domain.Member, base, m month.Month) (int, bool) {
	g, ok := newAgeGate(member, base, domain.AgeBand{})
	if !ok {
		return 0, false
	}
	off, ok := month.Offset(base, m)
	if !ok {
		return 0, false
	}
	age := g.ageMonthsAtBase + off
	if age < 0 {
		return 0, false
	}
	return age / 12, true
}
