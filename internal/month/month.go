// Package month implements arithmetic on "YYYY-MM" month tokens.
//
// Tokens are kept as strings so that malformed user input survives decoding and
// can be reported by callers instead of being coerced to a guessed value.
package month

import (
	"fmt"
	"regexp"
	"time"
)

// Month is a calendar month token in canonical YYYY-MM form.
type Month string

var tokenPattern = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)

// IsValid reports whether value is a well-formed month token.
func IsValid(value string) bool {
	return tokenPattern.MatchString(value)
}

// Valid reports whether m is a well-formed month token.
func (m Month) Valid() bool {
	return IsValid(string(m))
}

// String returns the raw token.
func (m Month) String() string {
	return string(m)
}

// Index returns the linear month index year*12 + month-1.
// The second return value is false for malformed tokens.
func (m Month) Index() (int, bool) {
	if !m.Valid() {
		return 0, false
	}
	s := string(m)
	year := int(s[0]-'0')*1000 + int(s[1]-'0')*100 + int(s[2]-'0')*10 + int(s[3]-'0')
	mon := int(s[5]-'0')*10 + int(s[6]-'0')
	return year*12 + mon - 1, true
}

// FromIndex converts a linear month index back to a token.
// Indexes outside years 0000-9999 yield false.
func FromIndex(index int) (Month, bool) {
	if index < 0 || index >= 10000*12 {
		return "", false
	}
	return Month(fmt.Sprintf("%04d-%02d", index/12, index%12+1)), true
}

// Offset returns the signed number of months from base to target.
// It returns false if either token is malformed.
func Offset(base, target Month) (int, bool) {
	b, ok := base.Index()
	if !ok {
		return 0, false
	}
	t, ok := target.Index()
	if !ok {
		return 0, false
	}
	return t - b, true
}

// Add returns the month offsetMonths after m. Negative offsets go backwards.
func Add(m Month, offsetMonths int) (Month, bool) {
	idx, ok := m.Index()
	if !ok {
		return "", false
	}
	return FromIndex(idx + offsetMonths)
}

// MustAdd is like Add but panics on malformed input. Only for use with
// tokens that were already validated.
func MustAdd(m Month, offsetMonths int) Month {
	out, ok := Add(m, offsetMonths)
	if !ok {
		panic(fmt.Sprintf("month: cannot add %d to %q", offsetMonths, string(m)))
	}
	return out
}

// FromTime returns the month containing t.
func FromTime(t time.Time) Month {
	return Month(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// Before reports whether a is strictly earlier than b. Malformed tokens are never before anything.
func Before(a, b Month) bool {
	ai, ok := a.Index()
	if !ok {
		return false
	}
	bi, ok := b.Index()
	if !ok {
		return false
	}
	return ai < bi
}

// Earliest returns the earliest well-formed month among candidates.
// Malformed tokens are ignored; false means none was well-formed.
func Earliest(candidates ...Month) (Month, bool) {
	var best Month
	found := false
	for _, c := range candidates {
		if !c.Valid() {
			continue
		}
		if !found || Before(c, best) {
			best = c
			found = true
		}
	}
	return best, found
}

// Ptr returns a pointer to a copy of m.
func Ptr(m Month) *Month {
	return &m
}
