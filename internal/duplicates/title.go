package duplicates

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	xtransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopWords carry no identity in event titles
var stopWords = map[string]bool{
	"event":   true,
	"events":  true,
	"plan":    true,
	"monthly": true,
	"month":   true,
	"the":     true,
	"a":       true,
	"an":      true,
	"of":      true,
	"for":     true,
	"and":     true,
}

// NormalizeTitle folds case, strips diacritics and punctuation, drops stop
// words and joins the remaining tokens without separator.
// "Monthly Rent – Café Street" becomes "rentcafestreet".
func NormalizeTitle(title string) string {
	// transformers and casers keep state, so each call builds its own
	strip := xtransform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := xtransform.String(strip, title)
	if err != nil {
		plain = title
	}
	folded := cases.Fold().String(plain)

	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var sb strings.Builder
	for _, tok := range tokens {
		if stopWords[tok] {
			continue
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

// Levenshtein returns the rune edit distance between a and b
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// titlesSimilar compares two normalized titles: equal, one containing the
// other, or within 3 edits or 20% of the longer title.
func titlesSimilar(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	dist := Levenshtein(a, b)
	longer := max(len([]rune(a)), len([]rune(b)))
	return dist <= 3 || float64(dist) <= 0.2*float64(longer)
}
