package ownership

import (
	"strings"
	"unicode"
)

// MatchPolicy holds the clustering knobs in one place so tests can pin them
// and reviewers can find them.
type MatchPolicy struct {
	// JoinThreshold is the minimum similarity for an owner to join a cluster.
	JoinThreshold float64
	// CountryBonus is added when both records declare the same country.
	CountryBonus float64
}

// DefaultMatchPolicy is the production policy. Name similarity dominates;
// country agreement nudges borderline transliterations over the line.
var DefaultMatchPolicy = MatchPolicy{
	JoinThreshold: 0.85,
	CountryBonus:  0.10,
}

// NormalizeName reduces an owner name to comparison form: case-folded,
// punctuation stripped, whitespace collapsed. "Acme Shipping, Ltd." and
// "ACME SHIPPING LTD" normalize identically.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// nameTokens returns the distinct normalized tokens of a name.
func nameTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(NormalizeName(name)) {
		tokens[tok] = true
	}
	return tokens
}

// Similarity scores two ownership records in [0, 1]: token-set Jaccard ratio
// over the normalized names, plus the country bonus when both sides declare
// the same country, capped at 1.0.
func Similarity(nameA, countryA, nameB, countryB string, policy MatchPolicy) float64 {
	tokensA := nameTokens(nameA)
	tokensB := nameTokens(nameB)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range tokensA {
		if tokensB[tok] {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection

	score := float64(intersection) / float64(union)

	ca := strings.ToUpper(strings.TrimSpace(countryA))
	cb := strings.ToUpper(strings.TrimSpace(countryB))
	if ca != "" && ca == cb {
		score += policy.CountryBonus
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
