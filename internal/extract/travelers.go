// README: Party size extraction from counts and relationship phrases.
package extract

import (
	"regexp"

	"tripflow/internal/intent"
)

var (
	adultsPat    = regexp.MustCompile(`\b` + numberPattern + ` adults?\b`)
	kidsPat      = regexp.MustCompile(`\b` + numberPattern + ` (?:kids?|children|child)\b`)
	groupOfPat   = regexp.MustCompile(`\b(?:party|group|family) of ` + numberPattern + `\b`)
	ofUsPat      = regexp.MustCompile(`\b` + numberPattern + ` of us\b`)
	peoplePat    = regexp.MustCompile(`\b` + numberPattern + ` (?:people|persons|travelers|travellers|pax)\b`)
	soloPhrases  = []string{"solo", "by myself", "just me", "on my own", "travelling alone", "traveling alone"}
	pairPhrases  = []string{"the two of us", "both of us", "as a couple", "me and my wife", "me and my husband", "my wife and i", "my husband and i", "with my wife", "with my husband", "with my partner", "with my girlfriend", "with my boyfriend", "with my fiancee", "with my fiance", "honeymoon"}
)

// parseTravelers resolves the first party-size phrase in the lowercase
// text. Adults and children counts are summed; a bare "family" falls back
// to a typical four at low confidence.
func parseTravelers(text string) (int, float64, bool) {
	adults, okAdults := firstCount(adultsPat, text)
	kids, okKids := firstCount(kidsPat, text)
	if okAdults {
		total := adults + kids
		if intent.ValidTravelers(total) {
			return total, 0.95, true
		}
		return 0, 0, false
	}
	if okKids {
		// Children mentioned without adults; assume two accompanying.
		if total := kids + 2; intent.ValidTravelers(total) {
			return total, 0.5, true
		}
		return 0, 0, false
	}

	for _, pat := range []*regexp.Regexp{groupOfPat, ofUsPat, peoplePat} {
		if n, ok := firstCount(pat, text); ok {
			if intent.ValidTravelers(n) {
				return n, 0.95, true
			}
			return 0, 0, false
		}
	}

	for _, p := range pairPhrases {
		if containsWord(text, p) {
			return 2, 0.9, true
		}
	}
	for _, p := range soloPhrases {
		if containsWord(text, p) {
			return 1, 0.9, true
		}
	}
	if containsWord(text, "family") {
		return 4, 0.5, true
	}
	return 0, 0, false
}
