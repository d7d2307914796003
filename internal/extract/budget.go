// README: Budget extraction covering amounts, currencies, and tier words.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"tripflow/internal/intent"
	"tripflow/internal/types"
)

var (
	symbolAmountPat  = regexp.MustCompile(`([$€£¥]) ?([\d,]+(?:\.\d+)?)(k?)\b`)
	amountCodePat    = regexp.MustCompile(`\b([\d,]+(?:\.\d+)?)(k?) ?(usd|eur|gbp|jpy|dollars?|bucks|euros?|pounds|quid|yen)\b`)
	codeAmountPat    = regexp.MustCompile(`\b(usd|eur|gbp|jpy) ?([\d,]+(?:\.\d+)?)(k?)\b`)
	budgetAmountPat  = regexp.MustCompile(`\bbudget (?:of |is |at |around |about )?([\d,]+(?:\.\d+)?)(k?)\b`)
	perPersonPhrases = []string{"per person", "per head", "a head", "each", "apiece", "pp"}
)

var currencyWords = map[string]string{
	"$": "USD", "€": "EUR", "£": "GBP", "¥": "JPY",
	"usd": "USD", "eur": "EUR", "gbp": "GBP", "jpy": "JPY",
	"dollar": "USD", "dollars": "USD", "bucks": "USD",
	"euro": "EUR", "euros": "EUR",
	"pounds": "GBP", "quid": "GBP", "yen": "JPY",
}

// tierKeywords are ordered most specific first; the bare "budget" word is
// handled separately so "our budget is $2000" does not read as a tier.
var tierKeywords = []struct {
	phrase string
	tier   string
}{
	{"mid-range", "mid-range"},
	{"mid range", "mid-range"},
	{"midrange", "mid-range"},
	{"moderate", "mid-range"},
	{"luxury", "luxury"},
	{"luxurious", "luxury"},
	{"high-end", "luxury"},
	{"high end", "luxury"},
	{"five star", "luxury"},
	{"5 star", "luxury"},
	{"5-star", "luxury"},
	{"splurge", "luxury"},
	{"shoestring", "budget"},
	{"low-cost", "budget"},
	{"low cost", "budget"},
	{"cheap", "budget"},
	{"affordable", "budget"},
}

// parseBudget resolves the first money or tier phrase in the lowercase
// text. Amounts outside (0, 1,000,000) are dropped entirely.
func parseBudget(text string) (*intent.Budget, float64, bool) {
	b := &intent.Budget{}
	conf := 0.0

	if amount, currency, ok := findAmount(text); ok {
		if !intent.ValidBudgetAmount(amount) {
			return nil, 0, false
		}
		b.Money = types.Money{Amount: amount, Currency: currency}
		for _, p := range perPersonPhrases {
			if containsWord(text, p) {
				b.PerPerson = true
				break
			}
		}
		conf = 0.95
	}

	for _, kw := range tierKeywords {
		if containsWord(text, kw.phrase) {
			b.Tier = kw.tier
			break
		}
	}
	if b.Tier == "" && b.Money.IsZero() && containsWord(text, "budget") {
		b.Tier = "budget"
	}
	if b.Tier != "" && conf == 0 {
		conf = 0.85
	}

	if conf == 0 {
		return nil, 0, false
	}
	return b, conf, true
}

// findAmount locates the first stated amount and its currency, defaulting
// to USD when only the word "budget" anchors a bare number.
func findAmount(text string) (int64, string, bool) {
	if m := symbolAmountPat.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[2], m[3]); ok {
			return v, currencyWords[m[1]], true
		}
	}
	if m := amountCodePat.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1], m[2]); ok {
			return v, currencyWords[m[3]], true
		}
	}
	if m := codeAmountPat.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[2], m[3]); ok {
			return v, currencyWords[m[1]], true
		}
	}
	if m := budgetAmountPat.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1], m[2]); ok {
			return v, "USD", true
		}
	}
	return 0, "", false
}

// parseAmount converts "1,500.50" style digits, with an optional k
// multiplier, into whole currency units.
func parseAmount(digits, k string) (int64, bool) {
	digits = strings.ReplaceAll(digits, ",", "")
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	if k == "k" {
		f *= 1000
	}
	return int64(f), true
}
