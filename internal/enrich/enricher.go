// README: Context enrichment; borrows unresolved fields from prior turns.
package enrich

import (
	"regexp"

	"tripflow/internal/extract"
	"tripflow/internal/intent"
)

// contextDiscount is applied to borrowed claim confidences; a value read
// out of an old turn is weaker evidence than one stated just now.
const contextDiscount = 0.9

var (
	unitsTherePat = regexp.MustCompile(`\b(days?|nights?|weeks?) there\b`)
	goTherePat    = regexp.MustCompile(`\b(go|going|get|getting|fly|flying|travel|traveling|travelling) there\b`)
	stayTherePat  = regexp.MustCompile(`\b(stay|staying) there\b`)
	thatPlacePat  = regexp.MustCompile(`\b(?:that|the same) (?:place|city)\b`)
)

// Enricher fills gaps in the accumulated intent by re-reading earlier
// user turns through the lexical extractor.
type Enricher struct {
	ex *extract.Extractor
}

func New(ex *extract.Extractor) *Enricher {
	return &Enricher{ex: ex}
}

// ResolveAnaphora rewrites place references like "3 days there" or "that
// city" to the most recently mentioned destination, so the lexical layer
// can bind them. The utterance is returned unchanged when there is no
// referent to resolve against.
func ResolveAnaphora(utterance string, acc *intent.TripIntent) (string, bool) {
	if acc == nil || len(acc.Destinations) == 0 {
		return utterance, false
	}
	city := acc.Destinations[len(acc.Destinations)-1].City

	rewritten := unitsTherePat.ReplaceAllString(utterance, "$1 in "+city)
	rewritten = goTherePat.ReplaceAllString(rewritten, "$1 to "+city)
	rewritten = stayTherePat.ReplaceAllString(rewritten, "$1 in "+city)
	rewritten = thatPlacePat.ReplaceAllString(rewritten, city)
	return rewritten, rewritten != utterance
}

// Enrich extracts claims for the accumulated intent's unresolved fields
// from prior user turns, newest first. Borrowed fields carry
// SourceContext claims at a discount so a fresh explicit statement always
// outranks them. The returned partial holds only what was borrowed.
func (e *Enricher) Enrich(acc *intent.TripIntent, priorUserTurns []string) *intent.TripIntent {
	out := intent.New()
	if len(priorUserTurns) == 0 {
		return out
	}

	wanted := map[intent.Field]bool{}
	for _, f := range []intent.Field{
		intent.FieldDestination, intent.FieldStartDate, intent.FieldEndDate,
		intent.FieldDuration, intent.FieldTravelers, intent.FieldBudget,
		intent.FieldTripType, intent.FieldInterests,
	} {
		if !acc.Has(f) {
			wanted[f] = true
		}
	}
	if len(wanted) == 0 {
		return out
	}

	for i := len(priorUserTurns) - 1; i >= 0 && len(wanted) > 0; i-- {
		part := e.ex.Extract(priorUserTurns[i])
		for f := range wanted {
			claim, ok := part.ClaimFor(f)
			if !ok {
				continue
			}
			borrow(out, part, f, claim.Confidence*contextDiscount)
			delete(wanted, f)
		}
	}
	return out
}

// borrow copies one field's value from part into out under SourceContext.
func borrow(out, part *intent.TripIntent, f intent.Field, conf float64) {
	switch f {
	case intent.FieldDestination:
		for _, d := range part.Destinations {
			d.Confidence *= contextDiscount
			out.AddDestination(d)
		}
	case intent.FieldStartDate:
		out.Dates.Start = part.Dates.Start
	case intent.FieldEndDate:
		out.Dates.End = part.Dates.End
	case intent.FieldDuration:
		out.Dates.DurationDays = part.Dates.DurationDays
	case intent.FieldTravelers:
		out.Travelers = part.Travelers
	case intent.FieldBudget:
		if part.Budget != nil {
			b := *part.Budget
			out.Budget = &b
		}
	case intent.FieldTripType:
		out.TripType = part.TripType
	case intent.FieldInterests:
		for _, tag := range part.Interests {
			out.AddInterest(tag)
		}
	}
	out.Claim(f, intent.SourceContext, conf)
}

// Participation reports how much of the enriched output was borrowed, for
// confidence weighting: 1 when nothing needed borrowing, lower as more
// fields came from history rather than the current utterance.
func Participation(current, borrowed *intent.TripIntent) float64 {
	total := len(current.Provenance) + len(borrowed.Provenance)
	if total == 0 {
		return 1
	}
	return float64(len(current.Provenance)) / float64(total)
}

// LastCity returns the most recent destination, if any.
func LastCity(acc *intent.TripIntent) (string, bool) {
	if acc == nil || len(acc.Destinations) == 0 {
		return "", false
	}
	return acc.Destinations[len(acc.Destinations)-1].City, true
}
