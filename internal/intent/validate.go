// README: Completeness checks and value bounds for trip intents.
package intent

// Bounds on extracted values. Out-of-range values are dropped at the
// extraction boundary rather than clamped, so nothing downstream has to
// re-check them.
const (
	MinTripDays = 1
	MaxTripDays = 30

	MinTravelers = 1
	MaxTravelers = 20

	MaxBudgetAmount = 1_000_000
)

// ValidTripDays reports whether n is an acceptable trip length.
func ValidTripDays(n int) bool {
	return n >= MinTripDays && n <= MaxTripDays
}

// ValidTravelers reports whether n is an acceptable party size.
func ValidTravelers(n int) bool {
	return n >= MinTravelers && n <= MaxTravelers
}

// ValidBudgetAmount reports whether a stated amount is plausible.
func ValidBudgetAmount(amount int64) bool {
	return amount > 0 && amount < MaxBudgetAmount
}

// RequiredFields lists what an itinerary request cannot proceed without,
// in the order the user should be asked for them.
var RequiredFields = []Field{FieldDestination, FieldStartDate, FieldDuration}

// IsComplete reports whether t carries at least one destination, a known
// or derivable start date, and a resolvable duration.
func (t *TripIntent) IsComplete() bool {
	return len(t.MissingRequired()) == 0
}

// MissingRequired returns the unresolved required fields in ask order.
// A duration supplied only as a soft default (pattern or prediction) does
// not count: the session keeps asking until the user states one or gives a
// start+end pair it can be derived from.
func (t *TripIntent) MissingRequired() []Field {
	var missing []Field
	window := t.Dates.Resolved()
	for _, f := range RequiredFields {
		switch f {
		case FieldDestination:
			if !t.HasDestination() {
				missing = append(missing, f)
			}
		case FieldStartDate:
			if window.Start == nil {
				missing = append(missing, f)
			}
		case FieldDuration:
			if window.DurationDays < MinTripDays || t.durationSoft() {
				missing = append(missing, f)
			}
		}
	}
	return missing
}

// durationSoft reports whether the duration on record is only a soft
// default. An explicit start+end pair always makes it real.
func (t *TripIntent) durationSoft() bool {
	if t.Dates.Start != nil && t.Dates.End != nil {
		return false
	}
	c, ok := t.ClaimFor(FieldDuration)
	return ok && !c.Source.Stated()
}

// AllocateDays distributes the total duration across destinations that do
// not have an explicit day count, weighting even and giving the remainder
// to the earlier stops. Destinations with explicit counts keep them.
func (t *TripIntent) AllocateDays() {
	total := t.Dates.Duration()
	if total <= 0 || len(t.Destinations) == 0 {
		return
	}
	remaining := total
	var open []int
	for i, d := range t.Destinations {
		if d.Days > 0 {
			remaining -= d.Days
		} else {
			open = append(open, i)
		}
	}
	if len(open) == 0 || remaining <= 0 {
		return
	}
	per := remaining / len(open)
	extra := remaining % len(open)
	for n, i := range open {
		t.Destinations[i].Days = per
		if n < extra {
			t.Destinations[i].Days++
		}
	}
}
