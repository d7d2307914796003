// README: Lexical extraction layer; the entry point of the cascade.
package extract

import (
	"time"

	"tripflow/internal/intent"
)

// Extractor runs every deterministic extractor over one utterance and
// assembles the result into a partial TripIntent. The clock is injected
// so relative date phrases resolve the same way under test.
type Extractor struct {
	gaz *Gazetteer
	now func() time.Time
}

// New builds an Extractor using the wall clock.
func New(gaz *Gazetteer) *Extractor {
	return NewWithClock(gaz, time.Now)
}

// NewWithClock builds an Extractor with a fixed notion of "today".
func NewWithClock(gaz *Gazetteer, now func() time.Time) *Extractor {
	return &Extractor{gaz: gaz, now: now}
}

// Extract parses text into a partial intent. Every populated field is
// claimed with SourceUtterance and the extractor's own confidence; an
// utterance with nothing recognizable yields an empty intent.
func (e *Extractor) Extract(text string) *intent.TripIntent {
	ti := intent.New()
	lower := Normalize(text)
	if lower == "" {
		return ti
	}

	dests, origin, suggestions, destConf := e.destinations(text, lower)
	if len(dests) > 0 {
		for _, d := range dests {
			ti.AddDestination(d)
		}
		ti.Claim(intent.FieldDestination, intent.SourceUtterance, destConf)
	}
	if origin != "" {
		ti.Origin = origin
		ti.Claim(intent.FieldOrigin, intent.SourceUtterance, 0.85)
	}
	for _, s := range suggestions {
		ti.AddSuggestion(s)
	}

	if w, conf, ok := parseDates(lower, e.now()); ok {
		if w.Start != nil {
			ti.Dates.Start = w.Start
			ti.Claim(intent.FieldStartDate, intent.SourceUtterance, conf)
		}
		if w.End != nil {
			ti.Dates.End = w.End
			ti.Claim(intent.FieldEndDate, intent.SourceUtterance, conf)
		}
	}

	if days, conf, ok := parseDuration(lower); ok {
		ti.Dates.DurationDays = days
		ti.Claim(intent.FieldDuration, intent.SourceUtterance, conf)
	}
	// Per-city day counts stated for two or more stops define the total.
	if sum, counted := stopDayTotal(ti.Destinations); counted >= 2 && intent.ValidTripDays(sum) {
		ti.Dates.DurationDays = sum
		ti.Claim(intent.FieldDuration, intent.SourceUtterance, 0.9)
	}

	if n, conf, ok := parseTravelers(lower); ok {
		ti.Travelers = n
		ti.Claim(intent.FieldTravelers, intent.SourceUtterance, conf)
	}
	if b, conf, ok := parseBudget(lower); ok {
		ti.Budget = b
		ti.Claim(intent.FieldBudget, intent.SourceUtterance, conf)
	}
	if t, conf, ok := parseTripType(lower); ok {
		ti.TripType = t
		ti.Claim(intent.FieldTripType, intent.SourceUtterance, conf)
	}
	if tags, conf, ok := parseInterests(lower); ok {
		ti.Interests = tags
		ti.Claim(intent.FieldInterests, intent.SourceUtterance, conf)
	}
	return ti
}

// Gazetteer exposes the extractor's gazetteer to the layers that rank or
// canonicalize against it.
func (e *Extractor) Gazetteer() *Gazetteer {
	return e.gaz
}

func stopDayTotal(dests []intent.Destination) (sum, counted int) {
	for _, d := range dests {
		if d.Days > 0 {
			sum += d.Days
			counted++
		}
	}
	return sum, counted
}
