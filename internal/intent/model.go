// README: TripIntent aggregate with per-field provenance claims.
package intent

import (
	"strings"
	"time"

	"tripflow/internal/types"
)

// Confidence is the coarse reliability tier reported to callers.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFromScore buckets a [0,1] score into a tier.
func ConfidenceFromScore(score float64) Confidence {
	switch {
	case score >= 0.7:
		return ConfidenceHigh
	case score >= 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Source names the pipeline layer that supplied a field. Precedence is fixed:
// an explicit statement in the current utterance outranks everything, the
// language-model fallback outranks nothing.
type Source string

const (
	SourceUtterance Source = "utterance"
	SourceContext   Source = "context"
	SourcePattern   Source = "pattern"
	SourcePredicted Source = "predicted"
	SourceModel     Source = "model"
)

// rankOrder maps each source to its precedence rank; lower wins.
var rankOrder = map[Source]int{
	SourceUtterance: 0,
	SourceContext:   1,
	SourcePattern:   2,
	SourcePredicted: 3,
	SourceModel:     4,
}

// Rank returns the precedence rank of s; unknown sources rank last.
func (s Source) Rank() int {
	if r, ok := rankOrder[s]; ok {
		return r
	}
	return len(rankOrder)
}

// Stated reports whether s relays something the user actually said, now or
// in an earlier turn. Pattern and prediction layers supply soft defaults
// instead, which never satisfy the completeness invariant on their own.
func (s Source) Stated() bool {
	return s == SourceUtterance || s == SourceContext || s == SourceModel
}

// Field identifies one slot of a TripIntent for provenance tracking.
type Field string

const (
	FieldDestination Field = "destination"
	FieldOrigin      Field = "origin"
	FieldStartDate   Field = "startDate"
	FieldEndDate     Field = "endDate"
	FieldDuration    Field = "duration"
	FieldTravelers   Field = "travelers"
	FieldBudget      Field = "budget"
	FieldTripType    Field = "tripType"
	FieldInterests   Field = "interests"
)

// Claim records which layer supplied a field and how sure it was.
type Claim struct {
	Source     Source  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// Destination is one stop of the trip in visiting order.
type Destination struct {
	City       string  `json:"city"`
	Days       int     `json:"days,omitempty"`
	Confidence float64 `json:"confidence"`
}

// DateWindow holds the travel dates. At most two of start, end, and duration
// are stated independently; Resolved derives the third.
type DateWindow struct {
	Start        *time.Time `json:"start,omitempty"`
	End          *time.Time `json:"end,omitempty"`
	DurationDays int        `json:"durationDays,omitempty"`
}

// Resolved returns a copy with the derivable member filled in.
func (w DateWindow) Resolved() DateWindow {
	out := w
	switch {
	case w.Start != nil && w.End != nil && w.DurationDays == 0:
		days := int(w.End.Sub(*w.Start).Hours()/24) + 1
		if days > 0 {
			out.DurationDays = days
		}
	case w.Start != nil && w.DurationDays > 0 && w.End == nil:
		end := w.Start.AddDate(0, 0, w.DurationDays-1)
		out.End = &end
	case w.End != nil && w.DurationDays > 0 && w.Start == nil:
		start := w.End.AddDate(0, 0, -(w.DurationDays - 1))
		out.Start = &start
	}
	return out
}

// Duration returns the explicit or derived trip length in days, 0 if unknown.
func (w DateWindow) Duration() int {
	return w.Resolved().DurationDays
}

// HasStart reports whether a start date is known, directly or derivably.
func (w DateWindow) HasStart() bool {
	return w.Resolved().Start != nil
}

// TripType is the closed set of recognized trip styles.
type TripType string

const (
	TripSolo       TripType = "solo"
	TripCouple     TripType = "couple"
	TripFamily     TripType = "family"
	TripBusiness   TripType = "business"
	TripHoneymoon  TripType = "honeymoon"
	TripBackpack   TripType = "backpacking"
	TripLuxury     TripType = "luxury"
	TripBudget     TripType = "budget"
	TripAdventure  TripType = "adventure"
	TripRelaxation TripType = "relaxation"
	TripCultural   TripType = "cultural"
	TripGeneral    TripType = "general"
)

var tripTypes = map[TripType]bool{
	TripSolo: true, TripCouple: true, TripFamily: true, TripBusiness: true,
	TripHoneymoon: true, TripBackpack: true, TripLuxury: true, TripBudget: true,
	TripAdventure: true, TripRelaxation: true, TripCultural: true, TripGeneral: true,
}

// ValidTripType reports whether s names a member of the closed trip-type set.
func ValidTripType(s string) bool {
	return tripTypes[TripType(s)]
}

// Budget is the stated or derived spending envelope. Tier is one of
// "budget", "mid-range", or "luxury" when the user expressed a level
// rather than an amount.
type Budget struct {
	Money     types.Money `json:"money"`
	PerPerson bool        `json:"perPerson,omitempty"`
	Tier      string      `json:"tier,omitempty"`
}

// TripIntent is the resolved (or partially resolved) trip specification.
// Provenance records, per field, which layer supplied the value; merge
// precedence is enforced through those claims rather than by convention.
type TripIntent struct {
	Destinations []Destination   `json:"destinations,omitempty"`
	Origin       string          `json:"origin,omitempty"`
	Dates        DateWindow      `json:"dates"`
	Travelers    int             `json:"travelers,omitempty"`
	Budget       *Budget         `json:"budget,omitempty"`
	TripType     TripType        `json:"tripType,omitempty"`
	Interests    []string        `json:"interests,omitempty"`
	Confidence   Confidence      `json:"confidence,omitempty"`
	Suggestions  []string        `json:"suggestions,omitempty"`
	Provenance   map[Field]Claim `json:"provenance,omitempty"`
}

// New returns an empty TripIntent with an initialized provenance map.
func New() *TripIntent {
	return &TripIntent{Provenance: map[Field]Claim{}}
}

// Claim records a provenance entry for field f.
func (t *TripIntent) Claim(f Field, source Source, confidence float64) {
	if t.Provenance == nil {
		t.Provenance = map[Field]Claim{}
	}
	t.Provenance[f] = Claim{Source: source, Confidence: confidence}
}

// HasStated reports whether field f is on record from a stated source.
// Soft defaults return false, so completion layers may refresh their own
// earlier guesses as the conversation adds information.
func (t *TripIntent) HasStated(f Field) bool {
	c, ok := t.ClaimFor(f)
	return ok && c.Source.Stated()
}

// Has reports whether field f has been supplied by any layer.
func (t *TripIntent) Has(f Field) bool {
	if t.Provenance == nil {
		return false
	}
	_, ok := t.Provenance[f]
	return ok
}

// ClaimFor returns the provenance entry for f, if any.
func (t *TripIntent) ClaimFor(f Field) (Claim, bool) {
	if t.Provenance == nil {
		return Claim{}, false
	}
	c, ok := t.Provenance[f]
	return c, ok
}

// HasDestination reports whether at least one destination city is known.
func (t *TripIntent) HasDestination() bool {
	return len(t.Destinations) > 0
}

// DestinationNames returns the cities in visiting order.
func (t *TripIntent) DestinationNames() []string {
	names := make([]string, len(t.Destinations))
	for i, d := range t.Destinations {
		names[i] = d.City
	}
	return names
}

// AddDestination appends city if it is not already present (case-insensitive).
// When the city exists, a non-zero day count or higher confidence updates it.
func (t *TripIntent) AddDestination(d Destination) {
	for i, existing := range t.Destinations {
		if strings.EqualFold(existing.City, d.City) {
			if d.Days > 0 {
				t.Destinations[i].Days = d.Days
			}
			if d.Confidence > existing.Confidence {
				t.Destinations[i].Confidence = d.Confidence
			}
			return
		}
	}
	t.Destinations = append(t.Destinations, d)
}

// AddInterest appends tag if it is not already present (case-insensitive).
func (t *TripIntent) AddInterest(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	for _, existing := range t.Interests {
		if strings.EqualFold(existing, tag) {
			return
		}
	}
	t.Interests = append(t.Interests, tag)
}

// AddSuggestion appends a human-readable hint, deduplicated exactly.
func (t *TripIntent) AddSuggestion(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	for _, existing := range t.Suggestions {
		if existing == s {
			return
		}
	}
	t.Suggestions = append(t.Suggestions, s)
}

// MeanClaimConfidence averages the per-field claim confidences, 0 when
// nothing has been claimed. Used to score the layer that produced t.
func (t *TripIntent) MeanClaimConfidence() float64 {
	if len(t.Provenance) == 0 {
		return 0
	}
	var sum float64
	for _, c := range t.Provenance {
		sum += c.Confidence
	}
	return sum / float64(len(t.Provenance))
}

// Clone returns a deep copy of t.
func (t *TripIntent) Clone() *TripIntent {
	if t == nil {
		return New()
	}
	out := *t
	out.Destinations = append([]Destination(nil), t.Destinations...)
	out.Interests = append([]string(nil), t.Interests...)
	out.Suggestions = append([]string(nil), t.Suggestions...)
	if t.Budget != nil {
		b := *t.Budget
		out.Budget = &b
	}
	if t.Dates.Start != nil {
		s := *t.Dates.Start
		out.Dates.Start = &s
	}
	if t.Dates.End != nil {
		e := *t.Dates.End
		out.Dates.End = &e
	}
	out.Provenance = make(map[Field]Claim, len(t.Provenance))
	for f, c := range t.Provenance {
		out.Provenance[f] = c
	}
	return &out
}
