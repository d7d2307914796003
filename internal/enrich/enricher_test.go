package enrich

import (
	"reflect"
	"testing"
	"time"

	"tripflow/internal/extract"
	"tripflow/internal/intent"
)

func newEnricher(t *testing.T) *Enricher {
	t.Helper()
	gaz, err := extract.LoadGazetteer("")
	if err != nil {
		t.Fatalf("LoadGazetteer: %v", err)
	}
	clock := func() time.Time { return time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC) }
	return New(extract.NewWithClock(gaz, clock))
}

func TestResolveAnaphora(t *testing.T) {
	acc := intent.New()
	acc.AddDestination(intent.Destination{City: "Lisbon", Confidence: 0.95})
	acc.AddDestination(intent.Destination{City: "Paris", Confidence: 0.95})

	cases := []struct {
		in   string
		want string
	}{
		{"3 days there", "3 days in Paris"},
		{"we want to go there in June", "we want to go to Paris in June"},
		{"staying there for a week", "staying in Paris for a week"},
		{"I love that city", "I love Paris"},
		{"back to the same place", "back to Paris"},
		{"is there a beach", "is there a beach"}, // existential "there" untouched
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, changed := ResolveAnaphora(tc.in, acc)
			if got != tc.want {
				t.Errorf("rewrite = %q, want %q", got, tc.want)
			}
			if changed != (tc.in != tc.want) {
				t.Errorf("changed = %v for %q", changed, tc.in)
			}
		})
	}
}

func TestResolveAnaphoraWithoutReferent(t *testing.T) {
	got, changed := ResolveAnaphora("3 days there", intent.New())
	if changed || got != "3 days there" {
		t.Errorf("rewrite without referent = %q (changed=%v), want untouched", got, changed)
	}
}

func TestEnrichBorrowsFromNewestTurnFirst(t *testing.T) {
	e := newEnricher(t)
	acc := intent.New()
	acc.AddDestination(intent.Destination{City: "Rome", Confidence: 0.95})
	acc.Claim(intent.FieldDestination, intent.SourceUtterance, 0.95)

	history := []string{
		"maybe 4 days somewhere warm",
		"make it 6 days, just the two of us",
	}
	out := e.Enrich(acc, history)

	if out.Dates.DurationDays != 6 {
		t.Errorf("borrowed duration = %d, want 6 from the newest turn", out.Dates.DurationDays)
	}
	if out.Travelers != 2 {
		t.Errorf("borrowed travelers = %d, want 2", out.Travelers)
	}
	claim, ok := out.ClaimFor(intent.FieldDuration)
	if !ok || claim.Source != intent.SourceContext {
		t.Errorf("duration claim = %+v, want context source", claim)
	}
	if claim.Confidence >= 0.95 {
		t.Errorf("borrowed confidence = %v, want discounted below the original", claim.Confidence)
	}
	if out.HasDestination() {
		t.Errorf("destinations = %v, want none borrowed for an already-claimed field", out.DestinationNames())
	}
}

func TestEnrichStopsWhenNothingMissing(t *testing.T) {
	e := newEnricher(t)
	acc := intent.New()
	for _, f := range []intent.Field{
		intent.FieldDestination, intent.FieldStartDate, intent.FieldEndDate,
		intent.FieldDuration, intent.FieldTravelers, intent.FieldBudget,
		intent.FieldTripType, intent.FieldInterests,
	} {
		acc.Claim(f, intent.SourceUtterance, 0.9)
	}
	out := e.Enrich(acc, []string{"5 days in Tokyo with $3000"})
	if len(out.Provenance) != 0 {
		t.Errorf("enrichment = %v, want nothing when the intent is saturated", out.Provenance)
	}
}

func TestParticipation(t *testing.T) {
	current := intent.New()
	current.Claim(intent.FieldDuration, intent.SourceUtterance, 0.9)

	borrowed := intent.New()
	borrowed.Claim(intent.FieldDestination, intent.SourceContext, 0.8)

	if got := Participation(current, borrowed); got != 0.5 {
		t.Errorf("participation = %v, want 0.5", got)
	}
	if got := Participation(intent.New(), intent.New()); got != 1 {
		t.Errorf("participation of empty turn = %v, want 1", got)
	}
}

func TestLastCity(t *testing.T) {
	acc := intent.New()
	if _, ok := LastCity(acc); ok {
		t.Error("LastCity on empty intent should report none")
	}
	acc.AddDestination(intent.Destination{City: "Oslo", Confidence: 0.9})
	acc.AddDestination(intent.Destination{City: "Bergen", Confidence: 0.5})
	city, ok := LastCity(acc)
	if !ok || city != "Bergen" {
		t.Errorf("LastCity = %q, want Bergen", city)
	}
}

func TestEnrichAccumulationScenario(t *testing.T) {
	// "3 days in London" then "Paris too": the duration from turn one must
	// survive through enrichment when the second turn drops it.
	e := newEnricher(t)

	turn1 := e.ex.Extract("3 days in London")
	acc := intent.New()
	intent.Merge(acc, turn1)

	turn2 := e.ex.Extract("Paris too")
	borrowed := e.Enrich(acc, []string{"3 days in London"})
	intent.Merge(acc, turn2)
	intent.Merge(acc, borrowed)

	if got := acc.DestinationNames(); !reflect.DeepEqual(got, []string{"London", "Paris"}) {
		t.Errorf("destinations = %v, want [London Paris]", got)
	}
	if acc.Dates.DurationDays != 3 {
		t.Errorf("duration = %d, want 3 kept from the first turn", acc.Dates.DurationDays)
	}
}
