package extract

import (
	"reflect"
	"testing"
	"time"

	"tripflow/internal/intent"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	gaz, err := LoadGazetteer("")
	if err != nil {
		t.Fatalf("LoadGazetteer: %v", err)
	}
	// Wednesday March 4th 2026.
	return NewWithClock(gaz, clockAt(2026, time.March, 4))
}

// ─────────────────────────── destinations ───────────────────────────

func TestExtractDestinations(t *testing.T) {
	e := newTestExtractor(t)
	cases := []struct {
		text string
		want []string
	}{
		{"I want to visit Paris", []string{"Paris"}},
		{"Thinking about Tokyo and Kyoto", []string{"Tokyo", "Kyoto"}},
		{"NYC for a few days", []string{"New York"}},
		{"flying to Rio", []string{"Rio de Janeiro"}},
		{"London, then Paris, then Rome", []string{"London", "Paris", "Rome"}},
		{"no places here", nil},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got := e.Extract(tc.text).DestinationNames()
			if len(tc.want) == 0 && len(got) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("destinations = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractCountryYieldsSuggestionNotDestination(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("I want to go to Japan")
	if len(ti.Destinations) != 0 {
		t.Errorf("destinations = %v, want none for a country mention", ti.DestinationNames())
	}
	if len(ti.Suggestions) != 1 {
		t.Fatalf("suggestions = %v, want one", ti.Suggestions)
	}
	want := "Japan is a country. Consider starting with Tokyo."
	if ti.Suggestions[0] != want {
		t.Errorf("suggestion = %q, want %q", ti.Suggestions[0], want)
	}
}

func TestExtractCityContainingCountryName(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("a week in Mexico City")
	if got := ti.DestinationNames(); !reflect.DeepEqual(got, []string{"Mexico City"}) {
		t.Fatalf("destinations = %v, want [Mexico City]", got)
	}
	if len(ti.Suggestions) != 0 {
		t.Errorf("suggestions = %v, want none when the country name is part of the city", ti.Suggestions)
	}
}

func TestExtractUnknownVerbAnchoredDestination(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("I'm visiting Bruges with my wife")
	if got := ti.DestinationNames(); !reflect.DeepEqual(got, []string{"Bruges"}) {
		t.Fatalf("destinations = %v, want [Bruges]", got)
	}
	if ti.Destinations[0].Confidence >= 0.9 {
		t.Errorf("confidence = %v, want below gazetteer level for an unknown place", ti.Destinations[0].Confidence)
	}
}

func TestExtractOriginIsNotADestination(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("flying from Tokyo to Paris")
	if ti.Origin != "Tokyo" {
		t.Errorf("origin = %q, want Tokyo", ti.Origin)
	}
	if got := ti.DestinationNames(); !reflect.DeepEqual(got, []string{"Paris"}) {
		t.Errorf("destinations = %v, want [Paris]", got)
	}
}

func TestExtractPerCityDays(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("3 days in London and 2 in Paris")
	if got := ti.DestinationNames(); !reflect.DeepEqual(got, []string{"London", "Paris"}) {
		t.Fatalf("destinations = %v, want [London Paris]", got)
	}
	if ti.Destinations[0].Days != 3 || ti.Destinations[1].Days != 2 {
		t.Errorf("days = %d/%d, want 3/2", ti.Destinations[0].Days, ti.Destinations[1].Days)
	}
	if ti.Dates.DurationDays != 5 {
		t.Errorf("total duration = %d, want 5 (sum of stated stops)", ti.Dates.DurationDays)
	}
}

func TestExtractWeekEach(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("two weeks in London and Paris, one week each")
	if ti.Destinations[0].Days != 7 || ti.Destinations[1].Days != 7 {
		t.Errorf("days = %d/%d, want 7/7", ti.Destinations[0].Days, ti.Destinations[1].Days)
	}
	if ti.Dates.DurationDays != 14 {
		t.Errorf("total duration = %d, want 14", ti.Dates.DurationDays)
	}
}

// ─────────────────────────── duration ───────────────────────────

func TestParseDurationBounds(t *testing.T) {
	cases := []struct {
		text string
		want int // 0 means no duration accepted
	}{
		{"3 days", 3},
		{"1 day", 1},
		{"30 days", 30},
		{"0 days", 0},
		{"31 days", 0},
		{"45 days", 0},
		{"a 5-day trip", 5},
		{"two weeks", 14},
		{"a week", 7},
		{"4 nights", 5},
		{"one night", 2},
		{"a long weekend", 4},
		{"just the weekend", 3},
		{"a few days", 3},
		{"in 3 days", 0}, // start offset, not a duration
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, _, ok := parseDuration(Normalize(tc.text))
			if tc.want == 0 {
				if ok {
					t.Errorf("parseDuration = %d, want no match", got)
				}
				return
			}
			if !ok || got != tc.want {
				t.Errorf("parseDuration = %d (ok=%v), want %d", got, ok, tc.want)
			}
		})
	}
}

// ─────────────────────────── travelers ───────────────────────────

func TestParseTravelers(t *testing.T) {
	cases := []struct {
		text     string
		want     int
		wantConf float64
	}{
		{"travelling solo", 1, 0.9},
		{"just me this time", 1, 0.9},
		{"my wife and I", 2, 0.9},
		{"a honeymoon trip", 2, 0.9},
		{"family of 5", 5, 0.95},
		{"with my family", 4, 0.5},
		{"2 adults and 2 kids", 4, 0.95},
		{"2 adults", 2, 0.95},
		{"party of 6", 6, 0.95},
		{"there are 3 of us", 3, 0.95},
		{"4 people", 4, 0.95},
		{"50 people", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, conf, ok := parseTravelers(Normalize(tc.text))
			if tc.want == 0 {
				if ok {
					t.Errorf("parseTravelers = %d, want no match", got)
				}
				return
			}
			if !ok || got != tc.want {
				t.Errorf("parseTravelers = %d (ok=%v), want %d", got, ok, tc.want)
			}
			if conf != tc.wantConf {
				t.Errorf("confidence = %v, want %v", conf, tc.wantConf)
			}
		})
	}
}

// ─────────────────────────── budget ───────────────────────────

func TestParseBudget(t *testing.T) {
	cases := []struct {
		text       string
		wantAmount int64
		wantCur    string
		wantPP     bool
		wantTier   string
	}{
		{"$2000 total", 2000, "USD", false, ""},
		{"$2k", 2000, "USD", false, ""},
		{"around €1,500", 1500, "EUR", false, ""},
		{"1000 dollars per person", 1000, "USD", true, ""},
		{"£800 each", 800, "GBP", true, ""},
		{"budget of 3000", 3000, "USD", false, ""},
		{"mid-range budget", 0, "", false, "mid-range"},
		{"something luxurious", 0, "", false, "luxury"},
		{"keep it cheap", 0, "", false, "budget"},
		{"on a budget", 0, "", false, "budget"},
		{"our budget is $2000", 2000, "USD", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			b, _, ok := parseBudget(Normalize(tc.text))
			if !ok {
				t.Fatal("parseBudget found nothing")
			}
			if b.Money.Amount != tc.wantAmount {
				t.Errorf("amount = %d, want %d", b.Money.Amount, tc.wantAmount)
			}
			if tc.wantCur != "" && b.Money.Currency != tc.wantCur {
				t.Errorf("currency = %s, want %s", b.Money.Currency, tc.wantCur)
			}
			if b.PerPerson != tc.wantPP {
				t.Errorf("perPerson = %v, want %v", b.PerPerson, tc.wantPP)
			}
			if b.Tier != tc.wantTier {
				t.Errorf("tier = %q, want %q", b.Tier, tc.wantTier)
			}
		})
	}
}

func TestParseBudgetDropsAbsurdAmounts(t *testing.T) {
	for _, text := range []string{"$2,000,000", "$0"} {
		if b, _, ok := parseBudget(Normalize(text)); ok {
			t.Errorf("parseBudget(%q) = %+v, want dropped", text, b)
		}
	}
}

// ─────────────────────────── style and assembly ───────────────────────────

func TestParseTripTypeAndInterests(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("a honeymoon in Santorini, we love food and beaches")
	if ti.TripType != intent.TripHoneymoon {
		t.Errorf("tripType = %s, want honeymoon", ti.TripType)
	}
	if !reflect.DeepEqual(ti.Interests, []string{"food", "beach"}) {
		t.Errorf("interests = %v, want [food beach]", ti.Interests)
	}
	if ti.Travelers != 2 {
		t.Errorf("travelers = %d, want 2 implied by honeymoon", ti.Travelers)
	}
}

func TestExtractClaimsCarryUtteranceSource(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("5 days in Paris, 2 people, $1500")
	for _, f := range []intent.Field{
		intent.FieldDestination, intent.FieldDuration, intent.FieldTravelers, intent.FieldBudget,
	} {
		claim, ok := ti.ClaimFor(f)
		if !ok {
			t.Errorf("field %s not claimed", f)
			continue
		}
		if claim.Source != intent.SourceUtterance {
			t.Errorf("field %s source = %s, want utterance", f, claim.Source)
		}
	}
}

func TestExtractEmptyUtterance(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("   ")
	if len(ti.Provenance) != 0 {
		t.Errorf("provenance = %v, want empty for blank input", ti.Provenance)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	e := newTestExtractor(t)
	text := "Next weekend, 3 days in Paris and London, 2 adults, mid-range budget"
	first := e.Extract(text)
	for i := 0; i < 5; i++ {
		if got := e.Extract(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("extraction differs across runs:\n%+v\nvs\n%+v", got, first)
		}
	}
}

func TestExtractNextWeekendScenarioTurn(t *testing.T) {
	e := newTestExtractor(t)
	ti := e.Extract("Next weekend, 3 days")
	if ti.Dates.Start == nil {
		t.Fatal("start date not resolved")
	}
	if got := ti.Dates.Start.Format("2006-01-02"); got != "2026-03-14" {
		t.Errorf("start = %s, want 2026-03-14", got)
	}
	if ti.Dates.Start.Weekday() != time.Saturday {
		t.Errorf("start weekday = %s, want Saturday", ti.Dates.Start.Weekday())
	}
	if ti.Dates.DurationDays != 3 {
		t.Errorf("duration = %d, want 3", ti.Dates.DurationDays)
	}
}
