package patterns

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"tripflow/internal/config"
	"tripflow/internal/intent"
)

// ─────────────────────────── test fixtures ───────────────────────────

type mockStore struct {
	mu        sync.Mutex
	confirmed []ConfirmedResolution
	patterns  []LearnedPattern
	inserted  chan struct{}
}

func newMockStore() *mockStore {
	return &mockStore{inserted: make(chan struct{}, 16)}
}

func (m *mockStore) InsertConfirmed(_ context.Context, res ConfirmedResolution) error {
	m.mu.Lock()
	m.confirmed = append(m.confirmed, res)
	m.mu.Unlock()
	m.inserted <- struct{}{}
	return nil
}

func (m *mockStore) RecentConfirmed(_ context.Context, limit int) ([]ConfirmedResolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]ConfirmedResolution(nil), m.confirmed...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) UpsertPattern(_ context.Context, p LearnedPattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := SignatureKey(p.Signature)
	for i, existing := range m.patterns {
		if SignatureKey(existing.Signature) == key {
			m.patterns[i] = p
			return nil
		}
	}
	m.patterns = append(m.patterns, p)
	return nil
}

func (m *mockStore) AllPatterns(_ context.Context) ([]LearnedPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LearnedPattern(nil), m.patterns...), nil
}

func (m *mockStore) patternBySignature(key string) (LearnedPattern, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patterns {
		if SignatureKey(p.Signature) == key {
			return p, true
		}
	}
	return LearnedPattern{}, false
}

func testConfig() config.PatternConfig {
	return config.PatternConfig{
		MinFrequency:        2,
		SimilarityThreshold: 0.3,
		NeighborLimit:       3,
		DeriveTick:          time.Hour,
		RecentWindow:        100,
	}
}

func newTestService(t *testing.T, store Storage) *Service {
	t.Helper()
	svc, err := NewService(store, testConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func resolvedIntent(cities []string, days int, style intent.TripType) *intent.TripIntent {
	ti := intent.New()
	for _, c := range cities {
		ti.AddDestination(intent.Destination{City: c, Confidence: 0.95})
	}
	ti.Claim(intent.FieldDestination, intent.SourceUtterance, 0.95)
	if days > 0 {
		ti.Dates.DurationDays = days
		ti.Claim(intent.FieldDuration, intent.SourceUtterance, 0.95)
	}
	if style != "" {
		ti.TripType = style
		ti.Claim(intent.FieldTripType, intent.SourceUtterance, 0.85)
	}
	return ti
}

// ─────────────────────────── signatures ───────────────────────────

func TestSignatureOf(t *testing.T) {
	ti := resolvedIntent([]string{"Paris", "London"}, 5, intent.TripCouple)
	ti.Budget = &intent.Budget{Tier: "mid-range"}
	ti.AddInterest("food")

	got := SignatureOf(ti)
	want := []string{"interest:food", "london", "paris", "style:couple", "tier:mid-range"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("signature = %v, want %v", got, want)
	}
}

func TestSignatureOfIgnoresGeneralStyle(t *testing.T) {
	ti := resolvedIntent([]string{"Rome"}, 0, intent.TripGeneral)
	if got := SignatureOf(ti); !reflect.DeepEqual(got, []string{"rome"}) {
		t.Errorf("signature = %v, want [rome]", got)
	}
}

func TestJaccard(t *testing.T) {
	cases := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"paris", "style:couple"}, []string{"paris", "style:couple"}, 1},
		{"half overlap", []string{"paris", "london"}, []string{"paris", "rome"}, 1.0 / 3.0},
		{"disjoint", []string{"paris"}, []string{"rome"}, 0},
		{"empty", nil, []string{"rome"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Jaccard(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Jaccard = %v, want %v", got, tc.want)
			}
		})
	}
}

// ─────────────────────────── lookup and apply ───────────────────────────

func TestFindSimilarFiltersAndOrders(t *testing.T) {
	store := newMockStore()
	store.patterns = []LearnedPattern{
		{ID: "a", Signature: []string{"paris"}, Confidence: 0.6},
		{ID: "b", Signature: []string{"paris", "style:couple"}, Confidence: 0.7},
		{ID: "c", Signature: []string{"tokyo"}, Confidence: 0.9},
	}
	svc := newTestService(t, store)

	matches, err := svc.FindSimilar(context.Background(), []string{"paris", "style:couple"})
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2 (tokyo filtered out)", len(matches))
	}
	if matches[0].Pattern.ID != "b" || matches[1].Pattern.ID != "a" {
		t.Errorf("order = %s,%s, want b,a (best score first)", matches[0].Pattern.ID, matches[1].Pattern.ID)
	}
}

func TestApplyFillsOnlyGaps(t *testing.T) {
	store := newMockStore()
	store.patterns = []LearnedPattern{{
		ID:         "p",
		Signature:  []string{"paris"},
		Frequency:  5,
		Confidence: 0.8,
		Implications: Implications{
			CoDestinations:  []string{"London"},
			TypicalDuration: 4,
			TypicalTripType: "couple",
			TypicalTier:     "mid-range",
		},
	}}
	svc := newTestService(t, store)

	acc := resolvedIntent([]string{"Paris"}, 0, "")
	out := svc.Apply(context.Background(), acc)

	if out.Dates.DurationDays != 4 {
		t.Errorf("duration = %d, want 4 from the pattern", out.Dates.DurationDays)
	}
	claim, _ := out.ClaimFor(intent.FieldDuration)
	if claim.Source != intent.SourcePattern {
		t.Errorf("duration source = %s, want pattern", claim.Source)
	}
	if out.TripType != intent.TripCouple {
		t.Errorf("tripType = %s, want couple", out.TripType)
	}
	if out.Budget == nil || out.Budget.Tier != "mid-range" {
		t.Errorf("budget = %+v, want mid-range tier", out.Budget)
	}
	if len(out.Suggestions) != 1 {
		t.Errorf("suggestions = %v, want the London hint", out.Suggestions)
	}
}

func TestApplyRespectsStatedFields(t *testing.T) {
	store := newMockStore()
	store.patterns = []LearnedPattern{{
		ID:           "p",
		Signature:    []string{"paris"},
		Confidence:   0.8,
		Implications: Implications{TypicalDuration: 4, TypicalTripType: "couple"},
	}}
	svc := newTestService(t, store)

	acc := resolvedIntent([]string{"Paris"}, 3, intent.TripFamily)
	out := svc.Apply(context.Background(), acc)

	if out.Has(intent.FieldDuration) {
		t.Error("pattern claimed duration over an explicit statement")
	}
	if out.Has(intent.FieldTripType) {
		t.Error("pattern claimed tripType over an explicit statement")
	}
}

// ─────────────────────────── recording and derivation ───────────────────────────

func TestRecordConfirmedIsAsynchronous(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)

	svc.RecordConfirmed("session-1", resolvedIntent([]string{"Paris"}, 3, intent.TripCouple))

	select {
	case <-store.inserted:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmed resolution never reached the store")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.confirmed) != 1 {
		t.Fatalf("confirmed = %d, want 1", len(store.confirmed))
	}
	if store.confirmed[0].SessionID != "session-1" {
		t.Errorf("sessionID = %s", store.confirmed[0].SessionID)
	}
}

func TestRecordConfirmedSkipsEmptyIntent(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)

	svc.RecordConfirmed("session-1", intent.New())
	select {
	case <-store.inserted:
		t.Fatal("empty intent was recorded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDeriveOnceBuildsPatterns(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)
	now := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for i, days := range []int{3, 4, 5} {
		ti := resolvedIntent([]string{"Paris", "London"}, days, intent.TripCouple)
		store.confirmed = append(store.confirmed, NewConfirmed(sessionID(i), ti, now))
	}

	if err := svc.deriveOnce(context.Background()); err != nil {
		t.Fatalf("deriveOnce: %v", err)
	}

	key := SignatureKey([]string{"london", "paris", "style:couple"})
	p, ok := store.patternBySignature(key)
	if !ok {
		t.Fatalf("no pattern for %s; have %d patterns", key, len(store.patterns))
	}
	if p.Frequency != 3 {
		t.Errorf("frequency = %d, want 3", p.Frequency)
	}
	if p.Implications.TypicalDuration != 4 {
		t.Errorf("typical duration = %d, want 4 (mean of 3,4,5)", p.Implications.TypicalDuration)
	}
	if p.Implications.TypicalTripType != "couple" {
		t.Errorf("typical style = %s, want couple", p.Implications.TypicalTripType)
	}
	if len(p.Examples) != 3 {
		t.Errorf("examples = %v, want 3 session ids", p.Examples)
	}

	// The single-destination grouping should have learned that Paris
	// travelers also book London.
	single, ok := store.patternBySignature("paris")
	if !ok {
		t.Fatal("no single-destination pattern for paris")
	}
	if !reflect.DeepEqual(single.Implications.CoDestinations, []string{"London"}) {
		t.Errorf("co-destinations = %v, want [London]", single.Implications.CoDestinations)
	}
}

func TestDeriveOnceRespectsMinFrequency(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store)
	now := time.Now()

	store.confirmed = append(store.confirmed,
		NewConfirmed("s1", resolvedIntent([]string{"Oslo"}, 3, ""), now))

	if err := svc.deriveOnce(context.Background()); err != nil {
		t.Fatalf("deriveOnce: %v", err)
	}
	if len(store.patterns) != 0 {
		t.Errorf("patterns = %d, want none below min frequency", len(store.patterns))
	}
}

func sessionID(i int) string {
	return string(rune('a'+i)) + "-session"
}
