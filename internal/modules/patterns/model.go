// README: Confirmed resolutions and the patterns mined from them.
package patterns

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripflow/internal/intent"
)

// ConfirmedResolution is one fully resolved trip request, recorded when a
// conversation reaches the ready state. These are the raw material the
// derivation job mines for recurring patterns.
type ConfirmedResolution struct {
	ID           string
	SessionID    string
	Signature    []string
	Destinations []string
	DurationDays int
	Travelers    int
	BudgetTier   string
	TripType     string
	Interests    []string
	CreatedAt    time.Time
}

// NewConfirmed snapshots a resolved intent for recording.
func NewConfirmed(sessionID string, ti *intent.TripIntent, now time.Time) ConfirmedResolution {
	res := ConfirmedResolution{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Signature:    SignatureOf(ti),
		Destinations: ti.DestinationNames(),
		DurationDays: ti.Dates.Duration(),
		Travelers:    ti.Travelers,
		TripType:     string(ti.TripType),
		Interests:    append([]string(nil), ti.Interests...),
		CreatedAt:    now,
	}
	if ti.Budget != nil {
		res.BudgetTier = ti.Budget.Tier
	}
	return res
}

// SignatureOf reduces an intent to a sorted lowercase trait set:
// destination names plus tagged style, tier, and interest tokens. Two
// trips with the same signature are the same kind of trip.
func SignatureOf(ti *intent.TripIntent) []string {
	seen := map[string]bool{}
	var sig []string
	add := func(tok string) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		sig = append(sig, tok)
	}

	for _, d := range ti.Destinations {
		add(d.City)
	}
	if ti.TripType != "" && ti.TripType != intent.TripGeneral {
		add("style:" + string(ti.TripType))
	}
	if ti.Budget != nil && ti.Budget.Tier != "" {
		add("tier:" + ti.Budget.Tier)
	}
	for _, tag := range ti.Interests {
		add("interest:" + tag)
	}
	sort.Strings(sig)
	return sig
}

// SignatureKey flattens a signature for use as a storage key.
func SignatureKey(sig []string) string {
	return strings.Join(sig, "|")
}

// Implications is what a pattern predicts about trips matching it.
type Implications struct {
	CoDestinations  []string `json:"coDestinations,omitempty"`
	TypicalDuration int      `json:"typicalDuration,omitempty"`
	TypicalTripType string   `json:"typicalTripType,omitempty"`
	TypicalTier     string   `json:"typicalTier,omitempty"`
}

// LearnedPattern is a recurring trip shape with enough support to act on.
// Examples holds up to three session IDs that exhibited it.
type LearnedPattern struct {
	ID           string
	Signature    []string
	Frequency    int
	Confidence   float64
	Examples     []string
	Implications Implications
	UpdatedAt    time.Time
}

// Jaccard measures set overlap between two signatures in [0, 1].
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inA := make(map[string]bool, len(a))
	for _, tok := range a {
		inA[tok] = true
	}
	inter := 0
	inB := make(map[string]bool, len(b))
	for _, tok := range b {
		if inB[tok] {
			continue
		}
		inB[tok] = true
		if inA[tok] {
			inter++
		}
	}
	union := len(inA) + len(inB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
