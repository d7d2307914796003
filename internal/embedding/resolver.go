// README: maps free-text destination phrases onto canonical cities by vector similarity.
package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

const (
	// matchThreshold is the minimum cosine similarity for a confident match.
	matchThreshold = 0.75

	// alternateCount caps how many runner-up cities are offered as suggestions.
	alternateCount = 2
)

// Match is a resolved canonical destination with its similarity score.
type Match struct {
	City  string
	Score float64
}

// Resolver answers "which known city does this phrase mean". The canonical
// city index is embedded lazily on first use so startup never blocks on the
// embedding service.
type Resolver struct {
	client *Client
	cities []string

	mu    sync.Mutex
	index map[string][]float32
}

// NewResolver builds a resolver over the given canonical city names.
// A nil client yields a resolver that reports itself unavailable.
func NewResolver(client *Client, cities []string) *Resolver {
	return &Resolver{
		client: client,
		cities: cities,
	}
}

// IsAvailable reports whether an embedding service is configured.
func (r *Resolver) IsAvailable() bool {
	return r != nil && r.client != nil && len(r.cities) > 0
}

// Resolve embeds the phrase and returns the closest canonical city above the
// similarity threshold, plus up to two alternates worth suggesting. A nil
// Match with nil error means nothing scored high enough.
func (r *Resolver) Resolve(ctx context.Context, phrase string) (*Match, []string, error) {
	if !r.IsAvailable() {
		return nil, nil, fmt.Errorf("embedding resolver not configured")
	}

	if err := r.ensureIndex(ctx); err != nil {
		return nil, nil, err
	}

	vec, err := r.client.Generate(ctx, phrase)
	if err != nil {
		return nil, nil, fmt.Errorf("embed phrase: %w", err)
	}

	scored := make([]Match, 0, len(r.cities))
	r.mu.Lock()
	for city, cvec := range r.index {
		scored = append(scored, Match{City: city, Score: cosine(vec, cvec)})
	}
	r.mu.Unlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].City < scored[j].City
	})

	if len(scored) == 0 || scored[0].Score < matchThreshold {
		return nil, nil, nil
	}

	best := scored[0]
	var alternates []string
	for _, m := range scored[1:] {
		if len(alternates) == alternateCount {
			break
		}
		// Alternates must be nearly as plausible as the winner.
		if m.Score >= matchThreshold {
			alternates = append(alternates, m.City)
		}
	}

	return &best, alternates, nil
}

// ensureIndex embeds every canonical city once. On any failure the index is
// discarded so the next call retries from scratch.
func (r *Resolver) ensureIndex(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index != nil {
		return nil
	}

	index := make(map[string][]float32, len(r.cities))
	for _, city := range r.cities {
		vec, err := r.client.Generate(ctx, city)
		if err != nil {
			return fmt.Errorf("embed city %q: %w", city, err)
		}
		index[city] = vec
	}

	r.index = index
	return nil
}

// cosine computes cosine similarity between two vectors. Mismatched or zero
// vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
