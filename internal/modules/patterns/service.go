// README: Pattern learning service; records, derives, and applies.
package patterns

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"tripflow/internal/config"
	"tripflow/internal/intent"
	"tripflow/internal/log"
)

const (
	maxExamples   = 3
	recordTimeout = 5 * time.Second
)

// Storage is what the service needs from persistence.
type Storage interface {
	InsertConfirmed(ctx context.Context, res ConfirmedResolution) error
	RecentConfirmed(ctx context.Context, limit int) ([]ConfirmedResolution, error)
	UpsertPattern(ctx context.Context, p LearnedPattern) error
	AllPatterns(ctx context.Context) ([]LearnedPattern, error)
}

// Match pairs a pattern with its similarity to the queried signature.
type Match struct {
	Pattern LearnedPattern
	Score   float64
}

// Service records confirmed resolutions, periodically derives patterns
// from them, and applies learned implications to partial intents.
type Service struct {
	store Storage
	cfg   config.PatternConfig
	pool  *ants.Pool
	now   func() time.Time
}

func NewService(store Storage, cfg config.PatternConfig) (*Service, error) {
	pool, err := ants.NewPool(4)
	if err != nil {
		return nil, fmt.Errorf("patterns: worker pool: %w", err)
	}
	return &Service{store: store, cfg: cfg, pool: pool, now: time.Now}, nil
}

// Close releases the background worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// RecordConfirmed persists a resolved intent off the request path. The
// write is best effort; a failure is logged and never surfaces to the
// conversation.
func (s *Service) RecordConfirmed(sessionID string, ti *intent.TripIntent) {
	res := NewConfirmed(sessionID, ti.Clone(), s.now())
	if len(res.Signature) == 0 {
		return
	}
	err := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.store.InsertConfirmed(ctx, res); err != nil {
			log.Warnf("patterns: record confirmed resolution: %v", err)
		}
	})
	if err != nil {
		log.Warnf("patterns: submit record job: %v", err)
	}
}

// FindSimilar returns the stored patterns whose signatures overlap sig at
// or above the similarity threshold, best first, capped at the neighbor
// limit.
func (s *Service) FindSimilar(ctx context.Context, sig []string) ([]Match, error) {
	if len(sig) == 0 {
		return nil, nil
	}
	all, err := s.store.AllPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("patterns: load: %w", err)
	}

	var matches []Match
	for _, p := range all {
		score := Jaccard(sig, p.Signature)
		if score >= s.cfg.SimilarityThreshold {
			matches = append(matches, Match{Pattern: p, Score: score})
		}
	}
	sortByScore(matches, func(m Match) float64 { return m.Score })
	if len(matches) > s.cfg.NeighborLimit {
		matches = matches[:s.cfg.NeighborLimit]
	}
	return matches, nil
}

// Apply fills gaps in acc from the best matching patterns. Claims carry
// SourcePattern so anything the user said, now or earlier, outranks them.
// Pattern lookup failures degrade to an empty partial.
func (s *Service) Apply(ctx context.Context, acc *intent.TripIntent) *intent.TripIntent {
	out := intent.New()
	matches, err := s.FindSimilar(ctx, SignatureOf(acc))
	if err != nil {
		log.Warnf("patterns: apply skipped: %v", err)
		return out
	}
	if len(matches) == 0 {
		return out
	}

	for _, m := range matches {
		imp := m.Pattern.Implications
		conf := m.Score * m.Pattern.Confidence

		if !acc.HasStated(intent.FieldDuration) && !out.Has(intent.FieldDuration) &&
			intent.ValidTripDays(imp.TypicalDuration) {
			out.Dates.DurationDays = imp.TypicalDuration
			out.Claim(intent.FieldDuration, intent.SourcePattern, conf)
		}
		if styleUnknown(acc) && !out.Has(intent.FieldTripType) &&
			intent.ValidTripType(imp.TypicalTripType) {
			out.TripType = intent.TripType(imp.TypicalTripType)
			out.Claim(intent.FieldTripType, intent.SourcePattern, conf)
		}
		if !acc.HasStated(intent.FieldBudget) && out.Budget == nil && imp.TypicalTier != "" {
			out.Budget = &intent.Budget{Tier: imp.TypicalTier}
			out.Claim(intent.FieldBudget, intent.SourcePattern, conf)
		}
		for _, city := range imp.CoDestinations {
			if hasCity(acc, city) {
				continue
			}
			out.AddSuggestion(fmt.Sprintf("Travelers on similar trips often add %s.", city))
		}
	}
	return out
}

// RunDerivation periodically mines recent confirmed resolutions into
// learned patterns until ctx is cancelled. Run it in its own goroutine.
func (s *Service) RunDerivation(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.DeriveTick)
	defer ticker.Stop()

	log.Infof("patterns: derivation loop started (every %s)", s.cfg.DeriveTick)
	for {
		select {
		case <-ctx.Done():
			log.Infof("patterns: derivation loop stopped")
			return
		case <-ticker.C:
			if err := s.deriveOnce(ctx); err != nil {
				log.Warnf("patterns: derivation: %v", err)
			}
		}
	}
}

// deriveOnce groups recent resolutions by full signature and by single
// destination, and upserts a pattern for every group with enough support.
func (s *Service) deriveOnce(ctx context.Context) error {
	recent, err := s.store.RecentConfirmed(ctx, s.cfg.RecentWindow)
	if err != nil {
		return fmt.Errorf("load recent: %w", err)
	}
	if len(recent) == 0 {
		return nil
	}

	derived := 0
	for _, group := range groupBySignature(recent) {
		if len(group) < s.cfg.MinFrequency {
			continue
		}
		if err := s.store.UpsertPattern(ctx, s.buildPattern(group[0].Signature, group)); err != nil {
			return err
		}
		derived++
	}
	for city, group := range groupByDestination(recent) {
		if len(group) < s.cfg.MinFrequency {
			continue
		}
		if err := s.store.UpsertPattern(ctx, s.buildPattern([]string{city}, group)); err != nil {
			return err
		}
		derived++
	}
	if derived > 0 {
		log.Infof("patterns: derived %d patterns from %d resolutions", derived, len(recent))
	}
	return nil
}

// buildPattern aggregates a group of resolutions into one pattern.
func (s *Service) buildPattern(sig []string, group []ConfirmedResolution) LearnedPattern {
	p := LearnedPattern{
		ID:        uuid.NewString(),
		Signature: append([]string(nil), sig...),
		Frequency: len(group),
		UpdatedAt: s.now(),
	}
	p.Confidence = 0.3 + 0.1*float64(len(group))
	if p.Confidence > 0.9 {
		p.Confidence = 0.9
	}

	sigSet := map[string]bool{}
	for _, tok := range sig {
		sigSet[tok] = true
	}

	durations := 0
	durationN := 0
	typeCounts := map[string]int{}
	tierCounts := map[string]int{}
	coCounts := map[string]int{}
	coNames := map[string]string{}
	for _, res := range group {
		if len(p.Examples) < maxExamples {
			p.Examples = append(p.Examples, res.SessionID)
		}
		if res.DurationDays > 0 {
			durations += res.DurationDays
			durationN++
		}
		if res.TripType != "" && res.TripType != string(intent.TripGeneral) {
			typeCounts[res.TripType]++
		}
		if res.BudgetTier != "" {
			tierCounts[res.BudgetTier]++
		}
		for _, city := range res.Destinations {
			key := strings.ToLower(city)
			if sigSet[key] {
				continue
			}
			coCounts[key]++
			coNames[key] = city
		}
	}

	if durationN > 0 {
		p.Implications.TypicalDuration = (durations + durationN/2) / durationN
	}
	p.Implications.TypicalTripType = majority(typeCounts)
	p.Implications.TypicalTier = majority(tierCounts)
	for key, n := range coCounts {
		if n >= s.cfg.MinFrequency {
			p.Implications.CoDestinations = append(p.Implications.CoDestinations, coNames[key])
		}
	}
	sort.Strings(p.Implications.CoDestinations)
	return p
}

func groupBySignature(recent []ConfirmedResolution) map[string][]ConfirmedResolution {
	groups := map[string][]ConfirmedResolution{}
	for _, res := range recent {
		if len(res.Signature) == 0 {
			continue
		}
		key := SignatureKey(res.Signature)
		groups[key] = append(groups[key], res)
	}
	return groups
}

func groupByDestination(recent []ConfirmedResolution) map[string][]ConfirmedResolution {
	groups := map[string][]ConfirmedResolution{}
	for _, res := range recent {
		for _, city := range res.Destinations {
			key := strings.ToLower(city)
			groups[key] = append(groups[key], res)
		}
	}
	return groups
}

func styleUnknown(acc *intent.TripIntent) bool {
	return !acc.Has(intent.FieldTripType) || acc.TripType == intent.TripGeneral
}

func hasCity(acc *intent.TripIntent, city string) bool {
	for _, d := range acc.Destinations {
		if strings.EqualFold(d.City, city) {
			return true
		}
	}
	return false
}

func majority(counts map[string]int) string {
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

// sortByScore orders items descending by score with a stable insertion
// sort; pattern sets are small enough that simplicity wins.
func sortByScore[T any](items []T, score func(T) float64) {
	for i := 1; i < len(items); i++ {
		j := i
		for j > 0 && score(items[j-1]) < score(items[j]) {
			items[j-1], items[j] = items[j], items[j-1]
			j--
		}
	}
}
