// README: Precedence merge of layer outputs into the accumulated intent.
package intent

// Merge folds src into dst field by field. A field claimed by src replaces
// dst's value when the incoming source rank is less than or equal to the
// existing one: a later explicit statement overwrites an earlier explicit
// one, while a weaker layer never overwrites a stronger one. Unclaimed
// fields in dst accept any claim. Array fields union instead of replacing.
func Merge(dst, src *TripIntent) {
	if src == nil {
		return
	}

	if claim, ok := src.ClaimFor(FieldDestination); ok {
		existing, had := dst.ClaimFor(FieldDestination)
		if !had || claim.Source.Rank() <= existing.Source.Rank() {
			for _, d := range src.Destinations {
				dst.AddDestination(d)
			}
			dst.Claim(FieldDestination, claim.Source, claim.Confidence)
		}
	}

	mergeScalar(dst, src, FieldOrigin, func() { dst.Origin = src.Origin })
	mergeScalar(dst, src, FieldStartDate, func() { dst.Dates.Start = src.Dates.Start })
	mergeScalar(dst, src, FieldEndDate, func() { dst.Dates.End = src.Dates.End })
	mergeScalar(dst, src, FieldDuration, func() { dst.Dates.DurationDays = src.Dates.DurationDays })
	mergeScalar(dst, src, FieldTravelers, func() { dst.Travelers = src.Travelers })
	mergeScalar(dst, src, FieldTripType, func() { dst.TripType = src.TripType })
	mergeScalar(dst, src, FieldBudget, func() {
		if src.Budget != nil {
			b := *src.Budget
			dst.Budget = &b
		}
	})

	if claim, ok := src.ClaimFor(FieldInterests); ok {
		existing, had := dst.ClaimFor(FieldInterests)
		if !had || claim.Source.Rank() <= existing.Source.Rank() {
			for _, tag := range src.Interests {
				dst.AddInterest(tag)
			}
			dst.Claim(FieldInterests, claim.Source, claim.Confidence)
		}
	}

	for _, s := range src.Suggestions {
		dst.AddSuggestion(s)
	}
}

// mergeScalar applies the precedence rule for one single-valued field.
func mergeScalar(dst, src *TripIntent, f Field, apply func()) {
	claim, ok := src.ClaimFor(f)
	if !ok {
		return
	}
	if existing, had := dst.ClaimFor(f); had && claim.Source.Rank() > existing.Source.Rank() {
		return
	}
	apply()
	dst.Claim(f, claim.Source, claim.Confidence)
}

// Layer identifies a confidence contributor in the resolution cascade.
type Layer string

const (
	LayerDeterministic Layer = "deterministic"
	LayerModel         Layer = "model"
	LayerEmbedding     Layer = "embedding"
	LayerSequence      Layer = "sequence"
)

// layerWeights are the relative contributions of each layer to overall
// confidence. Layers that did not run are excluded and the remaining
// weights renormalized, so a deterministic-only resolution can still
// score high.
var layerWeights = map[Layer]float64{
	LayerDeterministic: 0.4,
	LayerModel:         0.3,
	LayerEmbedding:     0.2,
	LayerSequence:      0.1,
}

// LayerScore is one layer's self-reported confidence for this turn.
type LayerScore struct {
	Layer Layer
	Score float64
}

// CombineConfidence computes the weighted mean of the scores of the layers
// that ran. An empty slice yields 0.
func CombineConfidence(scores []LayerScore) float64 {
	var sum, total float64
	for _, s := range scores {
		w, ok := layerWeights[s.Layer]
		if !ok {
			continue
		}
		sum += w * s.Score
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}
