// README: Heuristic completion of fields the user has not stated yet.
package predict

import (
	"fmt"

	"tripflow/internal/extract"
	"tripflow/internal/intent"
	"tripflow/internal/types"
)

// predictedConfidence is deliberately low; predictions fill gaps for a
// smoother conversation but must lose to anything the user actually said.
const predictedConfidence = 0.35

// perDayRates are rough USD per person per day figures by cost tier.
var perDayRates = map[string]int64{
	"budget":    80,
	"mid-range": 180,
	"luxury":    350,
}

// interestDefaults seed interests for styles with obvious affinities.
var interestDefaults = map[intent.TripType][]string{
	intent.TripHoneymoon:  {"food", "beach", "wellness"},
	intent.TripFamily:     {"nature", "museums"},
	intent.TripBackpack:   {"nature", "nightlife"},
	intent.TripAdventure:  {"nature"},
	intent.TripRelaxation: {"beach", "wellness"},
	intent.TripCultural:   {"museums", "history", "architecture"},
	intent.TripCouple:     {"food"},
}

// Completer derives plausible values for unresolved fields from what is
// already known, using gazetteer cost tiers for budget arithmetic.
type Completer struct {
	gaz *extract.Gazetteer
}

func New(gaz *extract.Gazetteer) *Completer {
	return &Completer{gaz: gaz}
}

// Complete returns a partial intent holding predictions for fields the
// user has not stated. Earlier predictions are refreshed rather than kept,
// since each turn can change the inputs they were derived from. Every
// claim carries SourcePredicted at low confidence.
func (c *Completer) Complete(acc *intent.TripIntent) *intent.TripIntent {
	out := intent.New()

	days := acc.Dates.Duration()
	datesPaired := acc.Dates.Start != nil && acc.Dates.End != nil
	if !acc.HasStated(intent.FieldDuration) && !datesPaired && acc.HasDestination() {
		days = defaultDuration(len(acc.Destinations))
		out.Dates.DurationDays = days
		out.Claim(intent.FieldDuration, intent.SourcePredicted, predictedConfidence)
	}

	if !acc.HasStated(intent.FieldBudget) && acc.HasDestination() && days > 0 {
		tier := c.majorityTier(acc)
		travelers := acc.Travelers
		if travelers == 0 {
			travelers = 1
		}
		amount := perDayRates[tier] * int64(days) * int64(travelers)
		if intent.ValidBudgetAmount(amount) {
			out.Budget = &intent.Budget{
				Money: moneyUSD(amount),
				Tier:  tier,
			}
			out.Claim(intent.FieldBudget, intent.SourcePredicted, predictedConfidence)
		}
	}

	if !acc.HasStated(intent.FieldTripType) {
		switch acc.Travelers {
		case 1:
			out.TripType = intent.TripSolo
			out.Claim(intent.FieldTripType, intent.SourcePredicted, predictedConfidence)
		case 2:
			out.TripType = intent.TripCouple
			out.Claim(intent.FieldTripType, intent.SourcePredicted, predictedConfidence)
		}
	}

	style := acc.TripType
	if style == "" {
		style = out.TripType
	}
	if !acc.HasStated(intent.FieldInterests) {
		if defaults, ok := interestDefaults[style]; ok {
			out.Interests = append(out.Interests, defaults...)
			out.Claim(intent.FieldInterests, intent.SourcePredicted, predictedConfidence)
		}
	}

	// A stated tier without an amount gets an estimate as a hint only;
	// the budget field itself already belongs to a stronger source.
	if acc.Budget != nil && acc.Budget.Money.IsZero() && acc.Budget.Tier != "" && days > 0 {
		travelers := acc.Travelers
		if travelers == 0 {
			travelers = 1
		}
		amount := perDayRates[acc.Budget.Tier] * int64(days) * int64(travelers)
		if intent.ValidBudgetAmount(amount) {
			out.AddSuggestion(fmt.Sprintf(
				"A %s trip of %d days for %d usually runs around $%d.",
				acc.Budget.Tier, days, travelers, amount))
		}
	}

	return out
}

// defaultDuration maps destination count to a typical trip length.
func defaultDuration(cities int) int {
	switch {
	case cities <= 1:
		return 5
	case cities == 2:
		return 7
	default:
		days := cities * 4
		if days > intent.MaxTripDays {
			days = intent.MaxTripDays
		}
		return days
	}
}

func moneyUSD(amount int64) types.Money {
	return types.Money{Amount: amount, Currency: "USD"}
}

// majorityTier picks the most common cost tier among the known
// destinations, defaulting to mid-range on a tie or unknown cities.
func (c *Completer) majorityTier(acc *intent.TripIntent) string {
	counts := map[string]int{}
	for _, d := range acc.Destinations {
		if city, ok := c.gaz.LookupCity(d.City); ok {
			counts[city.CostTier]++
		}
	}
	best, bestN := "mid-range", 0
	for _, tier := range []string{"budget", "mid-range", "luxury"} {
		if counts[tier] > bestN {
			best, bestN = tier, counts[tier]
		}
	}
	return best
}
