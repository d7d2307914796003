package ai

// FallbackFields captures the structured output from the model.
// Every member is optional; a nil pointer or empty slice means the model
// found nothing for that field. Values arrive unvalidated and must pass
// the same plausibility bounds as lexical extraction before use.
type FallbackFields struct {
	// Destinations are city names mentioned by the user, canonical where possible.
	Destinations []string `json:"destinations,omitempty"`

	// Origin is the departure city, only when the user distinguished it from
	// the places they want to visit.
	Origin *string `json:"origin,omitempty"`

	// StartDate is the resolved trip start in YYYY-MM-DD, computed by the model
	// against the current date supplied in the prompt.
	StartDate *string `json:"startDate,omitempty"`

	// DurationDays is the whole trip length in days (nights plus one).
	DurationDays *int `json:"durationDays,omitempty"`

	// Travelers is the total party size including children.
	Travelers *int `json:"travelers,omitempty"`

	// BudgetAmount is the stated budget in the user's currency units.
	BudgetAmount *float64 `json:"budgetAmount,omitempty"`

	// BudgetCurrency is the ISO code for BudgetAmount (e.g. "USD", "EUR").
	BudgetCurrency *string `json:"budgetCurrency,omitempty"`

	// BudgetPerPerson is true when the amount was stated per traveler.
	BudgetPerPerson *bool `json:"budgetPerPerson,omitempty"`

	// BudgetTier is "budget", "mid-range" or "luxury" when the user spoke in
	// those terms instead of an amount.
	BudgetTier *string `json:"budgetTier,omitempty"`

	// TripType is the trip style (e.g. "honeymoon", "family", "solo").
	TripType *string `json:"tripType,omitempty"`

	// Interests are activity tags such as "food", "museums", "hiking".
	Interests []string `json:"interests,omitempty"`
}

// Empty reports whether the model returned nothing usable.
func (f *FallbackFields) Empty() bool {
	if f == nil {
		return true
	}
	return len(f.Destinations) == 0 &&
		f.Origin == nil &&
		f.StartDate == nil &&
		f.DurationDays == nil &&
		f.Travelers == nil &&
		f.BudgetAmount == nil &&
		f.BudgetTier == nil &&
		f.TripType == nil &&
		len(f.Interests) == 0
}
