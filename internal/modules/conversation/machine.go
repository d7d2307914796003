// README: Completeness evaluation and reply selection for each turn.
package conversation

import (
	"fmt"
	"strings"

	"tripflow/internal/intent"
)

// Evaluate maps the accumulated intent to a conversation state and the
// still-missing required fields in ask order. Ready is only reachable
// when destination, start date, and duration are all resolvable.
func Evaluate(ti *intent.TripIntent) (State, []intent.Field) {
	missing := ti.MissingRequired()
	if len(missing) == 0 {
		return StateReadyToGenerate, nil
	}
	switch missing[0] {
	case intent.FieldDestination:
		return StateCollectingDestination, missing
	case intent.FieldStartDate:
		return StateCollectingDate, missing
	default:
		return StateCollectingDuration, missing
	}
}

// QuestionFor asks for exactly one missing field, the highest-priority
// one, so the user is never faced with a wall of questions.
func QuestionFor(f intent.Field, ti *intent.TripIntent) string {
	switch f {
	case intent.FieldDestination:
		return "Where would you like to go?"
	case intent.FieldStartDate:
		if ti.HasDestination() {
			return fmt.Sprintf("When would you like to go to %s?", ti.Destinations[0].City)
		}
		return "When would you like to travel?"
	default:
		return "How many days would you like to stay?"
	}
}

// Summary describes a complete intent back to the user.
func Summary(ti *intent.TripIntent) string {
	var b strings.Builder
	b.WriteString("You're all set: ")

	window := ti.Dates.Resolved()
	fmt.Fprintf(&b, "a %d-day trip to %s", window.DurationDays, joinCities(ti.DestinationNames()))
	if window.Start != nil {
		fmt.Fprintf(&b, " starting %s", window.Start.Format("January 2, 2006"))
	}
	if ti.Travelers > 1 {
		fmt.Fprintf(&b, " for %d travelers", ti.Travelers)
	} else if ti.Travelers == 1 {
		b.WriteString(" traveling solo")
	}
	if ti.Budget != nil {
		switch {
		case !ti.Budget.Money.IsZero() && ti.Budget.PerPerson:
			fmt.Fprintf(&b, " with a budget of %d %s per person", ti.Budget.Money.Amount, ti.Budget.Money.Currency)
		case !ti.Budget.Money.IsZero():
			fmt.Fprintf(&b, " with a budget of %d %s", ti.Budget.Money.Amount, ti.Budget.Money.Currency)
		case ti.Budget.Tier != "":
			fmt.Fprintf(&b, " on a %s budget", ti.Budget.Tier)
		}
	}
	b.WriteString(". Ready to build your itinerary.")
	return b.String()
}

// ClarifyPrompt is the reply to an empty or unusable utterance.
func ClarifyPrompt() string {
	return "Tell me about the trip you have in mind. A destination is a great place to start."
}

// RecoveryNotice is prepended when a serialized context could not be
// restored and a new conversation had to be started.
func RecoveryNotice() string {
	return "It looks like we lost the thread of our conversation, so I've started fresh."
}

// ErrorReply is the polite generic answer for unexpected failures.
func ErrorReply() string {
	return "Something went wrong on our side. Let's keep going: tell me where you'd like to travel."
}

func joinCities(names []string) string {
	switch len(names) {
	case 0:
		return "your destination"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}
