// README: Trip style and interest tagging from keyword tables.
package extract

import "tripflow/internal/intent"

// tripTypeKeywords are ordered most specific first; the first hit wins.
var tripTypeKeywords = []struct {
	phrase string
	t      intent.TripType
	conf   float64
}{
	{"honeymoon", intent.TripHoneymoon, 0.9},
	{"business trip", intent.TripBusiness, 0.9},
	{"work trip", intent.TripBusiness, 0.9},
	{"conference", intent.TripBusiness, 0.8},
	{"backpacking", intent.TripBackpack, 0.9},
	{"romantic getaway", intent.TripCouple, 0.9},
	{"romantic", intent.TripCouple, 0.8},
	{"anniversary", intent.TripCouple, 0.8},
	{"family trip", intent.TripFamily, 0.9},
	{"family vacation", intent.TripFamily, 0.9},
	{"with my kids", intent.TripFamily, 0.85},
	{"with the kids", intent.TripFamily, 0.85},
	{"solo", intent.TripSolo, 0.85},
	{"by myself", intent.TripSolo, 0.8},
	{"luxury", intent.TripLuxury, 0.8},
	{"on a budget", intent.TripBudget, 0.85},
	{"budget trip", intent.TripBudget, 0.85},
	{"adventure", intent.TripAdventure, 0.8},
	{"trekking", intent.TripAdventure, 0.8},
	{"relaxation", intent.TripRelaxation, 0.8},
	{"relaxing", intent.TripRelaxation, 0.75},
	{"unwind", intent.TripRelaxation, 0.7},
	{"cultural", intent.TripCultural, 0.8},
	{"family", intent.TripFamily, 0.6},
}

// interestKeywords map surface words to canonical interest tags.
var interestKeywords = []struct {
	phrase string
	tag    string
}{
	{"street food", "food"},
	{"food", "food"},
	{"foodie", "food"},
	{"restaurants", "food"},
	{"culinary", "food"},
	{"wine", "food"},
	{"museum", "museums"},
	{"museums", "museums"},
	{"galleries", "art"},
	{"gallery", "art"},
	{"art", "art"},
	{"history", "history"},
	{"historical", "history"},
	{"historic", "history"},
	{"temples", "history"},
	{"ruins", "history"},
	{"nightlife", "nightlife"},
	{"bars", "nightlife"},
	{"clubs", "nightlife"},
	{"clubbing", "nightlife"},
	{"national park", "nature"},
	{"nature", "nature"},
	{"hiking", "nature"},
	{"outdoors", "nature"},
	{"wildlife", "nature"},
	{"beaches", "beach"},
	{"beach", "beach"},
	{"snorkeling", "beach"},
	{"diving", "beach"},
	{"surfing", "beach"},
	{"shopping", "shopping"},
	{"markets", "shopping"},
	{"photography", "photography"},
	{"architecture", "architecture"},
	{"spa", "wellness"},
	{"wellness", "wellness"},
	{"yoga", "wellness"},
	{"skiing", "skiing"},
	{"snowboarding", "skiing"},
}

// parseTripType picks the first matching style keyword.
func parseTripType(text string) (intent.TripType, float64, bool) {
	for _, kw := range tripTypeKeywords {
		if containsWord(text, kw.phrase) {
			return kw.t, kw.conf, true
		}
	}
	return "", 0, false
}

// parseInterests collects every matching interest tag, deduplicated in
// order of first appearance in the keyword table.
func parseInterests(text string) ([]string, float64, bool) {
	var tags []string
	seen := map[string]bool{}
	for _, kw := range interestKeywords {
		if seen[kw.tag] {
			continue
		}
		if containsWord(text, kw.phrase) {
			seen[kw.tag] = true
			tags = append(tags, kw.tag)
		}
	}
	if len(tags) == 0 {
		return nil, 0, false
	}
	return tags, 0.8, true
}
