// README: Destination and origin extraction against the gazetteer.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"tripflow/internal/intent"
)

var (
	originPat     = regexp.MustCompile(`\b(?:flying from|departing from|leaving from|departing|out of|from)\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+){0,2})`)
	verbDestPat   = regexp.MustCompile(`\b(?:trip to|travel(?:ing|ling)? to|go(?:ing)? to|head(?:ing)? to|fly(?:ing)? to|visit(?:ing)?|vacation in|holiday in|staying in|explore)\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+){0,2})`)
	daysInCityFmt = `\b` + numberPattern + `[- ](?:(days?|nights?) )?in %s\b`
	daysEachPat   = regexp.MustCompile(`\b` + numberPattern + ` (days?|nights?|weeks?) (?:in )?each\b`)
)

type span struct{ start, end int }

func (s span) contains(other span) bool {
	return other.start >= s.start && other.end <= s.end
}

type destMatch struct {
	city City
	pos  int
	conf float64
}

// destinations finds cities, the origin, and country-level steering hints.
// Gazetteer hits are ordered by appearance; verb-anchored capitalized
// candidates outside the gazetteer are accepted at reduced confidence.
func (e *Extractor) destinations(original, lower string) ([]intent.Destination, string, []string, float64) {
	origin, originSpan := e.origin(original, lower)

	var citySpans []span
	best := map[string]*destMatch{}
	for _, key := range e.gaz.cityKeys() {
		idx := indexWord(lower, key)
		if idx < 0 {
			continue
		}
		sp := span{idx, idx + len(key)}
		if originSpan.contains(sp) {
			continue
		}
		city, _ := e.gaz.LookupCity(key)
		conf := 0.95
		if key != strings.ToLower(city.Name) {
			conf = 0.9
		}
		if b, ok := best[city.Name]; ok {
			// A name and one of its aliases can both hit; keep the
			// earliest position and the strongest confidence.
			if idx < b.pos {
				b.pos = idx
			}
			if conf > b.conf {
				b.conf = conf
			}
		} else {
			best[city.Name] = &destMatch{city: city, pos: idx, conf: conf}
		}
		citySpans = append(citySpans, sp)
	}
	matches := make([]destMatch, 0, len(best))
	for _, m := range best {
		matches = append(matches, *m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	var suggestions []string
	for _, name := range e.gaz.countryNames() {
		idx := indexWord(lower, name)
		if idx < 0 {
			continue
		}
		sp := span{idx, idx + len(name)}
		inside := false
		for _, cs := range citySpans {
			if cs.contains(sp) {
				inside = true
				break
			}
		}
		if inside {
			continue
		}
		country, _ := e.gaz.LookupCountry(name)
		suggestions = append(suggestions,
			fmt.Sprintf("%s is a country. Consider starting with %s.", country.Name, country.Primary))
	}
	sort.Strings(suggestions)

	dests := make([]intent.Destination, 0, len(matches))
	maxConf := 0.0
	for _, m := range matches {
		dests = append(dests, intent.Destination{City: m.city.Name, Confidence: m.conf})
		if m.conf > maxConf {
			maxConf = m.conf
		}
	}

	for _, cand := range e.unknownCandidates(original, dests, origin) {
		dests = append(dests, cand)
		if cand.Confidence > maxConf {
			maxConf = cand.Confidence
		}
	}

	bindDays(lower, dests)
	return dests, origin, suggestions, maxConf
}

// origin resolves "from X" phrases to a gazetteer city.
func (e *Extractor) origin(original, lower string) (string, span) {
	m := originPat.FindStringSubmatchIndex(original)
	if m == nil {
		return "", span{}
	}
	phrase := original[m[2]:m[3]]
	city, ok := e.gaz.LookupCity(phrase)
	if !ok {
		return "", span{}
	}
	key := strings.ToLower(phrase)
	idx := indexWord(lower, key)
	if idx < 0 {
		return city.Name, span{}
	}
	return city.Name, span{idx, idx + len(key)}
}

// unknownCandidates accepts capitalized verb-anchored phrases that the
// gazetteer does not know, at low confidence, so small towns still work.
func (e *Extractor) unknownCandidates(original string, known []intent.Destination, origin string) []intent.Destination {
	var out []intent.Destination
	for _, m := range verbDestPat.FindAllStringSubmatch(original, -1) {
		phrase := strings.TrimSpace(m[1])
		lowerPhrase := strings.ToLower(phrase)
		if _, ok := e.gaz.LookupCity(lowerPhrase); ok {
			continue
		}
		if _, ok := e.gaz.LookupCountry(lowerPhrase); ok {
			continue
		}
		if _, ok := months[lowerPhrase]; ok {
			continue
		}
		if _, ok := weekdays[lowerPhrase]; ok {
			continue
		}
		if strings.EqualFold(phrase, origin) {
			continue
		}
		dup := false
		for _, d := range known {
			if strings.EqualFold(d.City, phrase) {
				dup = true
				break
			}
		}
		for _, d := range out {
			if strings.EqualFold(d.City, phrase) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out = append(out, intent.Destination{City: phrase, Confidence: 0.5})
	}
	return out
}

// bindDays attaches per-city day counts stated as "3 days in London" or
// "2 in Paris", and handles the "one week each" form.
func bindDays(lower string, dests []intent.Destination) {
	if m := daysEachPat.FindStringSubmatch(lower); m != nil {
		if n, ok := parseCount(m[1]); ok {
			days := n
			switch {
			case strings.HasPrefix(m[2], "week"):
				days = n * 7
			case strings.HasPrefix(m[2], "night"):
				days = n + 1
			}
			if intent.ValidTripDays(days) {
				for i := range dests {
					dests[i].Days = days
				}
			}
		}
		return
	}

	for i := range dests {
		pat, err := regexp.Compile(fmt.Sprintf(daysInCityFmt, regexp.QuoteMeta(strings.ToLower(dests[i].City))))
		if err != nil {
			continue
		}
		m := pat.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		n, ok := parseCount(m[1])
		if !ok {
			continue
		}
		if strings.HasPrefix(m[2], "night") {
			n++
		}
		if intent.ValidTripDays(n) {
			dests[i].Days = n
		}
	}
}
