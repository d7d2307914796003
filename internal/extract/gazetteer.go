// README: City and country gazetteer, embedded with an optional file override.
package extract

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed gazetteer.yaml
var gazetteerYAML []byte

var ErrEmptyGazetteer = fmt.Errorf("gazetteer: no cities defined")

// City is one gazetteer entry. CostTier is "budget", "mid-range", or
// "luxury" and drives per-day spend heuristics.
type City struct {
	Name     string   `yaml:"name"`
	Country  string   `yaml:"country"`
	CostTier string   `yaml:"costTier"`
	Aliases  []string `yaml:"aliases"`
}

// Country maps a country name to its primary travel city, used to steer
// users who name a country instead of a city.
type Country struct {
	Name    string `yaml:"name"`
	Primary string `yaml:"primary"`
}

type gazetteerFile struct {
	Cities    []City    `yaml:"cities"`
	Countries []Country `yaml:"countries"`
}

// Gazetteer answers lowercase name and alias lookups for cities and
// countries. It is immutable after load and safe for concurrent use.
type Gazetteer struct {
	cities     []City
	countries  []Country
	cityIdx    map[string]int
	countryIdx map[string]int
}

// LoadGazetteer parses the embedded seed data, or the YAML file at path
// when path is non-empty.
func LoadGazetteer(path string) (*Gazetteer, error) {
	raw := gazetteerYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("gazetteer: read %s: %w", path, err)
		}
		raw = b
	}

	var f gazetteerFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("gazetteer: parse: %w", err)
	}
	if len(f.Cities) == 0 {
		return nil, ErrEmptyGazetteer
	}

	g := &Gazetteer{
		cities:     f.Cities,
		countries:  f.Countries,
		cityIdx:    make(map[string]int, len(f.Cities)*2),
		countryIdx: make(map[string]int, len(f.Countries)),
	}
	for i, c := range f.Cities {
		g.cityIdx[strings.ToLower(c.Name)] = i
		for _, a := range c.Aliases {
			g.cityIdx[strings.ToLower(a)] = i
		}
	}
	for i, c := range f.Countries {
		g.countryIdx[strings.ToLower(c.Name)] = i
	}
	return g, nil
}

// LookupCity resolves a lowercase name or alias to its canonical entry.
func (g *Gazetteer) LookupCity(key string) (City, bool) {
	i, ok := g.cityIdx[strings.ToLower(key)]
	if !ok {
		return City{}, false
	}
	return g.cities[i], true
}

// LookupCountry resolves a lowercase country name.
func (g *Gazetteer) LookupCountry(key string) (Country, bool) {
	i, ok := g.countryIdx[strings.ToLower(key)]
	if !ok {
		return Country{}, false
	}
	return g.countries[i], true
}

// CityNames returns every canonical city name.
func (g *Gazetteer) CityNames() []string {
	names := make([]string, len(g.cities))
	for i, c := range g.cities {
		names[i] = c.Name
	}
	return names
}

// cityKeys returns every lowercase name and alias in stable order, for
// scanning text deterministically.
func (g *Gazetteer) cityKeys() []string {
	keys := make([]string, 0, len(g.cityIdx))
	for k := range g.cityIdx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// countryNames returns every lowercase country name in stable order.
func (g *Gazetteer) countryNames() []string {
	names := make([]string, 0, len(g.countryIdx))
	for k := range g.countryIdx {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
