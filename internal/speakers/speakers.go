// Package speakers holds the named voice registry. Voices are resolved by
// string key once at orchestration start so unknown names fail before any
// worker launches.
package speakers

import (
	"fmt"
	"sort"
)

// Speaker is the voice configuration handed to the synthesis stage.
type Speaker struct {
	Name string
	// BaseFreq is the fundamental frequency in Hz the voice is built around.
	BaseFreq float64
	// Rate scales speaking speed; 1.0 is neutral.
	Rate float64
	// Gain scales output amplitude; 1.0 is neutral.
	Gain float64
}

var registry = map[string]Speaker{
	"default": {Name: "default", BaseFreq: 160, Rate: 1.0, Gain: 1.0},
	"deep":    {Name: "deep", BaseFreq: 95, Rate: 0.9, Gain: 1.0},
	"bright":  {Name: "bright", BaseFreq: 240, Rate: 1.1, Gain: 0.9},
	"narrator": {
		Name:     "narrator",
		BaseFreq: 130,
		Rate:     0.95,
		Gain:     1.1,
	},
}

// Lookup resolves a speaker by key.
func Lookup(key string) (Speaker, error) {
	spk, ok := registry[key]
	if !ok {
		return Speaker{}, fmt.Errorf("unknown speaker %q (known: %v)", key, Names())
	}
	return spk, nil
}

// Names lists the registered speaker keys in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
