// Package preset is the fixed catalog of musical presets.
package preset

import (
	"fmt"
	"strings"

	"github.com/icco/mej/internal/mood"
)

// ID is a closed enumeration of presets.
type ID int

const (
	Starry ID = iota
	Flow
	Glitch
	Demon

	count
)

// Default is used for unknown names.
const Default = Flow

var names = [count]string{"starry", "flow", "glitch", "demon"}

func (id ID) String() string {
	if id < 0 || id >= count {
		return fmt.Sprintf("preset(%d)", int(id))
	}
	return names[id]
}

// Valid reports whether id names a catalog entry.
func (id ID) Valid() bool {
	return id >= 0 && id < count
}

// TempoRange is an inclusive BPM range.
type TempoRange struct {
	Min, Max float64
}

// At interpolates the range at f in [0, 1].
func (r TempoRange) At(f float64) float64 {
	f = max(0, min(1, f))
	return r.Min + (r.Max-r.Min)*f
}

// Profile is an immutable preset definition.
type Profile struct {
	ID          ID
	Key         string
	Root        string // root note name without octave
	Scale       Scale
	Progression []string
	Tempo       TempoRange
	Genre       string
	Baseline    mood.State
}

var catalog = [count]Profile{
	Starry: {
		ID:          Starry,
		Key:         "A minor",
		Root:        "a",
		Scale:       minorPentatonic,
		Progression: []string{"Am", "F", "C", "G"},
		Tempo:       TempoRange{70, 90},
		Genre:       "ambient",
		Baseline:    mood.State{Energy: 60, Complexity: 50, Atmosphere: 80, RhythmFocus: 30},
	},
	Flow: {
		ID:          Flow,
		Key:         "C major",
		Root:        "c",
		Scale:       majorPentatonic,
		Progression: []string{"C", "G", "Am", "F"},
		Tempo:       TempoRange{80, 100},
		Genre:       "lofi",
		Baseline:    mood.State{Energy: 50, Complexity: 30, Atmosphere: 50, RhythmFocus: 25},
	},
	Glitch: {
		ID:          Glitch,
		Key:         "D minor",
		Root:        "d",
		Scale:       blues,
		Progression: []string{"Dm", "G", "Am", "E"},
		Tempo:       TempoRange{120, 140},
		Genre:       "idm",
		Baseline:    mood.State{Energy: 70, Complexity: 80, Atmosphere: 40, RhythmFocus: 75},
	},
	Demon: {
		ID:          Demon,
		Key:         "E minor",
		Root:        "e",
		Scale:       phrygian,
		Progression: []string{"Em", "C", "G", "D"},
		Tempo:       TempoRange{130, 150},
		Genre:       "industrial",
		Baseline:    mood.State{Energy: 85, Complexity: 75, Atmosphere: 20, RhythmFocus: 80},
	},
}

// Lookup returns the profile for id, or the default profile when id is not
// a catalog entry.
func Lookup(id ID) Profile {
	if !id.Valid() {
		id = Default
	}
	p := catalog[id]
	p.Progression = append([]string(nil), p.Progression...)
	p.Scale.Intervals = append([]int(nil), p.Scale.Intervals...)
	return p
}

// Parse maps a preset name to its ID. Unknown names map to Default and
// ok is false.
func Parse(name string) (id ID, ok bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range names {
		if candidate == n {
			return ID(i), true
		}
	}
	return Default, false
}

// All lists every preset in catalog order.
func All() []ID {
	ids := make([]ID, count)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// Len is the number of presets.
func Len() int {
	return int(count)
}
