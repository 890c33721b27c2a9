package pattern

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/icco/mej/internal/audio"
	"github.com/icco/mej/internal/mood"
	"github.com/icco/mej/internal/preset"
	"github.com/icco/mej/internal/voice"
)

// ErrGeneration reports a generator failure. The pattern returned with it
// is the safe fallback.
var ErrGeneration = errors.New("pattern: generation failed")

// Arrangement carries the macro-structure context of a rebuild.
type Arrangement struct {
	Section     Section
	ChordCursor int     // rotates the progression
	Stage       float64 // Continuous evolution stage
	Speed       float64 // listener tempo multiplier; zero means 1
}

func (a Arrangement) speed() float64 {
	if a.Speed <= 0 {
		return 1
	}
	return a.Speed
}

// Input is everything a generator may read.
type Input struct {
	Profile     preset.Profile
	Mood        mood.State
	Derived     mood.Derived
	Arrangement Arrangement
}

// Generator builds a pattern. It may return an error or panic; the Library
// contains both.
type Generator func(in Input, rng *rand.Rand) (*Pattern, error)

// Library maps presets to generators.
type Library struct {
	generators map[preset.ID]Generator
}

// Option configures a Library.
type Option func(*Library)

// WithGenerator replaces the generator for one preset.
func WithGenerator(id preset.ID, g Generator) Option {
	return func(l *Library) {
		l.generators[id] = g
	}
}

// NewLibrary returns a library using Standard for every preset unless
// overridden.
func NewLibrary(opts ...Option) *Library {
	l := &Library{generators: make(map[preset.ID]Generator, preset.Len())}
	for _, id := range preset.All() {
		l.generators[id] = Standard
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Generate builds a pattern for id. It always returns a playable pattern;
// when the generator fails the result is Fallback and err wraps
// ErrGeneration.
func (l *Library) Generate(id preset.ID, m mood.State, a Arrangement, rng *rand.Rand) (pat *Pattern, err error) {
	prof := preset.Lookup(id)
	if rng == nil {
		rng = rand.New(rand.NewPCG(0, 0))
	}

	defer func() {
		if r := recover(); r != nil {
			pat = Fallback(prof, a)
			err = fmt.Errorf("%w: %s panicked: %v", ErrGeneration, prof.ID, r)
		}
	}()

	gen := l.generators[prof.ID]
	if gen == nil {
		gen = Standard
	}
	in := Input{
		Profile:     prof,
		Mood:        m.Clamped(),
		Derived:     mood.Derive(m),
		Arrangement: a,
	}

	p, gerr := gen(in, rng)
	if gerr == nil {
		gerr = p.Validate()
	}
	if gerr != nil {
		return Fallback(prof, a), fmt.Errorf("%w: %s: %v", ErrGeneration, prof.ID, gerr)
	}
	return p, nil
}

// Fallback is the minimal always-safe pattern: kick on the one, eighth
// hats and a sustained c3 tone.
func Fallback(prof preset.Profile, a Arrangement) *Pattern {
	drums := CompileDrums("bd ~ ~ ~", StepsPerBar, 0.5)
	drums.Overlay(CompileDrums("hh*8", StepsPerBar, 0.2))

	chords := NewLine(StepsPerBar)
	chords.Add(0, Trigger{Voice: voice.Chord, Velocity: 1, Articulation: StepsPerBar, Notes: []string{"c3"}})

	return &Pattern{
		Preset:  prof.ID,
		Section: a.Section,
		Tempo:   prof.Tempo.At(0.5) * a.speed(),
		Length:  StepsPerBar,
		Drums:   drums,
		Bass:    NewLine(StepsPerBar),
		Chords:  chords,
		Melody:  NewLine(StepsPerBar),
		FX: map[Role]voice.Params{
			RoleDrums:  {Gain: 1},
			RoleChords: {Gain: 0.3, Wave: audio.WaveSine},
		},
	}
}
