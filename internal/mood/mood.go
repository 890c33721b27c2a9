// Package mood holds the four listener-facing mood knobs and the pure
// functions that turn them into musical quantities.
package mood

import (
	"errors"
	"fmt"
)

const (
	Min = 0
	Max = 100
)

// ErrOutOfRange is returned by setters given a value outside [Min, Max].
// The value is still applied, clamped.
var ErrOutOfRange = errors.New("mood: value out of range")

// Dimension identifies one mood knob.
type Dimension int

const (
	Energy Dimension = iota
	Complexity
	Atmosphere
	RhythmFocus
)

// Dimensions lists every knob in display order.
var Dimensions = []Dimension{Energy, Complexity, Atmosphere, RhythmFocus}

func (d Dimension) String() string {
	switch d {
	case Energy:
		return "energy"
	case Complexity:
		return "complexity"
	case Atmosphere:
		return "atmosphere"
	case RhythmFocus:
		return "rhythm"
	default:
		return fmt.Sprintf("dimension(%d)", int(d))
	}
}

// State is a mood snapshot. Values stay within [Min, Max] as long as they
// are written through Set or Nudge.
type State struct {
	Energy      int
	Complexity  int
	Atmosphere  int
	RhythmFocus int
}

// Get returns the value of d.
func (s State) Get(d Dimension) int {
	switch d {
	case Energy:
		return s.Energy
	case Complexity:
		return s.Complexity
	case Atmosphere:
		return s.Atmosphere
	case RhythmFocus:
		return s.RhythmFocus
	}
	return 0
}

// Set writes v to d, clamped. It reports ErrOutOfRange when clamping was
// needed.
func (s *State) Set(d Dimension, v int) error {
	c := Clamp(v)
	switch d {
	case Energy:
		s.Energy = c
	case Complexity:
		s.Complexity = c
	case Atmosphere:
		s.Atmosphere = c
	case RhythmFocus:
		s.RhythmFocus = c
	default:
		return fmt.Errorf("unknown mood dimension %d", int(d))
	}
	if c != v {
		return fmt.Errorf("%w: %s=%d clamped to %d", ErrOutOfRange, d, v, c)
	}
	return nil
}

// Nudge moves d by delta and clamps silently.
func (s *State) Nudge(d Dimension, delta int) {
	_ = s.Set(d, s.Get(d)+delta)
}

// Clamped returns a copy with every value forced into range.
func (s State) Clamped() State {
	return State{
		Energy:      Clamp(s.Energy),
		Complexity:  Clamp(s.Complexity),
		Atmosphere:  Clamp(s.Atmosphere),
		RhythmFocus: Clamp(s.RhythmFocus),
	}
}

func (s State) String() string {
	return fmt.Sprintf("energy=%d complexity=%d atmosphere=%d rhythm=%d",
		s.Energy, s.Complexity, s.Atmosphere, s.RhythmFocus)
}

// Clamp forces v into [Min, Max].
func Clamp(v int) int {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return v
}
