// Package pattern builds the declarative step sequences the scheduler walks.
//
// A Pattern is four parallel Lines (drums, bass, chords, melody) of equal
// length plus per-role voice parameters. Patterns are built whole by a
// Library and never mutated once handed out; changes produce a new Pattern.
package pattern

import (
	"fmt"

	"github.com/icco/mej/internal/preset"
	"github.com/icco/mej/internal/voice"
)

// StepsPerBar is the sixteenth-note grid of one 4/4 bar.
const StepsPerBar = 16

// Role groups voices that share effect parameters.
type Role int

const (
	RoleDrums Role = iota
	RoleBass
	RoleChords
	RoleMelody
	RolePad
)

func (r Role) String() string {
	switch r {
	case RoleDrums:
		return "drums"
	case RoleBass:
		return "bass"
	case RoleChords:
		return "chords"
	case RoleMelody:
		return "melody"
	case RolePad:
		return "pad"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// RoleOf returns the role whose parameters voice id uses.
func RoleOf(id voice.ID) Role {
	switch {
	case id.Percussive():
		return RoleDrums
	case id == voice.Bass:
		return RoleBass
	case id == voice.Pad:
		return RolePad
	case id == voice.Melody:
		return RoleMelody
	}
	return RoleChords
}

// Trigger is one voice hit within a step. Articulation is the sounding
// length in steps; zero leaves the voice's natural length.
type Trigger struct {
	Voice        voice.ID
	Velocity     float64
	Articulation float64
	Notes        []string
}

// Step is a set of triggers. An empty step is a rest.
type Step struct {
	Triggers []Trigger
}

// Rest reports whether the step triggers nothing.
func (s Step) Rest() bool {
	return len(s.Triggers) == 0
}

// Line is one role's full cycle of steps.
type Line []Step

// NewLine returns n rests.
func NewLine(n int) Line {
	return make(Line, n)
}

// Add appends tr to step i, wrapping i into range.
func (l Line) Add(i int, tr Trigger) {
	if len(l) == 0 {
		return
	}
	i %= len(l)
	if i < 0 {
		i += len(l)
	}
	l[i].Triggers = append(l[i].Triggers, tr)
}

// Overlay adds every trigger of o onto l step by step.
func (l Line) Overlay(o Line) {
	for i := range min(len(l), len(o)) {
		l[i].Triggers = append(l[i].Triggers, o[i].Triggers...)
	}
}

// Hits counts triggers across the line.
func (l Line) Hits() int {
	n := 0
	for _, s := range l {
		n += len(s.Triggers)
	}
	return n
}

// Clone deep-copies the line.
func (l Line) Clone() Line {
	out := make(Line, len(l))
	for i, s := range l {
		if len(s.Triggers) > 0 {
			out[i].Triggers = append([]Trigger(nil), s.Triggers...)
		}
	}
	return out
}

// Repeat returns l concatenated times times.
func (l Line) Repeat(times int) Line {
	out := make(Line, 0, len(l)*times)
	for range times {
		out = append(out, l.Clone()...)
	}
	return out
}

// Pattern is the complete arrangement the scheduler and conductor play.
type Pattern struct {
	Preset  preset.ID
	Section Section
	Tempo   float64 // BPM
	Length  int     // steps
	Swing   bool

	Drums  Line
	Bass   Line
	Chords Line
	Melody Line

	FX map[Role]voice.Params
}

// Lines returns the four lines in a fixed order.
func (p *Pattern) Lines() []Line {
	return []Line{p.Drums, p.Bass, p.Chords, p.Melody}
}

// Validate checks that every line matches Length.
func (p *Pattern) Validate() error {
	if p == nil {
		return fmt.Errorf("nil pattern")
	}
	if p.Length <= 0 {
		return fmt.Errorf("pattern length %d", p.Length)
	}
	if p.Tempo <= 0 {
		return fmt.Errorf("pattern tempo %.1f", p.Tempo)
	}
	for i, l := range p.Lines() {
		if len(l) != p.Length {
			return fmt.Errorf("line %d has %d steps, want %d", i, len(l), p.Length)
		}
	}
	return nil
}

// Params resolves the voice parameters for tr: the role's effect settings
// scaled by the trigger's velocity, with durations in seconds for the
// given step interval.
func (p *Pattern) Params(tr Trigger, interval float64) voice.Params {
	fx := p.FX[RoleOf(tr.Voice)]
	gain := fx.Gain
	if gain == 0 {
		gain = 1
	}
	if tr.Velocity > 0 {
		gain *= tr.Velocity
	}
	fx.Gain = gain
	fx.Notes = tr.Notes
	if tr.Articulation > 0 {
		fx.Duration = tr.Articulation * interval
	}
	return fx
}
