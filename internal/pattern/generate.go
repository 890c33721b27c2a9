package pattern

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/icco/mej/internal/mood"
	"github.com/icco/mej/internal/preset"
	"github.com/icco/mej/internal/voice"
)

const (
	maxHatsPerBar   = 32
	echoDelaySteps  = 3
	echoVelocity    = 0.4
	polyrhythmLevel = 0.6
	sparseCycle     = "bd ~ ~ ~"
)

// section gain overrides and multipliers
var (
	introGains  = map[Role]float64{RoleDrums: 0.4, RoleBass: 0.3, RoleChords: 0.2}
	outroGains  = map[Role]float64{RoleDrums: 0.2, RoleChords: 0.2}
	chorusBoost = map[Role]float64{RoleDrums: 1.2, RoleBass: 1.3, RoleChords: 1.4, RoleMelody: 1.5, RolePad: 1.1}
)

// Standard is the built-in generator: the preset's style shaped by the
// derived mood and the arrangement section.
func Standard(in Input, rng *rand.Rand) (*Pattern, error) {
	prof := in.Profile
	st := styleFor(prof.ID)
	d := in.Derived
	a := in.Arrangement

	bars := len(prof.Progression)
	if bars == 0 {
		return nil, fmt.Errorf("preset %s has no progression", prof.ID)
	}
	length := bars * StepsPerBar

	p := &Pattern{
		Preset:  prof.ID,
		Section: a.Section,
		Tempo:   prof.Tempo.At(float64(in.Mood.Energy)/100) * a.speed(),
		Length:  length,
		Swing:   d.Swing,
		Drums:   drumBar(st, d).Repeat(bars),
		Bass:    NewLine(length),
		Chords:  NewLine(length),
		Melody:  NewLine(length),
		FX:      st.fxCopy(),
	}

	tonic, err := voice.MIDI(prof.RootNote(st.melodyOctave))
	if err != nil {
		return nil, fmt.Errorf("melody tonic: %w", err)
	}

	for bar := range bars {
		idx := ((bar+a.ChordCursor)%bars + bars) % bars
		chord := prof.Progression[idx]
		if err := addHarmony(p, st, in, chord, bar*StepsPerBar); err != nil {
			return nil, err
		}
		addMelody(p, st, in, tonic, bar*StepsPerBar, rng)
	}

	degrade(p.Drums, d.DegradeProbability, rng, func(i int, tr Trigger) bool {
		return tr.Voice == voice.Kick && i%StepsPerBar == 0
	})
	degrade(p.Melody, d.DegradeProbability, rng, nil)

	applyMood(p, d)
	arrange(p, a.Section, bars, rng)
	return p, nil
}

func drumBar(st style, d mood.Derived) Line {
	var line Line
	if d.Euclidean {
		line = EuclidLine(voice.Kick, min(d.StepDensity, d.Pulse), d.Pulse, StepsPerBar, st.kickGain)
	} else {
		line = CompileDrums(st.kick, StepsPerBar, st.kickGain)
	}

	hats := int(math.Round(float64(st.hats) * d.SpeedMultiplier))
	hats = max(1, min(hats, maxHatsPerBar))
	line.Overlay(CompileDrums(fmt.Sprintf("hh*%d", hats), StepsPerBar, st.hatGain))

	if d.LayerCount >= 2 {
		line.Overlay(CompileDrums(st.snare, StepsPerBar, st.snareGain))
	}
	if d.LayerCount >= 3 {
		line.Overlay(CompileDrums(st.perc, StepsPerBar, st.percGain))
	}
	if d.Polyrhythm {
		line.Overlay(CompileDrums(fmt.Sprintf("cp*%d", d.Subdivision), StepsPerBar, st.percGain*polyrhythmLevel))
	}
	return line
}

func addHarmony(p *Pattern, st style, in Input, chord string, offset int) error {
	d := in.Derived

	low, err := voice.ChordMIDI(chord, st.bassOctave)
	if err != nil {
		return fmt.Errorf("bass for %q: %w", chord, err)
	}
	root := low[0]
	notes, err := voice.ChordNotes(chord, st.chordOctave)
	if err != nil {
		return fmt.Errorf("voicing %q: %w", chord, err)
	}

	for _, ev := range Place(st.bass, StepsPerBar) {
		n := root
		switch ev.Token {
		case "r":
		case "f":
			n += 7
		default:
			continue
		}
		p.Bass.Add(offset+ev.Step, Trigger{
			Voice:        voice.Bass,
			Velocity:     1,
			Articulation: ev.Span * (0.5 + d.Decay),
			Notes:        []string{voice.NoteName(n)},
		})
	}

	for _, ev := range Place(st.chords, StepsPerBar) {
		if ev.Token != "x" {
			continue
		}
		p.Chords.Add(offset+ev.Step, Trigger{
			Voice:        voice.Chord,
			Velocity:     1,
			Articulation: st.chordSteps,
			Notes:        notes,
		})
	}

	if d.PadLayer || in.Arrangement.Section == Chorus {
		p.Chords.Add(offset, Trigger{
			Voice:        voice.Pad,
			Velocity:     1,
			Articulation: StepsPerBar,
			Notes:        []string{voice.NoteName(root + 12)},
		})
	}
	return nil
}

func addMelody(p *Pattern, st style, in Input, tonic, offset int, rng *rand.Rand) {
	d := in.Derived
	scale := in.Profile.Scale
	vary := d.Variation*0.3 + math.Min(in.Arrangement.Stage, 1)*0.1

	var placed []Event
	for _, ev := range Place(st.melody, StepsPerBar) {
		deg, err := strconv.Atoi(ev.Token)
		if err != nil {
			continue
		}
		if rng.Float64() < vary {
			deg = chooseDegree(scale, d.Weighted, rng)
		}
		ev.Token = voice.NoteName(scale.Degree(tonic, deg))
		placed = append(placed, ev)
		p.Melody.Add(offset+ev.Step, Trigger{
			Voice:        voice.Melody,
			Velocity:     1,
			Articulation: ev.Span * (0.5 + d.Release/2),
			Notes:        []string{ev.Token},
		})
	}

	if !d.Effects {
		return
	}
	for _, ev := range placed {
		at := offset + (ev.Step+echoDelaySteps)%StepsPerBar
		if !p.Melody[at].Rest() {
			continue
		}
		p.Melody.Add(at, Trigger{
			Voice:        voice.Melody,
			Velocity:     echoVelocity,
			Articulation: ev.Span,
			Notes:        []string{ev.Token},
		})
	}
}

// chooseDegree picks a scale degree uniformly, or biased toward the root
// and fifth when weighted.
func chooseDegree(scale preset.Scale, weighted bool, rng *rand.Rand) int {
	n := len(scale.Intervals)
	if !weighted {
		return rng.IntN(n)
	}
	weights := make([]int, n)
	total := 0
	for i, iv := range scale.Intervals {
		switch iv {
		case 0:
			weights[i] = 4
		case 7:
			weights[i] = 3
		default:
			weights[i] = 1
		}
		total += weights[i]
	}
	r := rng.IntN(total)
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return 0
}

// degrade drops triggers with probability prob unless keep says otherwise.
func degrade(l Line, prob float64, rng *rand.Rand, keep func(i int, tr Trigger) bool) {
	if prob <= 0 {
		return
	}
	for i := range l {
		kept := l[i].Triggers[:0]
		for _, tr := range l[i].Triggers {
			if (keep != nil && keep(i, tr)) || rng.Float64() >= prob {
				kept = append(kept, tr)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		l[i].Triggers = kept
	}
}

func applyMood(p *Pattern, d mood.Derived) {
	for role, fx := range p.FX {
		fx.Gain *= d.VoiceGain
		switch role {
		case RoleDrums:
			fx.Send = math.Max(fx.Send, d.ReverbAmount*0.2)
		case RoleChords, RoleMelody, RolePad:
			fx.Send = math.Max(fx.Send, d.ReverbAmount)
			if d.LowPass && (fx.Cutoff == 0 || fx.Cutoff > d.FilterCutoff) {
				fx.Cutoff = d.FilterCutoff
				fx.Q = d.FilterQ
			}
		}
		p.FX[role] = fx
	}
}

func arrange(p *Pattern, s Section, bars int, rng *rand.Rand) {
	if s.Sparse() {
		p.Drums = CompileDrums(sparseCycle, StepsPerBar, 1).Repeat(bars)
		p.Melody = NewLine(p.Length)
	}
	switch s {
	case Intro:
		setGains(p, introGains)
	case Outro:
		degrade(p.Drums, 0.5, rng, func(i int, _ Trigger) bool { return i == 0 })
		p.Bass = NewLine(p.Length)
		setGains(p, outroGains)
	case Chorus:
		for role, boost := range chorusBoost {
			fx := p.FX[role]
			fx.Gain = math.Min(fx.Gain*boost, 1)
			p.FX[role] = fx
		}
	}
}

func setGains(p *Pattern, gains map[Role]float64) {
	for role, g := range gains {
		fx := p.FX[role]
		fx.Gain = g
		p.FX[role] = fx
	}
}
