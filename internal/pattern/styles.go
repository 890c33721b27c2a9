package pattern

import (
	"github.com/icco/mej/internal/audio"
	"github.com/icco/mej/internal/preset"
	"github.com/icco/mej/internal/voice"
)

// style is a preset's stylistic signature.
type style struct {
	kick, snare, perc string
	hats              int // hi-hat hits per bar at normal speed

	kickGain, snareGain, hatGain, percGain float64

	// bass tokens: r root, f fifth
	bass       string
	bassOctave int

	// chord tokens: x chord hit
	chords      string
	chordOctave int
	chordSteps  float64

	// melody tokens are scale degrees
	melody       string
	melodyOctave int

	fx map[Role]voice.Params
}

var styles = map[preset.ID]style{
	preset.Starry: {
		kick: "bd ~ ~ ~", snare: "~ ~ sd ~", perc: "~ ~ ~ cp", hats: 8,
		kickGain: 0.6, snareGain: 0.3, hatGain: 0.2, percGain: 0.25,
		bass: "r", bassOctave: 1,
		chords: "x", chordOctave: 3, chordSteps: 16,
		melody: "0 [4 7] [12 7] 4", melodyOctave: 4,
		fx: map[Role]voice.Params{
			RoleDrums:  {Gain: 0.8, Send: 0.2},
			RoleBass:   {Gain: 0.2, Wave: audio.WaveSine, Attack: 0.5, Cutoff: 100},
			RoleChords: {Gain: 0.3, Wave: audio.WaveSine, Attack: 1.0, Send: 0.8},
			RoleMelody: {Gain: 0.25, Wave: audio.WaveTriangle, Attack: 0.02, Send: 0.7},
			RolePad:    {Gain: 0.2, Wave: audio.WaveSine, Attack: 1.5, Send: 0.9},
		},
	},
	preset.Flow: {
		kick: "bd sd ~ sd", snare: "~ sd ~ ~", perc: "cp*4 ~ ~ ~", hats: 16,
		kickGain: 0.7, snareGain: 0.4, hatGain: 0.15, percGain: 0.2,
		bass: "r ~ f ~", bassOctave: 1,
		chords: "x", chordOctave: 3, chordSteps: 14,
		melody: "0 4 7 ~", melodyOctave: 4,
		fx: map[Role]voice.Params{
			RoleDrums:  {Gain: 0.8, Send: 0.1},
			RoleBass:   {Gain: 0.4, Wave: audio.WaveTriangle, Cutoff: 600},
			RoleChords: {Gain: 0.25, Wave: audio.WaveSawtooth, Attack: 0.05, Cutoff: 1500, Send: 0.4},
			RoleMelody: {Gain: 0.25, Wave: audio.WaveTriangle, Send: 0.4},
			RolePad:    {Gain: 0.15, Wave: audio.WaveSine, Attack: 1.0, Send: 0.6},
		},
	},
	preset.Glitch: {
		kick: "bd*2 ~ bd sd", snare: "sd*4 ~ ~ ~", perc: "cp*8 sd*4 ~ ~", hats: 32,
		kickGain: 0.8, snareGain: 0.5, hatGain: 0.15, percGain: 0.25,
		bass: "r ~ f ~", bassOctave: 1,
		chords: "x ~ x ~", chordOctave: 3, chordSteps: 2,
		melody: "[0 2 4 7] [7 4 2 0] [0 2 4 7] [7 4 2 0]", melodyOctave: 5,
		fx: map[Role]voice.Params{
			RoleDrums:  {Gain: 0.8, Send: 0.1},
			RoleBass:   {Gain: 0.5, Wave: audio.WaveSquare, Cutoff: 800},
			RoleChords: {Gain: 0.2, Wave: audio.WaveSquare, Cutoff: 2000, Send: 0.3},
			RoleMelody: {Gain: 0.15, Wave: audio.WaveSquare, Cutoff: 3000, Send: 0.3},
			RolePad:    {Gain: 0.15, Wave: audio.WaveSine, Attack: 0.5, Send: 0.5},
		},
	},
	preset.Demon: {
		kick: "bd bd bd bd", snare: "sd ~ sd ~", perc: "cp*4 bd*4 ~ ~", hats: 16,
		kickGain: 0.9, snareGain: 0.6, hatGain: 0.2, percGain: 0.3,
		bass: "r ~ r ~", bassOctave: 1,
		chords: "x ~ ~ ~ x ~ ~ ~", chordOctave: 3, chordSteps: 6,
		melody: "0 3 6 ~", melodyOctave: 3,
		fx: map[Role]voice.Params{
			RoleDrums:  {Gain: 0.9, Send: 0.05, Drive: 2},
			RoleBass:   {Gain: 0.8, Wave: audio.WaveSawtooth, Cutoff: 400, Drive: 4},
			RoleChords: {Gain: 0.25, Wave: audio.WaveSawtooth, Cutoff: 1200, Drive: 3, Send: 0.2},
			RoleMelody: {Gain: 0.2, Wave: audio.WaveSquare, Drive: 3, Send: 0.2},
			RolePad:    {Gain: 0.15, Wave: audio.WaveSawtooth, Attack: 0.5, Cutoff: 600, Send: 0.3},
		},
	},
}

func styleFor(id preset.ID) style {
	s, ok := styles[id]
	if !ok {
		return styles[preset.Default]
	}
	return s
}

func (s style) fxCopy() map[Role]voice.Params {
	out := make(map[Role]voice.Params, len(s.fx))
	for r, p := range s.fx {
		out[r] = p
	}
	return out
}
