package voice

import (
	"errors"
	"fmt"
	"math"

	"github.com/icco/mej/internal/audio"
)

const (
	defaultAttack   = 0.005
	defaultToneTime = 0.5
	releaseFloor    = 0.001
)

// PlayTone plays one pitched note with an attack/decay envelope and an
// optional low-pass filter and drive stage.
func PlayTone(dst Destination, role ID, note string, p Params) error {
	freq, err := NoteFrequency(note)
	if err != nil {
		return err
	}

	start := onset(dst, p)
	length := p.Duration
	if length <= 0 {
		length = defaultToneTime
	}
	attack := p.Attack
	if attack <= 0 {
		attack = defaultAttack
	}
	attack = math.Min(attack, length*0.9)

	gain := p.Gain
	if gain <= 0 {
		gain = 0.3
	}

	var node audio.Node = audio.NewOscillator(p.Wave, freq)
	if role == Pad {
		// detuned pair for width
		node = audio.Mix{node, audio.NewOscillator(p.Wave, freq*1.005)}
		gain /= 2
	}
	if p.Cutoff > 0 {
		q := p.Q
		if q <= 0 {
			q = 0.7
		}
		node = audio.NewFilter(node, audio.LowPass, p.Cutoff, q)
	}
	if p.Drive > 0 {
		node = &audio.Shaper{In: node, Drive: p.Drive}
	}

	amp := audio.NewGain(node, 0)
	amp.Gain.SetAt(0, start).
		LinearRampTo(gain, start+attack).
		ExpRampTo(releaseFloor, start+length)

	return dst.Play(audio.Source{
		Node:  amp,
		Start: start,
		Stop:  start + length,
		Pan:   p.Pan,
		Send:  p.Send,
	})
}

// PlayChord plays each note as its own tone. Notes that fail are skipped
// and reported together.
func PlayChord(dst Destination, notes []string, p Params) error {
	if len(notes) == 0 {
		return fmt.Errorf("%w: chord has no notes", ErrTrigger)
	}
	each := p
	if each.Gain > 0 {
		each.Gain = p.Gain / math.Sqrt(float64(len(notes)))
	}

	var errs []error
	for _, n := range notes {
		if err := PlayTone(dst, Chord, n, each); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
