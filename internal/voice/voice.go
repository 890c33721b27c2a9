// Package voice holds the procedural synthesizers. Each one builds a
// disposable audio graph, schedules it against the destination's clock and
// forgets it.
package voice

import (
	"errors"
	"fmt"

	"github.com/icco/mej/internal/audio"
)

// ErrTrigger marks a single voice that could not be built or scheduled.
var ErrTrigger = errors.New("voice: trigger failed")

// ID names a synthesizer role.
type ID int

const (
	Kick ID = iota
	Snare
	HiHat
	Clap
	Bass
	Chord
	Melody
	Pad
)

var idNames = [...]string{"kick", "snare", "hihat", "clap", "bass", "chord", "melody", "pad"}

func (id ID) String() string {
	if id < 0 || int(id) >= len(idNames) {
		return fmt.Sprintf("voice(%d)", int(id))
	}
	return idNames[id]
}

// Percussive reports whether id is a drum voice.
func (id ID) Percussive() bool {
	return id >= Kick && id <= Clap
}

var drumTokens = map[string]ID{
	"bd": Kick,
	"sd": Snare,
	"hh": HiHat,
	"cp": Clap,
}

// ParseToken maps a drum mini-notation token to its voice.
func ParseToken(tok string) (ID, bool) {
	id, ok := drumTokens[tok]
	return id, ok
}

// Destination is where voices are scheduled: the audio engine in
// production, a recorder in tests.
type Destination interface {
	audio.Clock
	Play(src audio.Source) error
}

// Params describes one trigger. Offset is relative to the destination's
// current time; zero Duration selects the voice's natural length.
type Params struct {
	Offset   float64
	Duration float64
	Gain     float64
	Wave     audio.WaveType
	Attack   float64
	Cutoff   float64 // low-pass Hz, 0 disables
	Q        float64
	Drive    float64
	Send     float64
	Pan      float64
	Notes    []string
}

// Trigger plays voice id. Any failure, including a panic while building
// the graph, comes back wrapped in ErrTrigger.
func Trigger(dst Destination, id ID, p Params) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s panicked: %v", ErrTrigger, id, r)
		}
	}()

	switch id {
	case Kick:
		err = PlayKick(dst, p)
	case Snare:
		err = PlaySnare(dst, p)
	case HiHat:
		err = PlayHiHat(dst, p)
	case Clap:
		err = PlayClap(dst, p)
	case Bass, Melody, Pad:
		if len(p.Notes) == 0 {
			return fmt.Errorf("%w: %s needs a note", ErrTrigger, id)
		}
		err = PlayTone(dst, id, p.Notes[0], p)
	case Chord:
		err = PlayChord(dst, p.Notes, p)
	default:
		return fmt.Errorf("%w: unknown voice %s", ErrTrigger, id)
	}
	if err != nil && !errors.Is(err, ErrTrigger) {
		err = fmt.Errorf("%w: %s: %v", ErrTrigger, id, err)
	}
	return err
}

func onset(dst Destination, p Params) float64 {
	return dst.Now() + p.Offset
}

// noiseSeed derives a reproducible noise seed from the onset frame.
func noiseSeed(start float64, salt uint64) uint64 {
	return uint64(start*audio.SampleRate)*31 + salt
}
