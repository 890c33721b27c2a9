// Package session wires the engine, the event loop, the conductor and the
// recorder into one playable unit, either against the wall clock for a
// live device or in virtual time for offline rendering.
package session

import (
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/icco/mej/internal/audio"
	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/loop"
	"github.com/icco/mej/internal/preset"
	"github.com/icco/mej/internal/record"
)

// renderBlock is the offline step in frames, about 3ms.
const renderBlock = 128

// Options configures a session.
type Options struct {
	Preset        preset.ID
	Mode          conductor.Mode
	Seed          uint64 // 0 seeds from the wall clock
	Volume        float64
	Logger        *log.Logger
	OnError       func(error)
	Subscribers   []func(conductor.Event)
	TrackDuration func(*rand.Rand) time.Duration
}

// Session is a wired engine.
type Session struct {
	Engine    *audio.Engine
	Loop      *loop.Loop
	Conductor *conductor.Controller
	Recorder  *record.Recorder
}

// NewRand returns the generator for seed; 0 picks one from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x6d656a))
}

// New builds a session on clock. Nothing plays until the conductor is
// told to.
func New(clock clockwork.Clock, o Options) (*Session, error) {
	logger := o.Logger
	if logger == nil {
		logger = log.Default()
	}

	eng := audio.NewEngine()
	if o.Volume > 0 {
		eng.SetVolume(o.Volume)
	}
	rec := record.New()
	eng.AddTap(rec)

	lp := loop.New(clock, loop.WithLogger(logger))
	opts := []conductor.Option{
		conductor.WithRand(NewRand(o.Seed)),
		conductor.WithRecorder(rec),
		conductor.WithLogger(logger),
		conductor.WithMode(o.Mode),
		conductor.WithPreset(o.Preset),
	}
	if o.OnError != nil {
		opts = append(opts, conductor.WithErrorHandler(o.OnError))
	}
	if o.TrackDuration != nil {
		opts = append(opts, conductor.WithTrackDuration(o.TrackDuration))
	}

	ctl, err := conductor.New(eng, lp, opts...)
	if err != nil {
		return nil, err
	}
	for _, fn := range o.Subscribers {
		ctl.Subscribe(fn)
	}

	return &Session{Engine: eng, Loop: lp, Conductor: ctl, Recorder: rec}, nil
}

// Render plays d of audio in virtual time and returns it as one take.
// Track-mode takes are still delivered to subscribers as they complete.
func Render(o Options, d time.Duration) (*record.Take, error) {
	if d <= 0 {
		return nil, fmt.Errorf("render duration must be positive, got %s", d)
	}
	clock := clockwork.NewFakeClock()
	s, err := New(clock, o)
	if err != nil {
		return nil, err
	}

	all := record.New(record.WithMaxDuration(d + time.Second))
	s.Engine.AddTap(all)
	if err := all.StartCapture(clock.Now()); err != nil {
		return nil, err
	}

	total := int(d.Seconds() * audio.SampleRate)
	buf := make([][2]float64, renderBlock)
	start := clock.Now()

	s.Conductor.Play()
	for rendered := 0; rendered < total; {
		n := min(renderBlock, total-rendered)
		s.Engine.Render(buf[:n])
		rendered += n

		target := time.Duration(rendered) * time.Second / audio.SampleRate
		if err := s.Loop.Advance(start.Add(target).Sub(clock.Now())); err != nil {
			return nil, err
		}
	}
	s.Conductor.Pause()

	return all.StopCapture()
}
