// Package conductor is the macro-structure controller. It owns the mood,
// the preset and the Continuous/Track mode state machine, rebuilds patterns
// as they change and keeps every timer it arms in one teardown list.
//
// All exported methods are safe to call from any goroutine except from
// inside step listeners or event subscribers, which already run on the
// loop.
package conductor

import (
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/icco/mej/internal/audio"
	"github.com/icco/mej/internal/loop"
	"github.com/icco/mej/internal/mood"
	"github.com/icco/mej/internal/pattern"
	"github.com/icco/mej/internal/preset"
	"github.com/icco/mej/internal/record"
	"github.com/icco/mej/internal/sched"
	"github.com/icco/mej/internal/voice"
)

// Mode selects how the piece evolves.
type Mode int

const (
	Continuous Mode = iota
	Track
)

func (m Mode) String() string {
	if m == Track {
		return "track"
	}
	return "continuous"
}

// ParseMode accepts "continuous" or "track".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "continuous", "":
		return Continuous, nil
	case "track":
		return Track, nil
	}
	return Continuous, fmt.Errorf("unknown mode %q", s)
}

// Status is the playback state.
type Status int

const (
	Idle Status = iota
	Playing
	Paused
	Complete
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Complete:
		return "complete"
	}
	return "idle"
}

// Speed multipliers offered to the listener.
const (
	SpeedSlow = 0.5
	SpeedMid  = 1.0
	SpeedFast = 1.5
)

// Recorder is the capture collaborator driven in Track mode.
type Recorder interface {
	StartCapture(at time.Time) error
	StopCapture() (*record.Take, error)
}

// TrackState exists only while a track is running.
type TrackState struct {
	Sections         []pattern.Section
	Index            int
	StepsIntoSection int
	Started          time.Time
	Duration         time.Duration

	advanced int
}

// Section is the current section.
func (t *TrackState) Section() pattern.Section {
	return t.Sections[t.Index]
}

// EvolutionState exists only in Continuous mode.
type EvolutionState struct {
	Stage       float64
	ChordCursor int
	Ticks       int
}

// Snapshot is a copy of the controller state for display.
type Snapshot struct {
	Mode     Mode
	Status   Status
	Preset   preset.ID
	Mood     mood.State
	Speed    float64
	Tempo    float64
	Cursor   sched.Cursor
	Section  pattern.Section
	Elapsed  time.Duration
	Duration time.Duration
	Stage    float64
}

// Controller is the macro-structure controller.
type Controller struct {
	loop    *loop.Loop
	sched   *sched.Scheduler
	lib     *pattern.Library
	rng     *rand.Rand
	rec     Recorder
	logger  *log.Logger
	onError func(error)

	driftPeriod   time.Duration
	pollPeriod    time.Duration
	restartPause  time.Duration
	switchChance  float64
	chordShift    int
	driftAmount   int
	trackDuration func(*rand.Rand) time.Duration

	mode      Mode
	status    Status
	preset    preset.ID
	mood      mood.State
	speed     float64
	track     *TrackState
	evo       *EvolutionState
	tasks     []*loop.Task
	capturing bool

	stepListeners []func(int)
	subscribers   []func(Event)
}

// Option configures a Controller.
type Option func(*Controller)

// WithRand sets the random source for generation and drift.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// WithLibrary replaces the pattern library.
func WithLibrary(l *pattern.Library) Option {
	return func(c *Controller) { c.lib = l }
}

// WithRecorder sets the collaborator that captures Track takes.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.rec = r }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMode selects the starting mode.
func WithMode(m Mode) Option {
	return func(c *Controller) { c.mode = m }
}

// WithPreset selects the starting preset and its baseline mood.
func WithPreset(id preset.ID) Option {
	return func(c *Controller) {
		p := preset.Lookup(id)
		c.preset = p.ID
		c.mood = p.Baseline
	}
}

// WithErrorHandler receives every contained failure.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Controller) { c.onError = fn }
}

// WithDriftPeriod sets the Continuous drift tick.
func WithDriftPeriod(d time.Duration) Option {
	return func(c *Controller) { c.driftPeriod = d }
}

// WithPresetSwitchChance sets the per-tick chance of a Continuous preset
// change.
func WithPresetSwitchChance(p float64) Option {
	return func(c *Controller) { c.switchChance = p }
}

// WithTrackDuration replaces the track length sampler.
func WithTrackDuration(fn func(*rand.Rand) time.Duration) Option {
	return func(c *Controller) { c.trackDuration = fn }
}

// DefaultTrackDuration is uniform between three and five minutes, with a
// one in ten chance of a seven minute track.
func DefaultTrackDuration(rng *rand.Rand) time.Duration {
	if rng.Float64() < 0.1 {
		return 7 * time.Minute
	}
	return 3*time.Minute + time.Duration(rng.Float64()*float64(2*time.Minute))
}

// New builds a controller playing into dst on lp. dst is the clock source;
// without it nothing can be scheduled and New fails with audio.ErrInit.
func New(dst voice.Destination, lp *loop.Loop, opts ...Option) (*Controller, error) {
	if dst == nil {
		return nil, fmt.Errorf("%w: no clock source", audio.ErrInit)
	}
	if lp == nil {
		return nil, fmt.Errorf("%w: no event loop", audio.ErrInit)
	}

	flow := preset.Lookup(preset.Default)
	c := &Controller{
		loop:          lp,
		logger:        log.Default(),
		driftPeriod:   4 * time.Second,
		pollPeriod:    time.Second,
		restartPause:  2 * time.Second,
		switchChance:  0.01,
		chordShift:    8,
		driftAmount:   5,
		trackDuration: DefaultTrackDuration,
		preset:        flow.ID,
		mood:          flow.Baseline,
		speed:         SpeedMid,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d656a))
	}
	if c.lib == nil {
		c.lib = pattern.NewLibrary()
	}
	c.sched = sched.New(lp, dst, sched.WithLogger(c.logger), sched.WithErrorHandler(c.fail))
	return c, nil
}

// OnStep registers a per-step listener. Listeners run on the loop and
// must not block or call back into the controller.
func (c *Controller) OnStep(fn func(int)) {
	c.loop.Do(func() { c.stepListeners = append(c.stepListeners, fn) })
}

// Subscribe registers an event listener with the same rules as OnStep.
func (c *Controller) Subscribe(fn func(Event)) {
	c.loop.Do(func() { c.subscribers = append(c.subscribers, fn) })
}

// Play starts playback in the current mode. It is a no-op while playing.
func (c *Controller) Play() {
	c.loop.Do(func() {
		if c.status == Playing || c.status == Complete {
			return
		}
		c.status = Playing
		c.emit(Event{Kind: EventPlay})
		c.startMode()
	})
}

// Pause stops playback and cancels every pending timer. It is idempotent.
func (c *Controller) Pause() {
	c.loop.Do(func() {
		if c.status != Playing && c.status != Complete {
			return
		}
		c.teardown()
		c.status = Paused
		c.emit(Event{Kind: EventPause})
	})
}

// SkipToNext regenerates immediately. In Continuous mode the new pattern
// is swapped in without moving the cursor; in Track mode the current take
// is finished and a new track starts.
func (c *Controller) SkipToNext() {
	c.loop.Do(func() {
		if c.status != Playing {
			return
		}
		switch c.mode {
		case Continuous:
			c.evo.ChordCursor++
			c.swap()
		case Track:
			c.teardown()
			c.startTrack()
		}
	})
}

// SetMode switches mode, discarding the outgoing mode's state.
func (c *Controller) SetMode(m Mode) {
	c.loop.Do(func() {
		if m == c.mode {
			return
		}
		playing := c.status == Playing || c.status == Complete
		c.teardown()
		c.mode = m
		c.emit(Event{Kind: EventMode})
		if playing {
			c.status = Playing
			c.startMode()
		}
	})
}

// SetPreset selects a preset, applies its baseline mood and restarts the
// pattern from step 0.
func (c *Controller) SetPreset(id preset.ID) {
	c.loop.Do(func() {
		c.applyPreset(id)
	})
}

// SetPresetName is SetPreset by name. Unknown names select the default
// preset and are reported.
func (c *Controller) SetPresetName(name string) error {
	id, ok := preset.Parse(name)
	c.SetPreset(id)
	if !ok {
		return fmt.Errorf("unknown preset %q, using %s", name, id)
	}
	return nil
}

// SetMood writes one mood dimension. Out of range values are clamped and
// reported with mood.ErrOutOfRange. While playing the pattern is rebuilt
// and swapped without moving the cursor.
func (c *Controller) SetMood(d mood.Dimension, v int) error {
	var err error
	c.loop.Do(func() {
		err = c.mood.Set(d, v)
		c.swap()
	})
	return err
}

// SetEnergy sets the energy knob.
func (c *Controller) SetEnergy(v int) error {
	return c.SetMood(mood.Energy, v)
}

// SetComplexity sets the complexity knob.
func (c *Controller) SetComplexity(v int) error {
	return c.SetMood(mood.Complexity, v)
}

// SetAtmosphere sets the atmosphere knob.
func (c *Controller) SetAtmosphere(v int) error {
	return c.SetMood(mood.Atmosphere, v)
}

// SetRhythmFocus sets the rhythm focus knob.
func (c *Controller) SetRhythmFocus(v int) error {
	return c.SetMood(mood.RhythmFocus, v)
}

// SetSpeed sets the listener tempo multiplier.
func (c *Controller) SetSpeed(mult float64) {
	c.loop.Do(func() {
		if mult <= 0 {
			mult = SpeedMid
		}
		c.speed = mult
		c.swap()
	})
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	var s Snapshot
	c.loop.Do(func() {
		s = Snapshot{
			Mode:   c.mode,
			Status: c.status,
			Preset: c.preset,
			Mood:   c.mood,
			Speed:  c.speed,
			Tempo:  c.sched.Tempo(),
			Cursor: c.sched.Cursor(),
		}
		if c.track != nil {
			s.Section = c.track.Section()
			s.Elapsed = c.loop.Now().Sub(c.track.Started)
			s.Duration = c.track.Duration
		}
		if c.evo != nil {
			s.Stage = c.evo.Stage
		}
	})
	return s
}

// startMode builds fresh state for the current mode and starts playing.
func (c *Controller) startMode() {
	switch c.mode {
	case Continuous:
		c.startContinuous()
	case Track:
		c.startTrack()
	}
}

// teardown cancels every timer, stops the scheduler, closes any open take
// and drops mode state.
func (c *Controller) teardown() {
	c.sched.Stop()
	for _, t := range c.tasks {
		t.Cancel()
	}
	c.tasks = nil
	c.finishTake(false)
	c.track = nil
	c.evo = nil
}

func (c *Controller) arrangement() pattern.Arrangement {
	a := pattern.Arrangement{Speed: c.speed}
	if c.track != nil {
		a.Section = c.track.Section()
	}
	if c.evo != nil {
		a.ChordCursor = c.evo.ChordCursor
		a.Stage = c.evo.Stage
	}
	return a
}

func (c *Controller) generate() *pattern.Pattern {
	pat, err := c.lib.Generate(c.preset, c.mood, c.arrangement(), c.rng)
	if err != nil {
		c.fail(err)
		c.emit(Event{Kind: EventFallback, Err: err})
	}
	return pat
}

// restart plays a freshly generated pattern from step 0.
func (c *Controller) restart() {
	pat := c.generate()
	if err := c.sched.Start(pat.Tempo, pat, c.onStep); err != nil {
		c.fail(err)
	}
}

// swap replaces the playing pattern without moving the cursor.
func (c *Controller) swap() {
	if c.status != Playing || !c.sched.Running() {
		return
	}
	pat := c.generate()
	c.sched.Swap(pat)
	c.sched.SetTempo(pat.Tempo)
}

func (c *Controller) applyPreset(id preset.ID) {
	p := preset.Lookup(id)
	c.preset = p.ID
	c.mood = p.Baseline
	c.emit(Event{Kind: EventPreset})
	if c.status == Playing && c.sched.Running() {
		c.restart()
	}
}

func (c *Controller) onStep(idx int) {
	pat := c.sched.Pattern()
	if c.track != nil {
		c.track.StepsIntoSection++
	}
	c.sched.Dispatch(pat.Bass[idx], idx)
	c.sched.Dispatch(pat.Chords[idx], idx)
	c.sched.Dispatch(pat.Melody[idx], idx)
	for _, fn := range c.stepListeners {
		fn(idx)
	}
}

func (c *Controller) finishTake(complete bool) {
	if !c.capturing {
		return
	}
	c.capturing = false
	take, err := c.rec.StopCapture()
	if err != nil {
		c.fail(fmt.Errorf("stop capture: %w", err))
		return
	}
	ev := Event{Kind: EventTake, Take: take, Complete: complete}
	if c.track != nil {
		ev.Duration = c.track.Duration
	}
	c.emit(ev)
}

func (c *Controller) emit(ev Event) {
	ev.At = c.loop.Now()
	ev.Mode = c.mode
	ev.Preset = c.preset
	ev.Mood = c.mood
	if c.track != nil {
		ev.Section = c.track.Section()
		if ev.Duration == 0 {
			ev.Duration = c.track.Duration
		}
	}
	for _, fn := range c.subscribers {
		fn(ev)
	}
}

func (c *Controller) fail(err error) {
	c.logger.Printf("conductor: %v", err)
	if c.onError != nil {
		c.onError(err)
	}
}
