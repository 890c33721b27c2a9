// Package sched is the step scheduler: it walks a pattern on the loop at
// sixteenth-note resolution and triggers voices against the audio clock.
package sched

import (
	"fmt"
	"log"
	"time"

	"github.com/icco/mej/internal/loop"
	"github.com/icco/mej/internal/pattern"
	"github.com/icco/mej/internal/voice"
)

const (
	// SubdivisionsPerBeat fixes the grid at sixteenth notes.
	SubdivisionsPerBeat = 4
	// Stagger separates repeated hits of one voice within a step.
	Stagger = 0.08
)

// Cursor is the scheduler's position. Step is the index of the next step
// to play.
type Cursor struct {
	Step     int
	Interval float64 // seconds
	Length   int
}

// Scheduler plays a pattern. Every method must be called on the loop.
type Scheduler struct {
	loop    *loop.Loop
	dst     voice.Destination
	logger  *log.Logger
	onError func(error)

	pat       *pattern.Pattern
	tempo     float64
	position  int
	onStep    func(int)
	task      *loop.Task
	triggered uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for contained failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithErrorHandler receives every contained trigger or listener failure.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// New returns a stopped scheduler playing into dst.
func New(l *loop.Loop, dst voice.Destination, opts ...Option) *Scheduler {
	s := &Scheduler{
		loop:   l,
		dst:    dst,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the step length in seconds at bpm.
func Interval(bpm float64) float64 {
	return 60 / bpm / SubdivisionsPerBeat
}

// Start plays pat from step 0 at tempo, calling onStep with each step
// index before that step's drums are triggered. A running scheduler is
// stopped first. The first step plays immediately.
func (s *Scheduler) Start(tempo float64, pat *pattern.Pattern, onStep func(int)) error {
	s.Stop()
	if tempo <= 0 {
		return fmt.Errorf("sched: invalid tempo %.2f", tempo)
	}
	if pat == nil || pat.Length <= 0 {
		return fmt.Errorf("sched: empty pattern")
	}

	s.pat = pat
	s.tempo = tempo
	s.onStep = onStep
	s.position = 0
	s.arm()
	s.tick()
	return nil
}

// Stop halts stepping. It is idempotent.
func (s *Scheduler) Stop() {
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
	}
}

// Running reports whether a tick stream is armed.
func (s *Scheduler) Running() bool {
	return s.task != nil
}

// Swap replaces the pattern without moving the cursor. The next step is
// the cursor modulo the new length.
func (s *Scheduler) Swap(pat *pattern.Pattern) {
	if pat == nil || pat.Length <= 0 {
		return
	}
	s.pat = pat
}

// SetTempo re-arms the tick stream at a new tempo, keeping the cursor.
func (s *Scheduler) SetTempo(bpm float64) {
	if bpm <= 0 || bpm == s.tempo {
		return
	}
	s.tempo = bpm
	if s.task != nil {
		s.task.Cancel()
		s.arm()
	}
}

// Tempo is the current BPM.
func (s *Scheduler) Tempo() float64 {
	return s.tempo
}

// Pattern is the pattern being played.
func (s *Scheduler) Pattern() *pattern.Pattern {
	return s.pat
}

// Cursor reports the scheduler position.
func (s *Scheduler) Cursor() Cursor {
	c := Cursor{Interval: s.interval()}
	if s.pat != nil {
		c.Length = s.pat.Length
		c.Step = s.position % s.pat.Length
	}
	return c
}

// Triggered counts voice triggers dispatched since creation.
func (s *Scheduler) Triggered() uint64 {
	return s.triggered
}

func (s *Scheduler) interval() float64 {
	if s.tempo <= 0 {
		return 0
	}
	return Interval(s.tempo)
}

func (s *Scheduler) arm() {
	d := time.Duration(s.interval() * float64(time.Second))
	s.task = s.loop.Every(d, s.tick)
}

func (s *Scheduler) tick() {
	pat := s.pat
	idx := s.position % pat.Length
	s.position++

	s.notify(idx)
	// the listener may have stopped or swapped
	if s.task == nil {
		return
	}
	if s.pat != pat {
		idx %= s.pat.Length
	}
	s.Dispatch(s.pat.Drums[idx], idx)
}

func (s *Scheduler) notify(idx int) {
	if s.onStep == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.report(fmt.Errorf("%w: step listener panicked at %d: %v", voice.ErrTrigger, idx, r))
		}
	}()
	s.onStep(idx)
}

// Dispatch triggers every voice in step. Repeats of one voice are staggered
// and odd steps are delayed by a third of a step when the pattern swings.
// Failures are contained per trigger.
func (s *Scheduler) Dispatch(step pattern.Step, idx int) {
	if step.Rest() || s.pat == nil {
		return
	}
	interval := s.interval()
	var swing float64
	if s.pat.Swing && idx%2 == 1 {
		swing = interval / 3
	}

	seen := make(map[voice.ID]int, len(step.Triggers))
	for _, tr := range step.Triggers {
		k := seen[tr.Voice]
		seen[tr.Voice]++

		p := s.pat.Params(tr, interval)
		p.Offset += swing + float64(k)*Stagger
		s.triggered++
		if err := voice.Trigger(s.dst, tr.Voice, p); err != nil {
			s.report(err)
		}
	}
}

func (s *Scheduler) report(err error) {
	s.logger.Printf("sched: %v", err)
	if s.onError != nil {
		s.onError(err)
	}
}
