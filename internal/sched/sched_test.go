package sched

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/icco/mej/internal/audio"
	"github.com/icco/mej/internal/loop"
	"github.com/icco/mej/internal/pattern"
	"github.com/icco/mej/internal/voice"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDest struct {
	clock   clockwork.Clock
	epoch   time.Time
	sources []audio.Source
	fail    error
}

func (d *fakeDest) Now() float64 {
	return d.clock.Now().Sub(d.epoch).Seconds()
}

func (d *fakeDest) Play(src audio.Source) error {
	if d.fail != nil {
		return d.fail
	}
	d.sources = append(d.sources, src)
	return nil
}

func setup(t *testing.T, opts ...Option) (*loop.Loop, *fakeDest, *Scheduler) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	l := loop.New(clock)
	dst := &fakeDest{clock: clock, epoch: clock.Now()}
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	return l, dst, New(l, dst, opts...)
}

func drumPattern(src string) *pattern.Pattern {
	return &pattern.Pattern{
		Tempo:  120,
		Length: pattern.StepsPerBar,
		Drums:  pattern.CompileDrums(src, pattern.StepsPerBar, 1),
		Bass:   pattern.NewLine(pattern.StepsPerBar),
		Chords: pattern.NewLine(pattern.StepsPerBar),
		Melody: pattern.NewLine(pattern.StepsPerBar),
	}
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 0.125, Interval(120))
	assert.InDelta(t, 0.1667, Interval(90), 1e-4)
}

func TestStartStepsThroughPattern(t *testing.T) {
	l, _, s := setup(t)
	var steps []int
	l.Do(func() {
		require.NoError(t, s.Start(120, drumPattern("hh*16"), func(i int) { steps = append(steps, i) }))
	})
	require.NoError(t, l.Advance(time.Second))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, steps)
	assert.Equal(t, uint64(9), s.Triggered())
}

func TestCursorWraps(t *testing.T) {
	l, _, s := setup(t)
	var last int
	l.Do(func() {
		require.NoError(t, s.Start(120, drumPattern("bd"), func(i int) { last = i }))
	})
	require.NoError(t, l.Advance(17*125*time.Millisecond))
	assert.Equal(t, 1, last)
	l.Do(func() {
		c := s.Cursor()
		assert.Equal(t, 2, c.Step)
		assert.Equal(t, 16, c.Length)
		assert.Equal(t, 0.125, c.Interval)
	})
}

func TestRestartDoesNotDoubleFire(t *testing.T) {
	l, dst, s := setup(t)
	pat := drumPattern("hh*16")
	l.Do(func() {
		require.NoError(t, s.Start(120, pat, nil))
		require.NoError(t, s.Start(120, pat, nil))
	})
	assert.Equal(t, 1, l.Pending())

	dst.sources = nil
	require.NoError(t, l.Advance(time.Second))
	assert.Len(t, dst.sources, 8)
}

func TestStopSilences(t *testing.T) {
	l, dst, s := setup(t)
	l.Do(func() {
		require.NoError(t, s.Start(120, drumPattern("hh*16"), nil))
	})
	require.NoError(t, l.Advance(500*time.Millisecond))

	l.Do(func() {
		s.Stop()
		s.Stop()
	})
	assert.False(t, s.Running())
	assert.Zero(t, l.Pending())

	before := len(dst.sources)
	require.NoError(t, l.Advance(3*125*time.Millisecond+time.Millisecond))
	assert.Len(t, dst.sources, before)
}

func TestRepeatedHitsAreStaggered(t *testing.T) {
	l, dst, s := setup(t)
	l.Do(func() {
		require.NoError(t, s.Start(120, drumPattern("hh*32"), nil))
	})
	require.Len(t, dst.sources, 2)
	assert.InDelta(t, 0, dst.sources[0].Start, 1e-9)
	assert.InDelta(t, 0.08, dst.sources[1].Start, 1e-9)
}

func TestSwingDelaysOddSteps(t *testing.T) {
	l, dst, s := setup(t)
	pat := drumPattern("hh*16")
	pat.Swing = true
	l.Do(func() {
		require.NoError(t, s.Start(120, pat, nil))
	})
	require.NoError(t, l.Advance(125*time.Millisecond))
	require.Len(t, dst.sources, 2)
	assert.InDelta(t, 0, dst.sources[0].Start, 1e-9)
	assert.InDelta(t, 0.125+0.125/3, dst.sources[1].Start, 1e-9)
}

func TestSwapKeepsCursor(t *testing.T) {
	l, _, s := setup(t)
	var steps []int
	l.Do(func() {
		require.NoError(t, s.Start(120, drumPattern("bd"), func(i int) { steps = append(steps, i) }))
	})
	require.NoError(t, l.Advance(250*time.Millisecond))

	next := drumPattern("sd")
	l.Do(func() { s.Swap(next) })
	require.NoError(t, l.Advance(250*time.Millisecond))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, steps)
	assert.Same(t, next, s.Pattern())
}

func TestSetTempoKeepsCursor(t *testing.T) {
	l, _, s := setup(t)

	var steps []int
	l.Do(func() {
		require.NoError(t, s.Start(120, drumPattern("bd"), func(i int) { steps = append(steps, i) }))
	})
	require.NoError(t, l.Advance(125*time.Millisecond))
	l.Do(func() { s.SetTempo(60) })
	assert.Equal(t, 60.0, s.Tempo())

	require.NoError(t, l.Advance(249*time.Millisecond))
	assert.Equal(t, []int{0, 1}, steps)
	require.NoError(t, l.Advance(time.Millisecond))
	assert.Equal(t, []int{0, 1, 2}, steps)
}

func TestListenerPanicIsContained(t *testing.T) {
	var reported []error
	l, dst, s := setup(t, WithErrorHandler(func(err error) { reported = append(reported, err) }))
	l.Do(func() {
		require.NoError(t, s.Start(120, drumPattern("hh*16"), func(int) { panic("listener") }))
	})
	require.NoError(t, l.Advance(250*time.Millisecond))

	assert.Len(t, dst.sources, 3)
	require.Len(t, reported, 3)
	assert.ErrorIs(t, reported[0], voice.ErrTrigger)
	assert.True(t, s.Running())
}

func TestVoiceFailureIsContained(t *testing.T) {
	var reported []error
	l, dst, s := setup(t, WithErrorHandler(func(err error) { reported = append(reported, err) }))
	dst.fail = errors.New("device lost")

	steps := 0
	l.Do(func() {
		require.NoError(t, s.Start(120, drumPattern("bd*16"), func(int) { steps++ }))
	})
	require.NoError(t, l.Advance(time.Second))

	assert.Equal(t, 9, steps)
	assert.Len(t, reported, 9)
	assert.ErrorIs(t, reported[0], voice.ErrTrigger)
}

func TestStartRejectsBadInput(t *testing.T) {
	l, _, s := setup(t)
	l.Do(func() {
		assert.Error(t, s.Start(0, drumPattern("bd"), nil))
		assert.Error(t, s.Start(120, nil, nil))
		assert.Error(t, s.Start(120, &pattern.Pattern{}, nil))
	})
	assert.False(t, s.Running())
}

func TestUnknownTokensAreSilent(t *testing.T) {
	l, dst, s := setup(t)
	l.Do(func() {
		require.NoError(t, s.Start(120, drumPattern("zz ~ qq ~"), nil))
	})
	require.NoError(t, l.Advance(2*time.Second))
	assert.Empty(t, dst.sources)
	assert.True(t, s.Running())
}
