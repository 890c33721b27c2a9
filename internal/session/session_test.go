package session

import (
	"io"
	"log"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icco/mej/internal/audio"
	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/preset"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func TestRenderIsAudible(t *testing.T) {
	take, err := Render(Options{Preset: preset.Glitch, Seed: 7, Logger: quiet()}, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2*audio.SampleRate, take.Len())
	assert.Greater(t, take.Peak(), 0.01)
	assert.LessOrEqual(t, take.Peak(), 1.0)
}

func TestRenderIsDeterministic(t *testing.T) {
	o := Options{Preset: preset.Starry, Seed: 42, Logger: quiet()}
	a, err := Render(o, time.Second)
	require.NoError(t, err)
	b, err := Render(o, time.Second)
	require.NoError(t, err)
	assert.Equal(t, a.Samples, b.Samples)
}

func TestRenderRejectsZeroDuration(t *testing.T) {
	_, err := Render(Options{}, 0)
	assert.Error(t, err)
}

func TestRenderTrackDeliversTake(t *testing.T) {
	var takes []conductor.Event
	o := Options{
		Preset: preset.Flow,
		Mode:   conductor.Track,
		Seed:   3,
		Logger: quiet(),
		Subscribers: []func(conductor.Event){func(ev conductor.Event) {
			if ev.Kind == conductor.EventTake {
				takes = append(takes, ev)
			}
		}},
		TrackDuration: func(*rand.Rand) time.Duration { return 2 * time.Second },
	}
	_, err := Render(o, 3*time.Second)
	require.NoError(t, err)

	require.Len(t, takes, 1)
	assert.True(t, takes[0].Complete)
	assert.InDelta(t, 2*audio.SampleRate, takes[0].Take.Len(), 2*renderBlock)
	assert.Greater(t, takes[0].Take.Peak(), 0.01)
}

func TestNewLiveSession(t *testing.T) {
	s, err := New(clockwork.NewFakeClock(), Options{Preset: preset.Demon, Volume: 0.5, Logger: quiet()})
	require.NoError(t, err)
	snap := s.Conductor.Snapshot()
	assert.Equal(t, preset.Demon, snap.Preset)
	assert.Equal(t, conductor.Idle, snap.Status)
	assert.False(t, s.Recorder.Capturing())
}

func TestNewRandSeeded(t *testing.T) {
	assert.Equal(t, NewRand(9).Uint64(), NewRand(9).Uint64())
}
