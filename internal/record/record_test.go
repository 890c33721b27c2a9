package record

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icco/mej/internal/audio"
	"github.com/icco/mej/internal/voice"
)

func TestCaptureOnlyWhileRecording(t *testing.T) {
	r := New()
	r.Capture(make([][2]float64, 100))

	require.NoError(t, r.StartCapture(time.Unix(1700000000, 0)))
	assert.True(t, r.Capturing())
	assert.ErrorIs(t, r.StartCapture(time.Now()), ErrCapturing)

	r.Capture([][2]float64{{0.5, -0.5}, {0.25, -0.25}})
	take, err := r.StopCapture()
	require.NoError(t, err)
	assert.False(t, r.Capturing())

	assert.Equal(t, 2, take.Len())
	assert.InDelta(t, 0.5, take.Frame(0)[0], 1e-4)
	assert.InDelta(t, -0.5, take.Frame(0)[1], 1e-4)
	assert.NotEqual(t, take.ID.String(), "")

	_, err = r.StopCapture()
	assert.ErrorIs(t, err, ErrNotCapturing)
}

func TestCaptureCopiesFrames(t *testing.T) {
	r := New()
	require.NoError(t, r.StartCapture(time.Now()))
	buf := [][2]float64{{0.1, 0.1}}
	r.Capture(buf)
	buf[0] = [2]float64{0.9, 0.9}

	take, err := r.StopCapture()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, take.Frame(0)[0], 1e-4)
}

func TestCaptureClampsAndQuantizes(t *testing.T) {
	r := New()
	require.NoError(t, r.StartCapture(time.Now()))
	r.Capture([][2]float64{{1.5, -2}, {0, 1}})

	take, err := r.StopCapture()
	require.NoError(t, err)
	assert.Equal(t, []int16{32767, -32767, 0, 32767}, take.Samples)
	assert.Equal(t, 1.0, take.Peak())
}

func TestTakeMemoryPerSecond(t *testing.T) {
	r := New()
	require.NoError(t, r.StartCapture(time.Now()))
	block := make([][2]float64, 128)
	for i := range block {
		block[i] = [2]float64{0.25, -0.25}
	}
	for n := 0; n < 4*audio.SampleRate; n += len(block) {
		r.Capture(block)
	}

	take, err := r.StopCapture()
	require.NoError(t, err)
	seconds := take.Duration().Seconds()
	require.InDelta(t, 4.0, seconds, 0.01)

	// 4 bytes per frame, with room for append growth; a float frame is 16.
	held := float64(cap(take.Samples)*2) / seconds
	assert.LessOrEqual(t, held, 2.0*4*audio.SampleRate)
	assert.Equal(t, 4*take.Len(), len(take.Samples)*2)
}

func TestMaxDuration(t *testing.T) {
	r := New(WithMaxDuration(time.Second))
	require.NoError(t, r.StartCapture(time.Now()))
	r.Capture(make([][2]float64, audio.SampleRate-10))
	r.Capture(make([][2]float64, 100))

	take, err := r.StopCapture()
	require.NoError(t, err)
	assert.Equal(t, audio.SampleRate, take.Len())
	assert.True(t, take.Truncated)
	assert.Equal(t, time.Second, take.Duration())
}

func TestFileName(t *testing.T) {
	take := &Take{
		Started:    time.Unix(1700000000, 0),
		Samples:    make([]int16, 2*3*audio.SampleRate),
		SampleRate: audio.SampleRate,
	}
	assert.Equal(t, "mej-track-starry-3s-1700000000.wav", take.FileName("starry"))
}

func TestTapOnEngineAndSave(t *testing.T) {
	e := audio.NewEngine()
	r := New()
	e.AddTap(r)

	require.NoError(t, r.StartCapture(time.Now()))
	require.NoError(t, voice.Trigger(e, voice.Kick, voice.Params{Gain: 0.8}))
	e.Render(make([][2]float64, audio.SampleRate/2))
	take, err := r.StopCapture()
	require.NoError(t, err)
	require.Equal(t, audio.SampleRate/2, take.Len())
	assert.Positive(t, take.Peak())

	dir := t.TempDir()
	path, err := take.Save(dir, "demon")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	stream, format, err := wav.Decode(f)
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, 2, format.NumChannels)
	assert.Equal(t, audio.SampleRate, int(format.SampleRate))
	assert.Equal(t, audio.SampleRate/2, stream.Len())
}

func TestSaveReportsWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "tracks")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	take := &Take{Started: time.Now(), Samples: make([]int16, 20), SampleRate: audio.SampleRate}
	_, err := take.Save(blocker, "flow")
	assert.Error(t, err)

	path, err := take.Save(dir, "flow")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
