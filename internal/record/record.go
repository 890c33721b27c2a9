// Package record captures the engine's master bus into takes and exports
// them as WAV.
package record

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/google/uuid"

	"github.com/icco/mej/internal/audio"
)

var (
	ErrCapturing    = errors.New("record: capture already running")
	ErrNotCapturing = errors.New("record: no capture running")
)

// DefaultMaxDuration bounds a single take.
const DefaultMaxDuration = 10 * time.Minute

// Take is one finished capture, held as interleaved 16-bit stereo.
type Take struct {
	ID         uuid.UUID
	Started    time.Time
	Samples    []int16
	SampleRate int
	Truncated  bool
}

// Len is the number of captured frames.
func (t *Take) Len() int {
	return len(t.Samples) / 2
}

// Frame returns frame i scaled back to [-1, 1].
func (t *Take) Frame(i int) [2]float64 {
	return [2]float64{
		float64(t.Samples[2*i]) / math.MaxInt16,
		float64(t.Samples[2*i+1]) / math.MaxInt16,
	}
}

// Peak is the largest absolute sample, in [0, 1].
func (t *Take) Peak() float64 {
	var p int
	for _, s := range t.Samples {
		p = max(p, abs(int(s)))
	}
	return float64(p) / math.MaxInt16
}

// Duration is the captured audio length.
func (t *Take) Duration() time.Duration {
	if t.SampleRate == 0 {
		return 0
	}
	return time.Duration(t.Len()) * time.Second / time.Duration(t.SampleRate)
}

// FileName is the export name for a take of the given preset.
func (t *Take) FileName(preset string) string {
	return fmt.Sprintf("mej-track-%s-%ds-%d.wav", preset, int(t.Duration().Seconds()), t.Started.Unix())
}

// Streamer returns a beep streamer over the captured frames.
func (t *Take) Streamer() beep.Streamer {
	return &frameStreamer{take: t}
}

// WriteWAV encodes the take as 16-bit stereo WAV.
func (t *Take) WriteWAV(w io.WriteSeeker) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(t.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(w, t.Streamer(), format); err != nil {
		return fmt.Errorf("encode take %s: %w", t.ID, err)
	}
	return nil
}

// Save writes the take into dir and returns the file path.
func (t *Take) Save(dir, preset string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, t.FileName(preset))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := t.WriteWAV(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

type frameStreamer struct {
	take *Take
	pos  int
}

func (s *frameStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	total := s.take.Len()
	if s.pos >= total {
		return 0, false
	}
	n = min(len(samples), total-s.pos)
	for i := range n {
		samples[i] = s.take.Frame(s.pos + i)
	}
	s.pos += n
	return n, true
}

func (s *frameStreamer) Err() error {
	return nil
}

// Recorder is an audio.Tap that buffers frames between StartCapture and
// StopCapture.
type Recorder struct {
	mu        sync.Mutex
	take      *Take
	maxFrames int
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMaxDuration caps a take; frames past the cap are dropped.
func WithMaxDuration(d time.Duration) Option {
	return func(r *Recorder) {
		r.maxFrames = int(d.Seconds() * audio.SampleRate)
	}
}

// New returns an idle recorder.
func New(opts ...Option) *Recorder {
	r := &Recorder{maxFrames: int(DefaultMaxDuration.Seconds() * audio.SampleRate)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ audio.Tap = (*Recorder)(nil)

// Capture implements audio.Tap.
func (r *Recorder) Capture(frames [][2]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.take == nil {
		return
	}
	room := r.maxFrames - r.take.Len()
	if room < len(frames) {
		frames = frames[:max(room, 0)]
		r.take.Truncated = true
	}
	for _, f := range frames {
		r.take.Samples = append(r.take.Samples, quantize(f[0]), quantize(f[1]))
	}
}

func quantize(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// StartCapture begins a new take stamped at.
func (r *Recorder) StartCapture(at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.take != nil {
		return ErrCapturing
	}
	r.take = &Take{
		ID:         uuid.New(),
		Started:    at,
		SampleRate: audio.SampleRate,
	}
	return nil
}

// StopCapture ends the take and hands it over.
func (r *Recorder) StopCapture() (*Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.take == nil {
		return nil, ErrNotCapturing
	}
	t := r.take
	r.take = nil
	return t, nil
}

// Capturing reports whether a take is open.
func (r *Recorder) Capturing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.take != nil
}
