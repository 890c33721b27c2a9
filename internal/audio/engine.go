// Package audio is the sound runtime for the generative engine: a pull-based
// mixer whose rendered frame count is the monotonic clock, disposable voice
// graphs scheduled against that clock, and device output through oto.
package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

const (
	SampleRate   = 44100
	channelCount = 2 // stereo
	bitDepth     = 2 // 16-bit

	// DefaultMaxSources caps simultaneously scheduled sources.
	DefaultMaxSources = 256
)

var (
	// ErrInit means the audio device or clock could not be brought up.
	ErrInit = errors.New("audio: initialization failed")
	// ErrBusy means the engine is at its source cap.
	ErrBusy = errors.New("audio: too many active sources")
)

// Clock exposes the audio engine's monotonic time in seconds.
type Clock interface {
	Now() float64
}

// Source is a voice graph scheduled to play between Start and Stop
// (absolute engine seconds). The engine drops it once Stop has passed.
type Source struct {
	Node  Node
	Start float64
	Stop  float64
	Pan   float64 // -1 (left) .. 1 (right)
	Send  float64 // reverb send, 0..1
}

// Tap receives every rendered block. The slice is reused after Capture
// returns, so implementations must copy what they keep.
type Tap interface {
	Capture(frames [][2]float64)
}

// Engine mixes scheduled sources into stereo frames.
type Engine struct {
	mu         sync.Mutex
	frames     uint64
	sources    []Source
	maxSources int
	volume     float64
	reverb     *reverb
	limiter    *limiter
	taps       []Tap
	block      [][2]float64
}

// NewEngine creates an engine at time zero.
func NewEngine() *Engine {
	return &Engine{
		maxSources: DefaultMaxSources,
		volume:     0.8,
		reverb:     newReverb(),
		limiter:    newLimiter(),
	}
}

// Now returns the time of the next frame to be rendered, in seconds.
func (e *Engine) Now() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nowLocked()
}

func (e *Engine) nowLocked() float64 {
	return float64(e.frames) / SampleRate
}

// Play schedules src. A start time in the past is moved to now.
func (e *Engine) Play(src Source) error {
	if src.Node == nil {
		return fmt.Errorf("audio: source has no node")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowLocked()
	if src.Start < now {
		src.Start = now
	}
	if src.Stop <= src.Start {
		return fmt.Errorf("audio: source stops before it starts (%.3f <= %.3f)", src.Stop, src.Start)
	}
	if len(e.sources) >= e.maxSources {
		return ErrBusy
	}
	e.sources = append(e.sources, src)
	return nil
}

// Active reports how many sources are scheduled or sounding.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sources)
}

// SetVolume sets the master volume (0.0 - 1.0)
func (e *Engine) SetVolume(vol float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = math.Min(math.Max(vol, 0), 1)
}

// AddTap registers a capture tap on the master bus.
func (e *Engine) AddTap(t Tap) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.taps = append(e.taps, t)
}

// RemoveTap unregisters t.
func (e *Engine) RemoveTap(t Tap) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.taps {
		if existing == t {
			e.taps = append(e.taps[:i], e.taps[i+1:]...)
			return
		}
	}
}

// Render fills buf with the next len(buf) frames and advances the clock.
func (e *Engine) Render(buf [][2]float64) {
	e.mu.Lock()
	e.renderLocked(buf)
	taps := append([]Tap(nil), e.taps...)
	e.mu.Unlock()

	for _, t := range taps {
		t.Capture(buf)
	}
}

func (e *Engine) renderLocked(buf [][2]float64) {
	for i := range buf {
		t := float64(e.frames+uint64(i)) / SampleRate
		var left, right, send float64

		for j := range e.sources {
			src := &e.sources[j]
			if t < src.Start || t >= src.Stop {
				continue
			}
			x := src.Node.Process(t)
			angle := (math.Min(math.Max(src.Pan, -1), 1) + 1) * math.Pi / 4
			left += x * math.Cos(angle)
			right += x * math.Sin(angle)
			send += x * src.Send
		}

		wet := e.reverb.process(send)
		left, right = e.limiter.process((left+wet)*e.volume, (right+wet)*e.volume)
		buf[i] = [2]float64{clip(left), clip(right)}
	}
	e.frames += uint64(len(buf))

	// Fire and forget: finished graphs are simply dropped.
	now := e.nowLocked()
	live := e.sources[:0]
	for _, src := range e.sources {
		if src.Stop > now {
			live = append(live, src)
		}
	}
	for i := len(live); i < len(e.sources); i++ {
		e.sources[i] = Source{}
	}
	e.sources = live
}

// Read implements io.Reader for continuous audio generation as signed
// 16-bit little-endian stereo PCM.
func (e *Engine) Read(buf []byte) (int, error) {
	numFrames := len(buf) / (channelCount * bitDepth)
	if cap(e.block) < numFrames {
		e.block = make([][2]float64, numFrames)
	}
	block := e.block[:numFrames]
	e.Render(block)

	for i, frame := range block {
		idx := i * channelCount * bitDepth
		l := int16(frame[0] * 32767)
		r := int16(frame[1] * 32767)
		buf[idx] = byte(l)
		buf[idx+1] = byte(l >> 8)
		buf[idx+2] = byte(r)
		buf[idx+3] = byte(r >> 8)
	}
	return numFrames * channelCount * bitDepth, nil
}

func clip(v float64) float64 {
	if v > 1.0 {
		return 1.0
	} else if v < -1.0 {
		return -1.0
	}
	return v
}
