package audio

import (
	"math"
	"math/rand/v2"
)

// Node is one element of a voice graph. Process is called exactly once per
// rendered frame, in increasing time order, while the owning Source plays.
type Node interface {
	Process(t float64) float64
}

// WaveType represents different oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
)

func (w WaveType) String() string {
	switch w {
	case WaveSquare:
		return "square"
	case WaveSawtooth:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	default:
		return "sine"
	}
}

// Oscillator is a periodic waveform generator with an automatable frequency.
type Oscillator struct {
	Wave  WaveType
	Freq  *Param
	phase float64
}

// NewOscillator returns an oscillator of the given shape at a fixed frequency.
func NewOscillator(wave WaveType, freq float64) *Oscillator {
	return &Oscillator{Wave: wave, Freq: NewParam(freq)}
}

func (o *Oscillator) Process(t float64) float64 {
	v := generateWave(o.Wave, o.phase)
	o.phase += o.Freq.At(t) / SampleRate
	o.phase -= math.Floor(o.phase)
	return v
}

func generateWave(waveType WaveType, phase float64) float64 {
	switch waveType {
	case WaveSine:
		return math.Sin(2 * math.Pi * phase)
	case WaveSquare:
		if phase < 0.5 {
			return 0.8
		}
		return -0.8
	case WaveSawtooth:
		return 2*phase - 1
	case WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// Noise is a seeded white noise source.
type Noise struct {
	rng *rand.Rand
}

// NewNoise returns white noise whose sequence is fixed by seed.
func NewNoise(seed uint64) *Noise {
	return &Noise{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (n *Noise) Process(float64) float64 {
	return n.rng.Float64()*2 - 1
}

// FilterKind selects the biquad response.
type FilterKind int

const (
	LowPass FilterKind = iota
	HighPass
	BandPass
)

// Filter is a second-order (RBJ cookbook) biquad.
type Filter struct {
	In   Node
	Kind FilterKind
	Freq float64
	Q    float64

	ready              bool
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// NewFilter wraps in with a biquad of the given kind.
func NewFilter(in Node, kind FilterKind, freq, q float64) *Filter {
	return &Filter{In: in, Kind: kind, Freq: freq, Q: q}
}

func (f *Filter) prepare() {
	freq := math.Min(math.Max(f.Freq, 10), SampleRate*0.49)
	q := math.Max(f.Q, 1e-4)
	w0 := 2 * math.Pi * freq / SampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	var b0, b1, b2 float64
	switch f.Kind {
	case HighPass:
		b0, b1, b2 = (1+cosw)/2, -(1 + cosw), (1+cosw)/2
	case BandPass:
		b0, b1, b2 = alpha, 0, -alpha
	default:
		b0, b1, b2 = (1-cosw)/2, 1-cosw, (1-cosw)/2
	}
	a0 := 1 + alpha
	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1, f.a2 = -2*cosw/a0, (1-alpha)/a0
	f.ready = true
}

func (f *Filter) Process(t float64) float64 {
	if !f.ready {
		f.prepare()
	}
	x := f.In.Process(t)
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// Gain scales its input by an automatable envelope.
type Gain struct {
	In   Node
	Gain *Param
}

// NewGain wraps in with a gain param starting at v.
func NewGain(in Node, v float64) *Gain {
	return &Gain{In: in, Gain: NewParam(v)}
}

func (g *Gain) Process(t float64) float64 {
	return g.In.Process(t) * g.Gain.At(t)
}

// Shaper is a tanh waveshaper; Drive <= 0 passes the input through.
type Shaper struct {
	In    Node
	Drive float64
}

func (s *Shaper) Process(t float64) float64 {
	x := s.In.Process(t)
	if s.Drive <= 0 {
		return x
	}
	return math.Tanh(s.Drive*x) / math.Tanh(s.Drive)
}

// Mix sums its inputs.
type Mix []Node

func (m Mix) Process(t float64) float64 {
	var sum float64
	for _, n := range m {
		sum += n.Process(t)
	}
	return sum
}
