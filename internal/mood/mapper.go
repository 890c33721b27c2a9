package mood

// EnergyParams are the quantities driven by the energy knob.
type EnergyParams struct {
	StepDensity        int
	VoiceGain          float64
	SpeedMultiplier    float64
	DegradeProbability float64
}

// ComplexityParams are the quantities driven by the complexity knob.
type ComplexityParams struct {
	LayerCount int
	Polyrhythm bool
	Effects    bool
	Variation  float64
	Weighted   bool // weighted rather than uniform random choice
}

// AtmosphereParams are the quantities driven by the atmosphere knob.
type AtmosphereParams struct {
	ReverbAmount float64
	Release      float64 // seconds
	LowPass      bool
	FilterCutoff float64 // Hz, zero when LowPass is off
	FilterQ      float64
	Decay        float64
	PadLayer     bool
}

// RhythmParams are the quantities driven by the rhythm focus knob.
type RhythmParams struct {
	Euclidean   bool
	Pulse       int
	Swing       bool
	Subdivision int
}

// Derived is everything a pattern generator needs from a mood snapshot.
// It is recomputed from scratch on every rebuild.
type Derived struct {
	EnergyParams
	ComplexityParams
	AtmosphereParams
	RhythmParams
}

const (
	lowPassCutoff = 800.0
	lowPassQ      = 5.0
)

// MapEnergy maps energy to density, gain, speed and how many events drop.
func MapEnergy(v int) EnergyParams {
	v = Clamp(v)
	p := EnergyParams{
		StepDensity: min(v/20+1, 6),
		VoiceGain:   0.3 + 0.7*float64(v)/100,
	}
	switch {
	case v > 70:
		p.SpeedMultiplier = 1.5
	case v > 40:
		p.SpeedMultiplier = 1
	default:
		p.SpeedMultiplier = 0.5
	}
	switch {
	case v < 30:
		p.DegradeProbability = 0.5
	case v < 60:
		p.DegradeProbability = 0.2
	default:
		p.DegradeProbability = 0
	}
	return p
}

// MapComplexity maps complexity to layering and the randomness mode.
func MapComplexity(v int) ComplexityParams {
	v = Clamp(v)
	p := ComplexityParams{
		Polyrhythm: v > 60,
		Effects:    v > 50,
		Variation:  float64(v) / 100,
		Weighted:   v > 60,
	}
	switch {
	case v > 70:
		p.LayerCount = 3
	case v > 40:
		p.LayerCount = 2
	default:
		p.LayerCount = 1
	}
	return p
}

// MapAtmosphere maps atmosphere to reverb, release and filtering.
func MapAtmosphere(v int) AtmosphereParams {
	v = Clamp(v)
	p := AtmosphereParams{
		ReverbAmount: float64(v) / 100,
		Release:      0.1 + 2*float64(v)/100,
		LowPass:      v > 60,
		PadLayer:     v > 80,
	}
	if p.LowPass {
		p.FilterCutoff = lowPassCutoff
		p.FilterQ = lowPassQ
	}
	switch {
	case v > 70:
		p.Decay = 0.5
	case v > 40:
		p.Decay = 0.2
	default:
		p.Decay = 0.1
	}
	return p
}

// MapRhythm maps rhythm focus to pulse count, swing and Euclidean mode.
func MapRhythm(v int) RhythmParams {
	v = Clamp(v)
	p := RhythmParams{
		Euclidean:   v > 50,
		Swing:       v > 60,
		Subdivision: v/20 + 2,
	}
	switch {
	case v > 70:
		p.Pulse = 16
	case v > 40:
		p.Pulse = 8
	default:
		p.Pulse = 4
	}
	return p
}

// Derive maps every dimension of s.
func Derive(s State) Derived {
	return Derived{
		EnergyParams:     MapEnergy(s.Energy),
		ComplexityParams: MapComplexity(s.Complexity),
		AtmosphereParams: MapAtmosphere(s.Atmosphere),
		RhythmParams:     MapRhythm(s.RhythmFocus),
	}
}
