package audio

import "math"

// minRampValue is the floor for exponential ramps, which cannot reach zero.
const minRampValue = 1e-4

type rampKind int

const (
	rampSet rampKind = iota
	rampLinear
	rampExponential
)

type paramEvent struct {
	kind  rampKind
	value float64
	at    float64
}

// Param is an automatable value evaluated against absolute engine time.
// Events must be added in non-decreasing time order.
type Param struct {
	initial float64
	events  []paramEvent
}

// NewParam returns a Param holding v until the first automation event.
func NewParam(v float64) *Param {
	return &Param{initial: v}
}

// SetAt jumps to v at time t.
func (p *Param) SetAt(v, t float64) *Param {
	p.events = append(p.events, paramEvent{kind: rampSet, value: v, at: t})
	return p
}

// LinearRampTo ramps linearly from the previous event to v, arriving at t.
func (p *Param) LinearRampTo(v, t float64) *Param {
	p.events = append(p.events, paramEvent{kind: rampLinear, value: v, at: t})
	return p
}

// ExpRampTo ramps exponentially from the previous event to v, arriving at t.
// Values are floored at a small positive constant.
func (p *Param) ExpRampTo(v, t float64) *Param {
	p.events = append(p.events, paramEvent{kind: rampExponential, value: math.Max(v, minRampValue), at: t})
	return p
}

// At evaluates the parameter at time t.
func (p *Param) At(t float64) float64 {
	prevValue := p.initial
	prevTime := math.Inf(-1)
	for _, e := range p.events {
		if t < e.at {
			if e.kind == rampSet || math.IsInf(prevTime, -1) || e.at <= prevTime {
				return prevValue
			}
			frac := (t - prevTime) / (e.at - prevTime)
			if e.kind == rampLinear {
				return prevValue + (e.value-prevValue)*frac
			}
			from := math.Max(prevValue, minRampValue)
			return from * math.Pow(e.value/from, frac)
		}
		prevValue = e.value
		prevTime = e.at
	}
	return prevValue
}
