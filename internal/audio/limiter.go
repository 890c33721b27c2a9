package audio

import "math"

const (
	limitThreshold = 0.95
	limitRelease   = 0.25 // seconds for the gain reduction to fall by 1/e
)

// limiter is a stereo-linked peak limiter on the master bus. The level
// follower jumps to any peak above the threshold and decays back to unity,
// so transients are turned down instead of squared off.
type limiter struct {
	level   float64
	release float64
}

func newLimiter() *limiter {
	return &limiter{
		level:   1,
		release: math.Exp(-1 / (limitRelease * SampleRate)),
	}
}

func (l *limiter) process(left, right float64) (float64, float64) {
	det := math.Max(math.Abs(left), math.Abs(right)) / limitThreshold
	if det > l.level {
		l.level = det
	}
	left /= l.level
	right /= l.level
	l.level = 1 + (l.level-1)*l.release
	return left, right
}
