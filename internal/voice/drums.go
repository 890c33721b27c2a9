package voice

import (
	"github.com/icco/mej/internal/audio"
)

const (
	kickLength  = 0.5
	snareLength = 0.2
	hatLength   = 0.05
	clapBursts  = 3
	clapSpacing = 0.01
	clapDecay   = 0.03
	envFloor    = 0.01
)

func drumGain(p Params) float64 {
	if p.Gain <= 0 {
		return 1
	}
	return p.Gain
}

func finish(dst Destination, node audio.Node, start, length float64, p Params) error {
	if p.Drive > 0 {
		node = &audio.Shaper{In: node, Drive: p.Drive}
	}
	return dst.Play(audio.Source{
		Node:  node,
		Start: start,
		Stop:  start + length,
		Pan:   p.Pan,
		Send:  p.Send,
	})
}

// PlayKick is a sine with a fast exponential pitch drop from 150 Hz.
func PlayKick(dst Destination, p Params) error {
	start := onset(dst, p)
	length := kickLength
	if p.Duration > 0 {
		length = p.Duration
	}

	osc := audio.NewOscillator(audio.WaveSine, 150)
	osc.Freq.SetAt(150, start).ExpRampTo(envFloor, start+length)

	g := drumGain(p)
	amp := audio.NewGain(osc, g)
	amp.Gain.SetAt(g, start).ExpRampTo(envFloor*g, start+length)

	return finish(dst, amp, start, length, p)
}

// PlaySnare layers high-passed noise over a short triangle body.
func PlaySnare(dst Destination, p Params) error {
	start := onset(dst, p)
	g := drumGain(p)

	noise := audio.NewFilter(audio.NewNoise(noiseSeed(start, 2)), audio.HighPass, 1000, 0.7)
	noiseAmp := audio.NewGain(noise, g)
	noiseAmp.Gain.SetAt(g, start).ExpRampTo(envFloor*g, start+snareLength)

	body := audio.NewOscillator(audio.WaveTriangle, 100)
	bodyAmp := audio.NewGain(body, 0.7*g)
	bodyAmp.Gain.SetAt(0.7*g, start).ExpRampTo(envFloor*g, start+snareLength/2)

	return finish(dst, audio.Mix{noiseAmp, bodyAmp}, start, snareLength, p)
}

// PlayHiHat is a very short burst of high-passed noise.
func PlayHiHat(dst Destination, p Params) error {
	start := onset(dst, p)
	g := drumGain(p)

	noise := audio.NewFilter(audio.NewNoise(noiseSeed(start, 3)), audio.HighPass, 7000, 0.7)
	amp := audio.NewGain(noise, g)
	amp.Gain.SetAt(g, start).ExpRampTo(envFloor*g, start+hatLength)

	return finish(dst, amp, start, hatLength, p)
}

// PlayClap is three band-passed noise bursts 10ms apart, each quieter
// than the last.
func PlayClap(dst Destination, p Params) error {
	start := onset(dst, p)
	g := drumGain(p)

	bursts := make(audio.Mix, 0, clapBursts)
	level := g
	for i := range clapBursts {
		at := start + float64(i)*clapSpacing
		noise := audio.NewFilter(audio.NewNoise(noiseSeed(start, 4+uint64(i))), audio.BandPass, 1500, 1.5)
		amp := audio.NewGain(noise, 0)
		amp.Gain.SetAt(0, start).SetAt(level, at).ExpRampTo(envFloor*g, at+clapDecay)
		bursts = append(bursts, amp)
		level *= 0.7
	}

	length := float64(clapBursts-1)*clapSpacing + clapDecay
	return finish(dst, bursts, start, length, p)
}
