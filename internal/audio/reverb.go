package audio

// reverb is a small Schroeder network (parallel combs into series
// all-passes) fed by the master send bus.
type reverb struct {
	combs     []*delayLine
	allpasses []*delayLine
	feedback  float64
	wet       float64
}

type delayLine struct {
	buf []float64
	pos int
}

func newDelayLine(n int) *delayLine {
	return &delayLine{buf: make([]float64, n)}
}

func (d *delayLine) read() float64 {
	return d.buf[d.pos]
}

func (d *delayLine) write(v float64) {
	d.buf[d.pos] = v
	d.pos = (d.pos + 1) % len(d.buf)
}

func newReverb() *reverb {
	r := &reverb{feedback: 0.82, wet: 0.3}
	for _, n := range []int{1557, 1617, 1491, 1422} {
		r.combs = append(r.combs, newDelayLine(n))
	}
	for _, n := range []int{556, 225} {
		r.allpasses = append(r.allpasses, newDelayLine(n))
	}
	return r
}

func (r *reverb) process(in float64) float64 {
	var out float64
	for _, c := range r.combs {
		y := c.read()
		c.write(in + y*r.feedback)
		out += y
	}
	out /= float64(len(r.combs))
	for _, a := range r.allpasses {
		buffered := a.read()
		a.write(out + buffered*0.5)
		out = buffered - out*0.5
	}
	return out * r.wet
}
