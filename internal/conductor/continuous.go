package conductor

import (
	"github.com/icco/mej/internal/mood"
	"github.com/icco/mej/internal/preset"
)

const stageStep = 0.01

func (c *Controller) startContinuous() {
	c.evo = &EvolutionState{}
	c.restart()
	c.tasks = append(c.tasks, c.loop.Every(c.driftPeriod, c.drift))
}

// drift nudges one random mood dimension, occasionally moves the chord
// cursor or changes preset, and swaps in the rebuilt pattern. A new preset
// starts its evolution over.
func (c *Controller) drift() {
	evo := c.evo
	if evo == nil {
		return
	}
	evo.Ticks++
	evo.Stage += stageStep

	dim := mood.Dimensions[c.rng.IntN(len(mood.Dimensions))]
	c.mood.Nudge(dim, c.rng.IntN(2*c.driftAmount+1)-c.driftAmount)

	if c.chordShift > 0 && evo.Ticks%c.chordShift == 0 {
		evo.ChordCursor++
	}

	if c.rng.Float64() < c.switchChance {
		n := preset.Len()
		next := preset.ID((int(c.preset) + 1 + c.rng.IntN(n-1)) % n)
		c.evo = &EvolutionState{}
		c.applyPreset(next)
		return
	}
	c.swap()
}
