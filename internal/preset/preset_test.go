package preset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	for _, id := range All() {
		got, ok := Parse(id.String())
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}

	got, ok := Parse(" Glitch ")
	assert.True(t, ok)
	assert.Equal(t, Glitch, got)

	got, ok = Parse("vaporwave")
	assert.False(t, ok)
	assert.Equal(t, Flow, got)
}

func TestLookup(t *testing.T) {
	p := Lookup(Demon)
	assert.Equal(t, "E minor", p.Key)
	assert.Equal(t, []string{"Em", "C", "G", "D"}, p.Progression)
	assert.Equal(t, TempoRange{130, 150}, p.Tempo)
	assert.Equal(t, "industrial", p.Genre)
	assert.Equal(t, 85, p.Baseline.Energy)

	assert.Equal(t, Flow, Lookup(ID(99)).ID)
}

func TestLookupReturnsCopy(t *testing.T) {
	p := Lookup(Starry)
	p.Progression[0] = "X"
	p.Scale.Intervals[1] = 99
	assert.Equal(t, "Am", Lookup(Starry).Progression[0])
	assert.Equal(t, 3, Lookup(Starry).Scale.Intervals[1])
}

func TestCatalogIsComplete(t *testing.T) {
	assert.Equal(t, 4, Len())
	for _, id := range All() {
		p := Lookup(id)
		assert.Equal(t, id, p.ID)
		assert.NotEmpty(t, p.Progression)
		assert.Less(t, p.Tempo.Min, p.Tempo.Max)
		assert.NotEmpty(t, p.Scale.Intervals)
	}
}

func TestTempoRangeAt(t *testing.T) {
	r := TempoRange{80, 100}
	assert.Equal(t, 80.0, r.At(0))
	assert.Equal(t, 90.0, r.At(0.5))
	assert.Equal(t, 100.0, r.At(3))
}

func TestScaleDegree(t *testing.T) {
	assert.Equal(t, 60, majorPentatonic.Degree(60, 0))
	assert.Equal(t, 67, majorPentatonic.Degree(60, 3))
	assert.Equal(t, 72, majorPentatonic.Degree(60, 5))
	assert.Equal(t, 57, majorPentatonic.Degree(60, -1))
	assert.Equal(t, 61, phrygian.Degree(60, 1))
}
