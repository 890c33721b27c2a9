package pattern

import (
	"testing"

	"github.com/icco/mej/internal/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voicesAt(l Line, i int) []voice.ID {
	var ids []voice.ID
	for _, tr := range l[i].Triggers {
		ids = append(ids, tr.Voice)
	}
	return ids
}

func TestPlaceSlots(t *testing.T) {
	events := Place("bd ~ sd ~", 16)
	require.Len(t, events, 2)
	assert.Equal(t, Event{Step: 0, Span: 4, Token: "bd"}, events[0])
	assert.Equal(t, Event{Step: 8, Span: 4, Token: "sd"}, events[1])
}

func TestPlaceBrackets(t *testing.T) {
	events := Place("0 [4 7] [12 7] 4", 16)
	var steps []int
	var tokens []string
	for _, ev := range events {
		steps = append(steps, ev.Step)
		tokens = append(tokens, ev.Token)
	}
	assert.Equal(t, []int{0, 4, 6, 8, 10, 12}, steps)
	assert.Equal(t, []string{"0", "4", "7", "12", "7", "4"}, tokens)
	assert.Equal(t, 2.0, events[1].Span)
}

func TestPlaceMalformed(t *testing.T) {
	assert.Empty(t, Place("bd*x ~ sd*0", 16))
	assert.Empty(t, Place("", 16))
	assert.Empty(t, Place("bd", 0))
}

func TestCompileDrumsRepeats(t *testing.T) {
	line := CompileDrums("hh*8", 16, 0.2)
	assert.Equal(t, 8, line.Hits())
	for i := 0; i < 16; i += 2 {
		assert.Equal(t, []voice.ID{voice.HiHat}, voicesAt(line, i))
		assert.True(t, line[i+1].Rest())
	}

	dense := CompileDrums("hh*32", 16, 0.2)
	assert.Equal(t, 32, dense.Hits())
	assert.Len(t, dense[5].Triggers, 2)
}

func TestCompileDrumsSimultaneous(t *testing.T) {
	line := CompileDrums("bd,hh ~ ~ ~", 16, 1)
	assert.Equal(t, []voice.ID{voice.Kick, voice.HiHat}, voicesAt(line, 0))
}

func TestCompileDrumsDropsUnknownTokens(t *testing.T) {
	line := CompileDrums("bd zz ~ sd", 16, 1)
	assert.Equal(t, 2, line.Hits())
	assert.True(t, line[4].Rest())
	assert.Equal(t, []voice.ID{voice.Snare}, voicesAt(line, 12))
}

func TestEuclid(t *testing.T) {
	toString := func(b []bool) string {
		s := ""
		for _, v := range b {
			if v {
				s += "x"
			} else {
				s += "."
			}
		}
		return s
	}
	assert.Equal(t, "x..x..x.", toString(Euclid(3, 8)))
	assert.Equal(t, "x.x.x.x.", toString(Euclid(4, 8)))
	assert.Equal(t, "xxxx", toString(Euclid(9, 4)))
	assert.Equal(t, "....", toString(Euclid(0, 4)))
	assert.Nil(t, Euclid(3, 0))

	for n := 1; n <= 16; n++ {
		for k := 0; k <= n; k++ {
			hits := 0
			for _, h := range Euclid(k, n) {
				if h {
					hits++
				}
			}
			assert.Equal(t, k, hits, "E(%d,%d)", k, n)
		}
	}
}

func TestEuclidLine(t *testing.T) {
	line := EuclidLine(voice.Kick, 3, 8, 16, 1)
	assert.Equal(t, 3, line.Hits())
	assert.False(t, line[0].Rest())
	assert.False(t, line[6].Rest())
	assert.False(t, line[12].Rest())
}

func TestLineRepeatIsDeep(t *testing.T) {
	bar := CompileDrums("bd ~ ~ ~", 16, 1)
	long := bar.Repeat(2)
	require.Len(t, long, 32)
	long[0].Triggers[0].Velocity = 0.1
	assert.Equal(t, 1.0, bar[0].Triggers[0].Velocity)
	assert.Equal(t, 1.0, long[16].Triggers[0].Velocity)
}
