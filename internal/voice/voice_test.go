package voice

import (
	"errors"
	"testing"

	"github.com/icco/mej/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDest struct {
	now     float64
	sources []audio.Source
	err     error
}

func (d *recordingDest) Now() float64 { return d.now }

func (d *recordingDest) Play(src audio.Source) error {
	if d.err != nil {
		return d.err
	}
	d.sources = append(d.sources, src)
	return nil
}

type panickingDest struct{ recordingDest }

func (d *panickingDest) Play(audio.Source) error { panic("device gone") }

func TestNoteFrequency(t *testing.T) {
	tests := []struct {
		note string
		want float64
	}{
		{"a4", 440},
		{"a3", 220},
		{"A1", 55},
		{"c4", 261.6256},
		{"c#4", 277.1826},
		{"db4", 277.1826},
	}
	for _, tt := range tests {
		t.Run(tt.note, func(t *testing.T) {
			got, err := NoteFrequency(tt.note)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestNoteFrequencyInvalid(t *testing.T) {
	for _, note := range []string{"", "h3", "c", "c#", "cx4"} {
		_, err := NoteFrequency(note)
		assert.Error(t, err, note)
	}
}

func TestNoteName(t *testing.T) {
	assert.Equal(t, "c4", NoteName(60))
	assert.Equal(t, "a#2", NoteName(46))
	assert.Equal(t, "c-1", NoteName(0))

	for m := 0; m < 128; m++ {
		back, err := MIDI(NoteName(m))
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}
}

func TestChordMIDI(t *testing.T) {
	tests := []struct {
		symbol string
		want   []int
	}{
		{"C", []int{60, 64, 67}},
		{"Am", []int{69, 72, 76}},
		{"Em", []int{64, 67, 71}},
		{"Dm", []int{62, 65, 69}},
		{"Am7", []int{69, 72, 76, 79}},
		{"Cmaj7", []int{60, 64, 67, 71}},
		{"Bbsus4", []int{70, 75, 77}},
		{"Em/G", []int{55, 64, 67, 71}},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got, err := ChordMIDI(tt.symbol, 4)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ChordMIDI("Cwhat", 4)
	assert.Error(t, err)
	_, err = ChordMIDI("", 4)
	assert.Error(t, err)
}

func TestParseToken(t *testing.T) {
	for tok, want := range map[string]ID{"bd": Kick, "sd": Snare, "hh": HiHat, "cp": Clap} {
		got, ok := ParseToken(tok)
		assert.True(t, ok)
		assert.Equal(t, want, got)
		assert.True(t, got.Percussive())
	}
	_, ok := ParseToken("zz")
	assert.False(t, ok)
	assert.False(t, Bass.Percussive())
}

func TestTriggerSchedulesAtOffset(t *testing.T) {
	dst := &recordingDest{now: 2}

	require.NoError(t, Trigger(dst, Kick, Params{Offset: 0.25, Gain: 0.8}))
	require.Len(t, dst.sources, 1)
	src := dst.sources[0]
	assert.InDelta(t, 2.25, src.Start, 1e-9)
	assert.InDelta(t, 2.75, src.Stop, 1e-9)
}

func TestDrumLengths(t *testing.T) {
	tests := []struct {
		id     ID
		length float64
	}{
		{Kick, 0.5},
		{Snare, 0.2},
		{HiHat, 0.05},
		{Clap, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			dst := &recordingDest{}
			require.NoError(t, Trigger(dst, tt.id, Params{Gain: 0.5}))
			require.Len(t, dst.sources, 1)
			assert.InDelta(t, tt.length, dst.sources[0].Stop-dst.sources[0].Start, 1e-9)
		})
	}
}

func TestKickPitchDrops(t *testing.T) {
	dst := &recordingDest{}
	require.NoError(t, PlayKick(dst, Params{Gain: 1}))

	amp := dst.sources[0].Node.(*audio.Gain)
	osc := amp.In.(*audio.Oscillator)
	assert.InDelta(t, 150, osc.Freq.At(0), 1e-9)
	assert.Less(t, osc.Freq.At(0.25), 5.0)
	assert.Less(t, amp.Gain.At(0.4), amp.Gain.At(0.1))
}

func TestChordTriggersEachNote(t *testing.T) {
	dst := &recordingDest{}
	notes, err := ChordNotes("Am", 3)
	require.NoError(t, err)

	require.NoError(t, Trigger(dst, Chord, Params{Gain: 0.6, Duration: 2, Attack: 0.5, Notes: notes}))
	assert.Len(t, dst.sources, 3)
	for _, src := range dst.sources {
		assert.InDelta(t, 2.0, src.Stop-src.Start, 1e-9)
	}
}

func TestToneEnvelope(t *testing.T) {
	dst := &recordingDest{}
	require.NoError(t, PlayTone(dst, Bass, "a1", Params{Gain: 0.4, Duration: 1, Attack: 0.2}))

	amp := dst.sources[0].Node.(*audio.Gain)
	assert.InDelta(t, 0, amp.Gain.At(0), 1e-9)
	assert.InDelta(t, 0.4, amp.Gain.At(0.2), 1e-9)
	assert.Less(t, amp.Gain.At(0.9), 0.4)
}

func TestTriggerErrors(t *testing.T) {
	dst := &recordingDest{}

	err := Trigger(dst, Melody, Params{})
	assert.ErrorIs(t, err, ErrTrigger)

	err = Trigger(dst, Melody, Params{Notes: []string{"q9"}})
	assert.ErrorIs(t, err, ErrTrigger)

	err = Trigger(dst, ID(42), Params{})
	assert.ErrorIs(t, err, ErrTrigger)

	busy := &recordingDest{err: audio.ErrBusy}
	err = Trigger(busy, Snare, Params{})
	assert.ErrorIs(t, err, ErrTrigger)
	assert.True(t, errors.Is(err, ErrTrigger))
}

func TestTriggerRecoversPanic(t *testing.T) {
	err := Trigger(&panickingDest{}, HiHat, Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTrigger)
	assert.Contains(t, err.Error(), "device gone")
}

func TestVoicesRenderThroughEngine(t *testing.T) {
	e := audio.NewEngine()
	for _, id := range []ID{Kick, Snare, HiHat, Clap} {
		require.NoError(t, Trigger(e, id, Params{Gain: 0.5}))
	}
	require.NoError(t, Trigger(e, Pad, Params{Gain: 0.3, Duration: 0.1, Notes: []string{"a2"}}))

	buf := make([][2]float64, 2205)
	e.Render(buf)

	var energy float64
	for _, f := range buf {
		energy += f[0]*f[0] + f[1]*f[1]
	}
	assert.Greater(t, energy, 0.0)
}
