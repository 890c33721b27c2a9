package voice

import (
	"fmt"
	"strings"
)

var chordQualities = []struct {
	suffix    string
	intervals []int
}{
	// longest suffix first
	{"maj7", []int{0, 4, 7, 11}},
	{"min7", []int{0, 3, 7, 10}},
	{"sus2", []int{0, 2, 7}},
	{"sus4", []int{0, 5, 7}},
	{"dim", []int{0, 3, 6}},
	{"aug", []int{0, 4, 8}},
	{"min", []int{0, 3, 7}},
	{"m7", []int{0, 3, 7, 10}},
	{"7", []int{0, 4, 7, 10}},
	{"m", []int{0, 3, 7}},
	{"", []int{0, 4, 7}},
}

// ChordMIDI expands a chord symbol such as "Am", "Cmaj7" or "Em/G" into
// MIDI notes with the root in the given octave. A slash bass is placed one
// octave below the root.
func ChordMIDI(symbol string, octave int) ([]int, error) {
	base, bass, _ := strings.Cut(strings.TrimSpace(symbol), "/")
	if base == "" {
		return nil, fmt.Errorf("empty chord symbol")
	}

	rootLen := 1
	if len(base) > 1 && (base[1] == '#' || base[1] == 'b') {
		rootLen = 2
	}
	root, err := MIDI(base[:rootLen] + fmt.Sprint(octave))
	if err != nil {
		return nil, fmt.Errorf("invalid chord root in %q: %w", symbol, err)
	}

	suffix := base[rootLen:]
	var intervals []int
	for _, q := range chordQualities {
		if suffix == q.suffix {
			intervals = q.intervals
			break
		}
	}
	if intervals == nil {
		return nil, fmt.Errorf("unknown chord quality %q in %q", suffix, symbol)
	}

	notes := make([]int, 0, len(intervals)+1)
	if bass != "" {
		b, err := MIDI(bass + fmt.Sprint(octave-1))
		if err != nil {
			return nil, fmt.Errorf("invalid bass note in %q: %w", symbol, err)
		}
		notes = append(notes, b)
	}
	for _, iv := range intervals {
		notes = append(notes, root+iv)
	}
	return notes, nil
}

// ChordNotes is ChordMIDI spelled as note names.
func ChordNotes(symbol string, octave int) ([]string, error) {
	midi, err := ChordMIDI(symbol, octave)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(midi))
	for i, m := range midi {
		names[i] = NoteName(m)
	}
	return names, nil
}
