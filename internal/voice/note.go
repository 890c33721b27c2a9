package voice

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	referenceFreq  = 440.0 // A4
	referenceMIDI  = 69
	notesPerOctave = 12
)

var semitones = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

var noteNames = []string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}

// MIDI converts a note name such as "a3", "C#4" or "bb2" to a MIDI note number.
func MIDI(name string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid note %q", name)
	}
	semi, ok := semitones[s[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note letter in %q", name)
	}
	rest := s[1:]
	switch rest[0] {
	case '#':
		semi++
		rest = rest[1:]
	case 'b':
		semi--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q", name)
	}
	return (octave+1)*notesPerOctave + semi, nil
}

// Frequency converts a MIDI note number to Hz, equal temperament, A4 = 440 Hz.
func Frequency(midi int) float64 {
	return referenceFreq * math.Pow(2.0, float64(midi-referenceMIDI)/notesPerOctave)
}

// NoteFrequency converts a note name to Hz.
func NoteFrequency(name string) (float64, error) {
	m, err := MIDI(name)
	if err != nil {
		return 0, err
	}
	return Frequency(m), nil
}

// NoteName converts a MIDI note number to a lowercase sharp-spelled name.
func NoteName(midi int) string {
	octave := midi/notesPerOctave - 1
	idx := midi % notesPerOctave
	if idx < 0 {
		idx += notesPerOctave
		octave--
	}
	return fmt.Sprintf("%s%d", noteNames[idx], octave)
}
