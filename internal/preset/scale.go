package preset

import "fmt"

// Scale is a named set of semitone offsets from the root.
type Scale struct {
	Name      string
	Intervals []int
}

var (
	majorPentatonic = Scale{"major pentatonic", []int{0, 2, 4, 7, 9}}
	minorPentatonic = Scale{"minor pentatonic", []int{0, 3, 5, 7, 10}}
	blues           = Scale{"blues", []int{0, 3, 5, 6, 7, 10}}
	phrygian        = Scale{"phrygian", []int{0, 1, 3, 5, 7, 8, 10}}
)

// Degree returns the MIDI note of scale degree d above root (a MIDI note).
// Degrees past the scale length climb into higher octaves; negative degrees
// descend.
func (s Scale) Degree(root, d int) int {
	n := len(s.Intervals)
	octave := d / n
	idx := d % n
	if idx < 0 {
		idx += n
		octave--
	}
	return root + octave*12 + s.Intervals[idx]
}

// RootNote is the profile's root in octave.
func (p Profile) RootNote(octave int) string {
	return fmt.Sprintf("%s%d", p.Root, octave)
}
