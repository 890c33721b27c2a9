package pattern

import "fmt"

// Section is a Track-mode arrangement stage. SectionNone is used by
// Continuous mode.
type Section int

const (
	SectionNone Section = iota
	Intro
	Verse
	Chorus
	Outro
)

// TrackSections is the order every track walks through.
var TrackSections = []Section{Intro, Verse, Chorus, Verse, Chorus, Outro}

func (s Section) String() string {
	switch s {
	case SectionNone:
		return "none"
	case Intro:
		return "intro"
	case Verse:
		return "verse"
	case Chorus:
		return "chorus"
	case Outro:
		return "outro"
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// Sparse reports whether the section thins the arrangement out.
func (s Section) Sparse() bool {
	return s == Intro || s == Outro
}
