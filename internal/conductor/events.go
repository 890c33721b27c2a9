package conductor

import (
	"fmt"
	"time"

	"github.com/icco/mej/internal/mood"
	"github.com/icco/mej/internal/pattern"
	"github.com/icco/mej/internal/preset"
	"github.com/icco/mej/internal/record"
)

// EventKind classifies controller events.
type EventKind int

const (
	EventPlay EventKind = iota
	EventPause
	EventMode
	EventPreset
	EventSection
	EventTrackStart
	EventTrackComplete
	EventTake
	EventFallback
)

func (k EventKind) String() string {
	switch k {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventMode:
		return "mode"
	case EventPreset:
		return "preset"
	case EventSection:
		return "section"
	case EventTrackStart:
		return "track_start"
	case EventTrackComplete:
		return "track_complete"
	case EventTake:
		return "take"
	case EventFallback:
		return "fallback"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is delivered to subscribers on the loop. Take is set for
// EventTake; Complete says whether the take ran to the end of its track.
type Event struct {
	Kind     EventKind
	At       time.Time
	Mode     Mode
	Preset   preset.ID
	Section  pattern.Section
	Mood     mood.State
	Duration time.Duration
	Take     *record.Take
	Complete bool
	Err      error
}
