package conductor

import (
	"fmt"
	"time"

	"github.com/icco/mej/internal/pattern"
)

func (c *Controller) startTrack() {
	now := c.loop.Now()
	c.track = &TrackState{
		Sections: append([]pattern.Section(nil), pattern.TrackSections...),
		Started:  now,
		Duration: c.trackDuration(c.rng),
	}

	if c.rec != nil {
		if err := c.rec.StartCapture(now); err != nil {
			c.fail(fmt.Errorf("start capture: %w", err))
		} else {
			c.capturing = true
		}
	}

	c.status = Playing
	c.emit(Event{Kind: EventTrackStart})
	c.restart()

	// Completion goes first so a poll landing on the same instant never
	// sees an expired track.
	c.tasks = append(c.tasks,
		c.loop.After(c.track.Duration, c.completeTrack),
		c.loop.Every(c.pollPeriod, c.pollTrack),
	)
}

// pollTrack moves the section cursor toward floor(elapsed*sections/duration),
// one section per poll.
func (c *Controller) pollTrack() {
	t := c.track
	if t == nil || t.Duration <= 0 {
		return
	}
	elapsed := c.loop.Now().Sub(t.Started)
	target := int(elapsed * time.Duration(len(t.Sections)) / t.Duration)
	if target <= t.advanced {
		return
	}
	t.advanced++
	t.Index = t.advanced % len(t.Sections)
	t.StepsIntoSection = 0
	c.emit(Event{Kind: EventSection})
	c.swap()
}

// completeTrack runs once per track: it closes the take, stops playback
// and arms the next track.
func (c *Controller) completeTrack() {
	if c.track == nil {
		return
	}
	c.sched.Stop()
	for _, t := range c.tasks {
		t.Cancel()
	}
	c.tasks = nil

	c.finishTake(true)
	c.status = Complete
	c.emit(Event{Kind: EventTrackComplete})
	c.track = nil

	c.tasks = append(c.tasks, c.loop.After(c.restartPause, c.startTrack))
}
