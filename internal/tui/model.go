// Package tui is the terminal host: mood knobs, preset and mode selection,
// transport keys and a step clock driven by the conductor.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/mood"
	"github.com/icco/mej/internal/preset"
)

const (
	refreshInterval   = 50 * time.Millisecond
	knobStep          = 5
	maxMessageHistory = 20
	eventBuffer       = 64
)

var speeds = []float64{conductor.SpeedSlow, conductor.SpeedMid, conductor.SpeedFast}

// Controller is the part of the conductor the UI drives.
type Controller interface {
	Play()
	Pause()
	SkipToNext()
	SetMode(conductor.Mode)
	SetPreset(preset.ID)
	SetMood(mood.Dimension, int) error
	SetSpeed(float64)
	Snapshot() conductor.Snapshot
}

// tickMsg refreshes the view from a controller snapshot.
type tickMsg time.Time

// Model is the bubbletea model for `mej play`.
type Model struct {
	ctl    Controller
	events chan conductor.Event

	snap           conductor.Snapshot
	knob           int
	messageHistory []string
	message        string
	takes          int
	width          int
	height         int
}

// New builds the UI around ctl.
func New(ctl Controller) *Model {
	return &Model{
		ctl:            ctl,
		events:         make(chan conductor.Event, eventBuffer),
		messageHistory: make([]string, 0, maxMessageHistory),
	}
}

// HandleEvent is a controller subscriber. It runs on the engine loop, so
// it never blocks: events beyond the buffer are dropped from the log.
func (m *Model) HandleEvent(ev conductor.Event) {
	select {
	case m.events <- ev:
	default:
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	m.snap = m.ctl.Snapshot()
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.ctl.Pause()
			return m, tea.Quit
		}
		m.handleKey(msg.String())
		m.refresh()
	}

	return m, nil
}

func (m *Model) refresh() {
	m.snap = m.ctl.Snapshot()
	for {
		select {
		case ev := <-m.events:
			m.log(ev)
		default:
			return
		}
	}
}

func (m *Model) handleKey(key string) {
	m.message = ""
	switch key {
	case " ", "p":
		if m.snap.Status == conductor.Playing || m.snap.Status == conductor.Complete {
			m.ctl.Pause()
		} else {
			m.ctl.Play()
		}
	case "n":
		m.ctl.SkipToNext()
	case "m":
		if m.snap.Mode == conductor.Continuous {
			m.ctl.SetMode(conductor.Track)
		} else {
			m.ctl.SetMode(conductor.Continuous)
		}
	case "1", "2", "3", "4":
		m.ctl.SetPreset(preset.All()[int(key[0]-'1')])
	case "s":
		m.ctl.SetSpeed(nextSpeed(m.snap.Speed))
	case "up", "k":
		if m.knob > 0 {
			m.knob--
		}
	case "down", "j":
		if m.knob < len(mood.Dimensions)-1 {
			m.knob++
		}
	case "left", "h":
		m.turn(-knobStep)
	case "right", "l":
		m.turn(knobStep)
	}
}

func (m *Model) turn(delta int) {
	d := mood.Dimensions[m.knob]
	if err := m.ctl.SetMood(d, m.snap.Mood.Get(d)+delta); err != nil {
		m.message = fmt.Sprintf("%s is at its limit", d)
	}
}

func nextSpeed(cur float64) float64 {
	for i, s := range speeds {
		if s == cur {
			return speeds[(i+1)%len(speeds)]
		}
	}
	return conductor.SpeedMid
}

func (m *Model) log(ev conductor.Event) {
	var message string
	switch ev.Kind {
	case conductor.EventPreset:
		message = fmt.Sprintf("preset  %s", ev.Preset)
	case conductor.EventSection:
		message = fmt.Sprintf("section %s", ev.Section)
	case conductor.EventTrackStart:
		message = fmt.Sprintf("track   start %s (%s)", ev.Preset, ev.Duration.Round(time.Second))
	case conductor.EventTrackComplete:
		message = "track   complete"
	case conductor.EventTake:
		m.takes++
		message = fmt.Sprintf("take    %s", ev.Duration.Round(time.Second))
	case conductor.EventFallback:
		message = "pattern fallback"
		if ev.Err != nil {
			m.message = ev.Err.Error()
		}
	case conductor.EventMode:
		message = fmt.Sprintf("mode    %s", ev.Mode)
	default:
		message = ev.Kind.String()
	}

	m.messageHistory = append([]string{message}, m.messageHistory...)
	if len(m.messageHistory) > maxMessageHistory {
		m.messageHistory = m.messageHistory[:maxMessageHistory]
	}
}
