package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/mood"
	"github.com/icco/mej/internal/preset"
)

const (
	clockSteps = 16
	knobWidth  = 20
	logLines   = 8
)

func (m *Model) View() string {
	s := m.snap
	var b strings.Builder

	b.WriteString(titleStyle.Render("MEJ - generative ambient") + "\n\n")

	status := statusStyle.Render(s.Status.String())
	if s.Status != conductor.Playing {
		status = subtitleStyle.Render(s.Status.String())
	}
	b.WriteString(fmt.Sprintf("%s  mode: %s  tempo: %.0f bpm  speed: x%.1f\n",
		status, s.Mode, s.Tempo, s.Speed))
	b.WriteString(m.viewArrangement() + "\n\n")

	playing := s.Status == conductor.Playing
	current := 0
	if s.Cursor.Length > 0 {
		current = (s.Cursor.Step - 1 + s.Cursor.Length) % s.Cursor.Length
	}
	b.WriteString(renderClockBar(playing, current%clockSteps) + "\n\n")

	b.WriteString(subtitleStyle.Render("Mood") + "\n")
	for i, d := range mood.Dimensions {
		b.WriteString(renderKnob(d, s.Mood.Get(d), i == m.knob) + "\n")
	}

	b.WriteString("\n" + m.viewPresets() + "\n")

	b.WriteString("\n" + subtitleStyle.Render(fmt.Sprintf("Log: [%d takes]", m.takes)) + "\n")
	if len(m.messageHistory) == 0 {
		b.WriteString("  " + dimStyle.Render("(nothing yet)") + "\n")
	}
	for i, msg := range m.messageHistory {
		if i == logLines {
			break
		}
		if i == 0 {
			b.WriteString("  " + noteStyle.Render("▶ "+msg) + "\n")
		} else {
			b.WriteString("  " + subtitleStyle.Render("  "+msg) + "\n")
		}
	}

	if m.message != "" {
		b.WriteString("\n" + errorStyle.Render(m.message) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("space/p: play/pause • n: next • m: mode • 1-4: preset • s: speed"))
	b.WriteString("\n" + helpStyle.Render("↑↓ or jk: select knob • ←→ or hl: turn knob • q: quit"))

	return b.String()
}

func (m *Model) viewArrangement() string {
	s := m.snap
	if s.Mode == conductor.Track && s.Duration > 0 {
		return fmt.Sprintf("section: %s  %s / %s",
			noteStyle.Render(s.Section.String()),
			s.Elapsed.Round(time.Second), s.Duration.Round(time.Second))
	}
	return fmt.Sprintf("stage: %.2f", s.Stage)
}

func (m *Model) viewPresets() string {
	parts := make([]string, 0, preset.Len())
	for i, id := range preset.All() {
		label := fmt.Sprintf("%d %s", i+1, id)
		if id == m.snap.Preset {
			parts = append(parts, selectedStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, " "+label+" ")
		}
	}
	return strings.Join(parts, " ")
}

func renderKnob(d mood.Dimension, v int, selected bool) string {
	filled := v * knobWidth / mood.Max
	bar := noteStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("·", knobWidth-filled))
	label := fmt.Sprintf("  %-12s", d)
	if selected {
		label = selectedStyle.Render(fmt.Sprintf("> %-12s", d))
	}
	return fmt.Sprintf("%s %s %3d", label, bar, v)
}

func renderClockBar(isPlaying bool, currentStep int) string {
	bar := strings.Builder{}
	bar.WriteString("Clock  ")

	for i := 0; i < clockSteps; i++ {
		var cell string
		var cellStyle lipgloss.Style

		if isPlaying && i == currentStep {
			cell = " ▶ "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color(clockColors[i])).
				Bold(true)
		} else if isPlaying && i < currentStep {
			cell = " █ "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(clockColors[i]))
		} else {
			cell = " · "
			cellStyle = dimStyle
		}

		bar.WriteString(cellStyle.Render(cell))
	}

	return bar.String()
}
