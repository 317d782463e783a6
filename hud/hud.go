// Package hud renders kernel snapshots as a terminal status panel. It reads
// snapshots only and never touches kernel state.
package hud

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tailored-agentic-units/assistant/kernel"
)

// Band classifies CPU load for the panel background.
type Band int

const (
	BandLow Band = iota
	BandMedium
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMedium:
		return "medium"
	default:
		return "high"
	}
}

// LoadBand maps a load in [0,1] to its band: below 0.4 is low, below 0.75
// medium, the rest high.
func LoadBand(load float64) Band {
	switch {
	case load < 0.4:
		return BandLow
	case load < 0.75:
		return BandMedium
	default:
		return BandHigh
	}
}

// Theme holds the panel colors.
type Theme struct {
	Name       string
	Background [3]lipgloss.Color // indexed by Band
	Text       lipgloss.Color
	Message    lipgloss.Color
	Width      int
}

var themes = map[string]Theme{
	"jarvis": {
		Name: "jarvis",
		Background: [3]lipgloss.Color{
			BandLow:    "#141e2d",
			BandMedium: "#194632",
			BandHigh:   "#782323",
		},
		Text:    "#dce6ff",
		Message: "#ffffb4",
		Width:   48,
	},
	"mono": {
		Name:       "mono",
		Background: [3]lipgloss.Color{"0", "8", "1"},
		Text:       "15",
		Message:    "11",
		Width:      48,
	},
}

// LookupTheme returns the named theme.
func LookupTheme(name string) (Theme, error) {
	t, ok := themes[strings.ToLower(name)]
	if !ok {
		return Theme{}, fmt.Errorf("unknown theme: %s", name)
	}
	return t, nil
}

// Render draws the status lines followed by the visible feed messages.
func Render(snap kernel.Snapshot, theme Theme) string {
	band := LoadBand(snap.Registers.Load)

	panel := lipgloss.NewStyle().
		Background(theme.Background[band]).
		Padding(0, 1).
		Width(theme.Width)
	text := lipgloss.NewStyle().Foreground(theme.Text)
	message := lipgloss.NewStyle().Foreground(theme.Message)

	lines := make([]string, 0, 6+len(snap.Messages))
	for _, l := range StatusLines(snap) {
		lines = append(lines, text.Render(l))
	}
	if len(snap.Messages) > 0 {
		lines = append(lines, "")
		for _, m := range snap.Messages {
			lines = append(lines, message.Render(m.Text))
		}
	}

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// StatusLines returns the uncolored status rows of the panel.
func StatusLines(snap kernel.Snapshot) []string {
	light := "OFF"
	if snap.Light.On {
		light = fmt.Sprintf("ON %d%%", snap.Light.Intensity)
	}

	lines := []string{
		fmt.Sprintf("CPU LOAD: %.2f", snap.Registers.Load),
		fmt.Sprintf("EMOTION: %s", snap.Emotion),
		fmt.Sprintf("DOPAMINE: %.2f", snap.Dopamine),
		fmt.Sprintf("RAM: %.0f/%.0f MB", snap.RAM.UsedMB, snap.RAM.CapacityMB),
		fmt.Sprintf("ROOM LIGHT: %s", light),
		fmt.Sprintf("UPTIME: %ds", int64(snap.Uptime/time.Second)),
	}
	if snap.Journal.Degraded {
		lines = append(lines, "JOURNAL: MEMORY ONLY")
	}
	return lines
}
