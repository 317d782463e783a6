package hud_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/assistant/feed"
	"github.com/tailored-agentic-units/assistant/hud"
	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/resource"
)

func TestLoadBand(t *testing.T) {
	tests := []struct {
		load float64
		want hud.Band
	}{
		{0, hud.BandLow},
		{0.39, hud.BandLow},
		{0.4, hud.BandMedium},
		{0.74, hud.BandMedium},
		{0.75, hud.BandHigh},
		{1, hud.BandHigh},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, hud.LoadBand(tt.load))
		})
	}
}

func TestLookupTheme(t *testing.T) {
	theme, err := hud.LookupTheme("JARVIS")
	require.NoError(t, err)
	assert.Equal(t, "jarvis", theme.Name)

	_, err = hud.LookupTheme("neon")
	assert.Error(t, err)
}

func TestStatusLines(t *testing.T) {
	snap := kernel.Snapshot{
		Registers: resource.RegistersState{Load: 0.5},
		Dopamine:  0.62,
		Emotion:   resource.LabelSatisfied,
		RAM:       resource.RAMState{UsedMB: 32, CapacityMB: 2048},
		Light:     resource.LightState{On: true, Intensity: 70},
		Uptime:    95*time.Second + 400*time.Millisecond,
	}

	assert.Equal(t, []string{
		"CPU LOAD: 0.50",
		"EMOTION: SATISFIED",
		"DOPAMINE: 0.62",
		"RAM: 32/2048 MB",
		"ROOM LIGHT: ON 70%",
		"UPTIME: 95s",
	}, hud.StatusLines(snap))

	snap.Light.On = false
	snap.Journal.Degraded = true
	lines := hud.StatusLines(snap)
	assert.Equal(t, "ROOM LIGHT: OFF", lines[4])
	assert.Equal(t, "JOURNAL: MEMORY ONLY", lines[len(lines)-1])
}

func TestRender(t *testing.T) {
	theme, err := hud.LookupTheme("jarvis")
	require.NoError(t, err)

	snap := kernel.Snapshot{
		Registers: resource.RegistersState{Load: 0.9},
		Emotion:   resource.LabelCalm,
		Messages: []feed.Message{
			{Text: "Room light activated."},
		},
	}

	out := hud.Render(snap, theme)
	assert.Contains(t, out, "CPU LOAD: 0.90")
	assert.Contains(t, out, "EMOTION: CALM")
	assert.Contains(t, out, "Room light activated.")
}
