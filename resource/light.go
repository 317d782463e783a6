package resource

import "sync"

// MaxIntensity is the brightest light setting.
const MaxIntensity = 100

// LightState is a point-in-time copy of the switch.
type LightState struct {
	On        bool `json:"on"`
	Intensity int  `json:"intensity"`
}

// Light is the logical room light. It controls no hardware.
type Light struct {
	on        bool
	intensity int
	mu        sync.RWMutex
}

func NewLight() *Light {
	return &Light{}
}

// TurnOn switches the light on at the given intensity, clamped to
// [0, MaxIntensity]. Returns false when the light was already on at that
// intensity.
func (l *Light) TurnOn(intensity int) bool {
	intensity = max(0, min(MaxIntensity, intensity))

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.on && l.intensity == intensity {
		return false
	}
	l.on = true
	l.intensity = intensity
	return true
}

// TurnOff switches the light off. Returns false when it was already off.
func (l *Light) TurnOff() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.on {
		return false
	}
	l.on = false
	l.intensity = 0
	return true
}

func (l *Light) State() LightState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return LightState{On: l.on, Intensity: l.intensity}
}
