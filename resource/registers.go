// Package resource holds the kernel's simulated machine state: the CPU
// registers, the RAM allocator, the emotion state machine, and the light
// switch. Each aggregate owns its data behind its own lock and is mutated only
// through its methods. Nothing here performs I/O.
package resource

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// State is the lifecycle state of the kernel registers.
type State string

const (
	StateBoot     State = "BOOT"
	StateActive   State = "ACTIVE"
	StateIdle     State = "IDLE"
	StateShutdown State = "SHUTDOWN"
)

// RegistersState is a point-in-time copy of the registers.
type RegistersState struct {
	State        State     `json:"state"`
	Load         float64   `json:"load"`
	UptimeStart  time.Time `json:"uptime_start"`
	CommandCount uint64    `json:"command_count"`
	ErrorCount   uint64    `json:"error_count"`
}

// Registers are the CPU-side counters. SHUTDOWN is terminal: once entered,
// SetState rejects every other transition.
type Registers struct {
	state        State
	load         float64
	uptimeStart  time.Time
	commandCount uint64
	errorCount   uint64
	mu           sync.RWMutex
}

// NewRegisters creates registers in the BOOT state.
func NewRegisters(start time.Time) *Registers {
	return &Registers{state: StateBoot, uptimeStart: start}
}

// SetState transitions to s. Returns ErrTerminalState when already shut down.
func (r *Registers) SetState(s State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateShutdown && s != StateShutdown {
		return ErrTerminalState
	}
	r.state = s
	return nil
}

func (r *Registers) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// SetLoad stores the load clamped to [0,1].
func (r *Registers) SetLoad(load float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load = clamp01(load)
}

func (r *Registers) Load() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load
}

func (r *Registers) IncCommands() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commandCount++
	return r.commandCount
}

func (r *Registers) IncErrors() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorCount++
	return r.errorCount
}

func (r *Registers) Snapshot() RegistersState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RegistersState{
		State:        r.state,
		Load:         r.load,
		UptimeStart:  r.uptimeStart,
		CommandCount: r.commandCount,
		ErrorCount:   r.errorCount,
	}
}

// NextLoad draws the next simulated CPU load, rounded to two decimals. An
// idle machine stays in a lower band.
func NextLoad(rng *rand.Rand, state State) float64 {
	lo, hi := 0.08, 0.92
	if state == StateIdle {
		lo, hi = 0.05, 0.35
	}
	v := lo + rng.Float64()*(hi-lo)
	return math.Round(v*100) / 100
}
