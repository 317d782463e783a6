package resource

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"time"
)

// Block is one simulated allocation.
type Block struct {
	Reason    string    `json:"reason"`
	SizeMB    float64   `json:"size_mb"`
	Allocated time.Time `json:"allocated"`
}

// Cleanup describes one cleanup pass.
type Cleanup struct {
	BeforeMB float64
	AfterMB  float64
	Removed  int
}

// Allocation is the result of RAM.Allocate.
type Allocation struct {
	Block   Block
	Cleanup *Cleanup // Set when usage crossed the cleanup threshold first.
	Evicted *Block   // Set when the block list overflowed.
}

// RAMState is a point-in-time copy of the allocator.
type RAMState struct {
	UsedMB     float64 `json:"used_mb"`
	CapacityMB float64 `json:"capacity_mb"`
	Blocks     []Block `json:"blocks,omitempty"`
}

// Fraction returns UsedMB / CapacityMB.
func (s RAMState) Fraction() float64 {
	if s.CapacityMB <= 0 {
		return 0
	}
	return s.UsedMB / s.CapacityMB
}

// RAM is the simulated allocator. UsedMB always equals the sum of the block
// sizes: every mutation recomputes it from the block list while holding the
// lock.
type RAM struct {
	blocks []Block
	usedMB float64
	cfg    RAMConfig
	now    func() time.Time
	mu     sync.RWMutex
}

// NewRAM creates an empty allocator. Out-of-range policy values fall back to
// the defaults. A nil now uses time.Now.
func NewRAM(cfg RAMConfig, now func() time.Time) *RAM {
	if now == nil {
		now = time.Now
	}
	def := DefaultRAMConfig()
	if cfg.CapacityMB <= 0 {
		cfg.CapacityMB = def.CapacityMB
	}
	if cfg.ShrinkRatio <= 0 || cfg.ShrinkRatio >= 1 {
		cfg.ShrinkRatio = def.ShrinkRatio
	}
	if cfg.MaxBlocks <= 0 {
		cfg.MaxBlocks = def.MaxBlocks
	}
	if cfg.CleanupThreshold <= 0 {
		cfg.CleanupThreshold = def.CleanupThreshold
	}
	if cfg.SoftThreshold <= 0 {
		cfg.SoftThreshold = def.SoftThreshold
	}
	if cfg.MaxBlockAge <= 0 {
		cfg.MaxBlockAge = def.MaxBlockAge
	}
	return &RAM{cfg: cfg, now: now}
}

// Allocate records a new block. When usage is above the cleanup threshold the
// cleanup runs before the block is added. If the list then exceeds MaxBlocks
// the oldest block is evicted.
func (r *RAM) Allocate(sizeMB float64, reason string) (Allocation, error) {
	if sizeMB <= 0 || math.IsNaN(sizeMB) || math.IsInf(sizeMB, 0) || sizeMB > r.cfg.CapacityMB {
		return Allocation{}, fmt.Errorf("%w: %v", ErrInvalidSize, sizeMB)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var result Allocation

	if r.usedMB/r.cfg.CapacityMB > r.cfg.CleanupThreshold {
		c := r.cleanupLocked()
		result.Cleanup = &c
	}

	block := Block{Reason: reason, SizeMB: sizeMB, Allocated: r.now()}
	r.blocks = append(r.blocks, block)

	if len(r.blocks) > r.cfg.MaxBlocks {
		evicted := r.blocks[0]
		r.blocks = slices.Delete(r.blocks, 0, 1)
		result.Evicted = &evicted
	}

	r.usedMB = sumBlocks(r.blocks)
	result.Block = block
	return result, nil
}

// Maintain runs the cleanup when usage exceeds the soft threshold. The
// boolean reports whether a cleanup ran.
func (r *RAM) Maintain() (Cleanup, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.usedMB/r.cfg.CapacityMB <= r.cfg.SoftThreshold {
		return Cleanup{}, false
	}
	return r.cleanupLocked(), true
}

// cleanupLocked drops blocks older than MaxBlockAge and scales the remaining
// sizes by ShrinkRatio.
func (r *RAM) cleanupLocked() Cleanup {
	before := r.usedMB
	cutoff := r.now().Add(-r.cfg.MaxBlockAge)

	kept := r.blocks[:0]
	removed := 0
	for _, b := range r.blocks {
		if b.Allocated.Before(cutoff) {
			removed++
			continue
		}
		b.SizeMB *= r.cfg.ShrinkRatio
		kept = append(kept, b)
	}
	clear(r.blocks[len(kept):])
	r.blocks = kept
	r.usedMB = sumBlocks(r.blocks)

	return Cleanup{BeforeMB: before, AfterMB: r.usedMB, Removed: removed}
}

func (r *RAM) UsedMB() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.usedMB
}

func (r *RAM) CapacityMB() float64 {
	return r.cfg.CapacityMB
}

// Fraction returns the current usage fraction of capacity.
func (r *RAM) Fraction() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.usedMB / r.cfg.CapacityMB
}

// State returns a copy of the allocator including its blocks.
func (r *RAM) State() RAMState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RAMState{
		UsedMB:     r.usedMB,
		CapacityMB: r.cfg.CapacityMB,
		Blocks:     slices.Clone(r.blocks),
	}
}

func sumBlocks(blocks []Block) float64 {
	var total float64
	for _, b := range blocks {
		total += b.SizeMB
	}
	return total
}
