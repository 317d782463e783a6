package resource

import "time"

const (
	defaultInitialDopamine  = 0.3
	defaultDecayDelta       = 0.001
	defaultHistorySize      = 64
	defaultCapacityMB       = 2000
	defaultCleanupThreshold = 0.85
	defaultSoftThreshold    = 0.70
	defaultMaxBlockAge      = 60 * time.Second
	defaultShrinkRatio      = 0.6
	defaultMaxBlocks        = 64
)

// Thresholds are the upper bounds (exclusive) of each emotion label's
// dopamine band. Anything at or above Satisfied is EXCITED.
type Thresholds struct {
	Low       float64 `json:"low,omitempty" yaml:"low,omitempty"`
	Calm      float64 `json:"calm,omitempty" yaml:"calm,omitempty"`
	Content   float64 `json:"content,omitempty" yaml:"content,omitempty"`
	Satisfied float64 `json:"satisfied,omitempty" yaml:"satisfied,omitempty"`
}

// EmotionConfig holds the emotion state machine parameters.
type EmotionConfig struct {
	Initial     float64    `json:"initial,omitempty" yaml:"initial,omitempty"`
	DecayDelta  float64    `json:"decay_delta,omitempty" yaml:"decay_delta,omitempty"`
	HistorySize int        `json:"history_size,omitempty" yaml:"history_size,omitempty"`
	Thresholds  Thresholds `json:"thresholds" yaml:"thresholds"`
}

// DefaultEmotionConfig returns the reference emotion constants.
func DefaultEmotionConfig() EmotionConfig {
	return EmotionConfig{
		Initial:     defaultInitialDopamine,
		DecayDelta:  defaultDecayDelta,
		HistorySize: defaultHistorySize,
		Thresholds: Thresholds{
			Low:       0.2,
			Calm:      0.4,
			Content:   0.7,
			Satisfied: 0.9,
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *EmotionConfig) Merge(source *EmotionConfig) {
	if source.Initial > 0 {
		c.Initial = source.Initial
	}
	if source.DecayDelta > 0 {
		c.DecayDelta = source.DecayDelta
	}
	if source.HistorySize > 0 {
		c.HistorySize = source.HistorySize
	}
	if source.Thresholds.Low > 0 {
		c.Thresholds.Low = source.Thresholds.Low
	}
	if source.Thresholds.Calm > 0 {
		c.Thresholds.Calm = source.Thresholds.Calm
	}
	if source.Thresholds.Content > 0 {
		c.Thresholds.Content = source.Thresholds.Content
	}
	if source.Thresholds.Satisfied > 0 {
		c.Thresholds.Satisfied = source.Thresholds.Satisfied
	}
}

// RAMConfig holds the simulated allocator's capacity and cleanup policy.
type RAMConfig struct {
	CapacityMB       float64       `json:"capacity_mb,omitempty" yaml:"capacity_mb,omitempty"`
	CleanupThreshold float64       `json:"cleanup_threshold,omitempty" yaml:"cleanup_threshold,omitempty"`
	SoftThreshold    float64       `json:"soft_threshold,omitempty" yaml:"soft_threshold,omitempty"`
	MaxBlockAge      time.Duration `json:"max_block_age,omitempty" yaml:"max_block_age,omitempty"`
	ShrinkRatio      float64       `json:"shrink_ratio,omitempty" yaml:"shrink_ratio,omitempty"`
	MaxBlocks        int           `json:"max_blocks,omitempty" yaml:"max_blocks,omitempty"`
}

// DefaultRAMConfig returns the reference allocator constants.
func DefaultRAMConfig() RAMConfig {
	return RAMConfig{
		CapacityMB:       defaultCapacityMB,
		CleanupThreshold: defaultCleanupThreshold,
		SoftThreshold:    defaultSoftThreshold,
		MaxBlockAge:      defaultMaxBlockAge,
		ShrinkRatio:      defaultShrinkRatio,
		MaxBlocks:        defaultMaxBlocks,
	}
}

// Merge applies non-zero values from source into c.
func (c *RAMConfig) Merge(source *RAMConfig) {
	if source.CapacityMB > 0 {
		c.CapacityMB = source.CapacityMB
	}
	if source.CleanupThreshold > 0 {
		c.CleanupThreshold = source.CleanupThreshold
	}
	if source.SoftThreshold > 0 {
		c.SoftThreshold = source.SoftThreshold
	}
	if source.MaxBlockAge > 0 {
		c.MaxBlockAge = source.MaxBlockAge
	}
	if source.ShrinkRatio > 0 {
		c.ShrinkRatio = source.ShrinkRatio
	}
	if source.MaxBlocks > 0 {
		c.MaxBlocks = source.MaxBlocks
	}
}
