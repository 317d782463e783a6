package speech

import "time"

const (
	defaultCommand          = "espeak"
	defaultRate             = 145
	defaultVolume           = 1.0
	defaultVoice            = "en-us"
	defaultQueueSize        = 32
	defaultUtteranceTimeout = 30 * time.Second
	defaultDrainTimeout     = 2 * time.Second
)

// Config holds speech output parameters.
type Config struct {
	Enabled          bool          `json:"enabled" yaml:"enabled"`
	Command          string        `json:"command,omitempty" yaml:"command,omitempty"`
	Rate             int           `json:"rate,omitempty" yaml:"rate,omitempty"`     // Words per minute.
	Volume           float64       `json:"volume,omitempty" yaml:"volume,omitempty"` // 0..1 is normal range.
	Voice            string        `json:"voice,omitempty" yaml:"voice,omitempty"`
	QueueSize        int           `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	UtteranceTimeout time.Duration `json:"utterance_timeout,omitempty" yaml:"utterance_timeout,omitempty"`
	DrainTimeout     time.Duration `json:"drain_timeout,omitempty" yaml:"drain_timeout,omitempty"`
}

// DefaultConfig returns the default speech configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		Command:          defaultCommand,
		Rate:             defaultRate,
		Volume:           defaultVolume,
		Voice:            defaultVoice,
		QueueSize:        defaultQueueSize,
		UtteranceTimeout: defaultUtteranceTimeout,
		DrainTimeout:     defaultDrainTimeout,
	}
}

// Merge applies non-zero values from source into c. Enabled is not merged;
// disabling speech goes through the kernel permissions.
func (c *Config) Merge(source *Config) {
	if source.Command != "" {
		c.Command = source.Command
	}
	if source.Rate > 0 {
		c.Rate = source.Rate
	}
	if source.Volume > 0 {
		c.Volume = source.Volume
	}
	if source.Voice != "" {
		c.Voice = source.Voice
	}
	if source.QueueSize > 0 {
		c.QueueSize = source.QueueSize
	}
	if source.UtteranceTimeout > 0 {
		c.UtteranceTimeout = source.UtteranceTimeout
	}
	if source.DrainTimeout > 0 {
		c.DrainTimeout = source.DrainTimeout
	}
}
