package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/assistant/command"
	"github.com/tailored-agentic-units/assistant/feed"
	"github.com/tailored-agentic-units/assistant/journal"
	"github.com/tailored-agentic-units/assistant/resource"
	"github.com/tailored-agentic-units/assistant/speech"
)

const (
	defaultTickInterval        = 50 * time.Millisecond
	defaultMaintenanceInterval = 5 * time.Second
	defaultAutosaveInterval    = 30 * time.Second
	defaultDreamInterval       = 20 * time.Second
	defaultDreamLoadThreshold  = 0.3
	defaultCommandBlockMB      = 8
	defaultDreamBlockMB        = 24
	defaultQueueSize           = 64
	defaultTheme               = "jarvis"
	defaultAnimationSpeed      = 0.02
)

// DefaultDreams is the narration vocabulary used when none is configured.
var DefaultDreams = []string{
	"Reviewing memory blocks. Nothing out of place.",
	"Simulating a quiet city at night. Traffic is light.",
	"Counting photons from the room sensor. The count is peaceful.",
	"Replaying earlier commands. They were well formed.",
	"Drafting a better cooling curve for the processor.",
	"Imagining the light at forty percent. It looks calm.",
	"Indexing the journal. Every hash still matches.",
	"Listening to the idle cycles. They sound like rain.",
}

// Permissions gate the kernel's peripherals.
type Permissions struct {
	Voice        bool `json:"voice" yaml:"voice"`                 // Speech output.
	Disk         bool `json:"disk" yaml:"disk"`                   // Persistent journal; false keeps it in memory.
	LightControl bool `json:"light_control" yaml:"light_control"` // Light routes may mutate the switch.
}

// Deltas are the dopamine adjustments applied by routes and cleanups.
type Deltas struct {
	Greeting      float64 `json:"greeting,omitempty" yaml:"greeting,omitempty"`
	LightOn       float64 `json:"light_on,omitempty" yaml:"light_on,omitempty"`
	LightOff      float64 `json:"light_off,omitempty" yaml:"light_off,omitempty"`
	Rest          float64 `json:"rest,omitempty" yaml:"rest,omitempty"`
	Fallback      float64 `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	CleanupRelief float64 `json:"cleanup_relief,omitempty" yaml:"cleanup_relief,omitempty"`
}

// DreamConfig controls idle narration.
type DreamConfig struct {
	Interval      time.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
	LoadThreshold float64       `json:"load_threshold,omitempty" yaml:"load_threshold,omitempty"`
	BlockMB       float64       `json:"block_mb,omitempty" yaml:"block_mb,omitempty"`
	Vocabulary    []string      `json:"vocabulary,omitempty" yaml:"vocabulary,omitempty"`
}

// Presentation holds options read by the display layer only.
type Presentation struct {
	Theme          string  `json:"theme,omitempty" yaml:"theme,omitempty"`
	AnimationSpeed float64 `json:"animation_speed,omitempty" yaml:"animation_speed,omitempty"`
}

// Config holds initialization parameters for all kernel subsystems.
// Each subsystem section delegates to that subsystem's constructor.
type Config struct {
	Operator            string                 `json:"operator,omitempty" yaml:"operator,omitempty"`
	TickInterval        time.Duration          `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"`
	MaintenanceInterval time.Duration          `json:"maintenance_interval,omitempty" yaml:"maintenance_interval,omitempty"`
	AutosaveInterval    time.Duration          `json:"autosave_interval,omitempty" yaml:"autosave_interval,omitempty"`
	AutoCleanup         bool                   `json:"auto_cleanup" yaml:"auto_cleanup"`
	CommandBlockMB      float64                `json:"command_block_mb,omitempty" yaml:"command_block_mb,omitempty"`
	QueueSize           int                    `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	ShutdownOnEOF       bool                   `json:"shutdown_on_eof" yaml:"shutdown_on_eof"`
	Permissions         Permissions            `json:"permissions" yaml:"permissions"`
	Deltas              Deltas                 `json:"deltas" yaml:"deltas"`
	Dream               DreamConfig            `json:"dream" yaml:"dream"`
	Emotion             resource.EmotionConfig `json:"emotion" yaml:"emotion"`
	RAM                 resource.RAMConfig     `json:"ram" yaml:"ram"`
	Feed                feed.Config            `json:"feed" yaml:"feed"`
	Journal             journal.Config         `json:"journal" yaml:"journal"`
	Speech              speech.Config          `json:"speech" yaml:"speech"`
	Command             command.Config         `json:"command" yaml:"command"`
	Presentation        Presentation           `json:"presentation" yaml:"presentation"`
}

// DefaultConfig returns a Config with the reference constants for all
// subsystems.
func DefaultConfig() Config {
	return Config{
		TickInterval:        defaultTickInterval,
		MaintenanceInterval: defaultMaintenanceInterval,
		AutosaveInterval:    defaultAutosaveInterval,
		AutoCleanup:         true,
		CommandBlockMB:      defaultCommandBlockMB,
		QueueSize:           defaultQueueSize,
		ShutdownOnEOF:       true,
		Permissions: Permissions{
			Voice:        true,
			Disk:         true,
			LightControl: true,
		},
		Deltas: Deltas{
			Greeting:      0.05,
			LightOn:       0.08,
			LightOff:      0.05,
			Rest:          0.10,
			Fallback:      0.02,
			CleanupRelief: 0.02,
		},
		Dream: DreamConfig{
			Interval:      defaultDreamInterval,
			LoadThreshold: defaultDreamLoadThreshold,
			BlockMB:       defaultDreamBlockMB,
			Vocabulary:    append([]string(nil), DefaultDreams...),
		},
		Emotion: resource.DefaultEmotionConfig(),
		RAM:     resource.DefaultRAMConfig(),
		Feed:    feed.DefaultConfig(),
		Journal: journal.DefaultConfig(),
		Speech:  speech.DefaultConfig(),
		Command: command.DefaultConfig(),
		Presentation: Presentation{
			Theme:          defaultTheme,
			AnimationSpeed: defaultAnimationSpeed,
		},
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method. Boolean switches are not merged because false is
// indistinguishable from unset; LoadConfig applies the ones a file names.
func (c *Config) Merge(source *Config) {
	c.Emotion.Merge(&source.Emotion)
	c.RAM.Merge(&source.RAM)
	c.Feed.Merge(&source.Feed)
	c.Journal.Merge(&source.Journal)
	c.Speech.Merge(&source.Speech)
	c.Command.Merge(&source.Command)

	if source.Operator != "" {
		c.Operator = source.Operator
	}
	if source.TickInterval > 0 {
		c.TickInterval = source.TickInterval
	}
	if source.MaintenanceInterval > 0 {
		c.MaintenanceInterval = source.MaintenanceInterval
	}
	if source.AutosaveInterval > 0 {
		c.AutosaveInterval = source.AutosaveInterval
	}
	if source.CommandBlockMB > 0 {
		c.CommandBlockMB = source.CommandBlockMB
	}
	if source.QueueSize > 0 {
		c.QueueSize = source.QueueSize
	}

	if source.Deltas.Greeting > 0 {
		c.Deltas.Greeting = source.Deltas.Greeting
	}
	if source.Deltas.LightOn > 0 {
		c.Deltas.LightOn = source.Deltas.LightOn
	}
	if source.Deltas.LightOff > 0 {
		c.Deltas.LightOff = source.Deltas.LightOff
	}
	if source.Deltas.Rest > 0 {
		c.Deltas.Rest = source.Deltas.Rest
	}
	if source.Deltas.Fallback > 0 {
		c.Deltas.Fallback = source.Deltas.Fallback
	}
	if source.Deltas.CleanupRelief > 0 {
		c.Deltas.CleanupRelief = source.Deltas.CleanupRelief
	}

	if source.Dream.Interval > 0 {
		c.Dream.Interval = source.Dream.Interval
	}
	if source.Dream.LoadThreshold > 0 {
		c.Dream.LoadThreshold = source.Dream.LoadThreshold
	}
	if source.Dream.BlockMB > 0 {
		c.Dream.BlockMB = source.Dream.BlockMB
	}
	if len(source.Dream.Vocabulary) > 0 {
		c.Dream.Vocabulary = append([]string(nil), source.Dream.Vocabulary...)
	}

	if source.Presentation.Theme != "" {
		c.Presentation.Theme = source.Presentation.Theme
	}
	if source.Presentation.AnimationSpeed > 0 {
		c.Presentation.AnimationSpeed = source.Presentation.AnimationSpeed
	}
}

// switches records the boolean options a file sets explicitly.
type switches struct {
	AutoCleanup   *bool `yaml:"auto_cleanup"`
	ShutdownOnEOF *bool `yaml:"shutdown_on_eof"`
	Permissions   struct {
		Voice        *bool `yaml:"voice"`
		Disk         *bool `yaml:"disk"`
		LightControl *bool `yaml:"light_control"`
	} `yaml:"permissions"`
	Speech struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"speech"`
	Command struct {
		SafeMode *bool `yaml:"safe_mode"`
	} `yaml:"command"`
}

func (s *switches) apply(c *Config) {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.AutoCleanup, s.AutoCleanup)
	set(&c.ShutdownOnEOF, s.ShutdownOnEOF)
	set(&c.Permissions.Voice, s.Permissions.Voice)
	set(&c.Permissions.Disk, s.Permissions.Disk)
	set(&c.Permissions.LightControl, s.Permissions.LightControl)
	set(&c.Speech.Enabled, s.Speech.Enabled)
	set(&c.Command.SafeMode, s.Command.SafeMode)
}

// LoadConfig reads a YAML or JSON config file, merges it with defaults, and
// returns the resulting Config. Zero values and missing keys keep their
// defaults; unknown keys are ignored. Durations are written as Go duration
// strings ("600ms", "5s").
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(filename), ".json") {
		if data, err = jsonToYAML(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	var flags switches
	if err := yaml.Unmarshal(data, &flags); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	flags.apply(&cfg)
	return &cfg, nil
}

// jsonToYAML re-encodes a JSON document as YAML so that both formats share
// one decoder and its duration handling.
func jsonToYAML(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// YAML renders the effective configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
