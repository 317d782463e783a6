package command

import "time"

const (
	defaultMaxLength = 200
	defaultCooldown  = 600 * time.Millisecond
)

// DefaultAllowList is the safe-mode fragment list. A command is permitted when
// its lower-cased text contains any fragment.
var DefaultAllowList = []string{
	"oi", "olá", "ola", "hello",
	"luz", "light",
	"status",
	"emo", "humor", "feeling",
	"hora", "time",
	"descans", "vou sair", "rest", "idle",
	"ajud", "help",
	"desligar", "shutdown",
}

// Config holds validation parameters.
type Config struct {
	MaxLength int           `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Cooldown  time.Duration `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
	SafeMode  bool          `json:"safe_mode" yaml:"safe_mode"`
	AllowList []string      `json:"allow_list,omitempty" yaml:"allow_list,omitempty"`
}

// DefaultConfig returns the default validation configuration with safe mode
// enabled.
func DefaultConfig() Config {
	return Config{
		MaxLength: defaultMaxLength,
		Cooldown:  defaultCooldown,
		SafeMode:  true,
		AllowList: append([]string(nil), DefaultAllowList...),
	}
}

// Merge applies non-zero values from source into c. SafeMode is not merged;
// it is set directly by the configuration file or the command line.
func (c *Config) Merge(source *Config) {
	if source.MaxLength > 0 {
		c.MaxLength = source.MaxLength
	}
	if source.Cooldown > 0 {
		c.Cooldown = source.Cooldown
	}
	if len(source.AllowList) > 0 {
		c.AllowList = append([]string(nil), source.AllowList...)
	}
}
