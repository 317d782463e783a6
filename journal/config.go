package journal

const defaultMaxEntries = 500

// Config holds journal initialization parameters.
type Config struct {
	Backend    string `json:"backend,omitempty" yaml:"backend,omitempty"`         // file, sqlite, or memory; inferred from Path when empty.
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`               // Backing file; empty keeps the journal in memory.
	MaxEntries int    `json:"max_entries,omitempty" yaml:"max_entries,omitempty"` // Retention ceiling.
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig() Config {
	return Config{
		Path:       "hd_virtual.json",
		MaxEntries: defaultMaxEntries,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.MaxEntries > 0 {
		c.MaxEntries = source.MaxEntries
	}
}
