package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Store persists a journal Document. Implementations perform I/O on each call
// and keep no reference to the document passed to Save.
type Store interface {
	// Load returns the persisted document, or nil when nothing has been
	// persisted yet.
	Load(ctx context.Context) (*Document, error)
	// Save replaces the persisted document with doc.
	Save(ctx context.Context, doc *Document) error
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Config.Backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// backendFor infers the backend from the path when none is configured.
func backendFor(cfg *Config) string {
	if cfg.Backend != "" {
		return cfg.Backend
	}
	if cfg.Path == "" {
		return BackendMemory
	}
	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".db", ".sqlite", ".sqlite3":
		return BackendSQLite
	default:
		return BackendFile
	}
}

// NewStore creates a Store from configuration.
func NewStore(cfg *Config) (Store, error) {
	switch backend := backendFor(cfg); backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: file backend requires a path", ErrLoadFailed)
		}
		return NewFileStore(cfg.Path), nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: sqlite backend requires a path", ErrLoadFailed)
		}
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}
