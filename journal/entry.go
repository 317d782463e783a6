package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Kind classifies a journal entry.
type Kind string

const (
	KindCommand  Kind = "command"
	KindDream    Kind = "dream"
	KindAutosave Kind = "autosave"
	KindShutdown Kind = "shutdown"
	KindError    Kind = "error"
)

// Entry is one immutable journal record. Hash is the SHA-256 of the entry's
// canonical serialization with the hash field excluded.
type Entry struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Hash      string         `json:"hash"`
}

type canonicalEntry struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Canonical returns the byte form the hash is computed over. Map keys are
// emitted sorted and the timestamp is rendered in UTC, so the result is
// stable across a persist/reload cycle.
func (e Entry) Canonical() ([]byte, error) {
	return json.Marshal(canonicalEntry{
		ID:        e.ID,
		Kind:      e.Kind,
		Payload:   e.Payload,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}

// ComputeHash returns the hex SHA-256 of the entry's canonical form.
func (e Entry) ComputeHash() (string, error) {
	data, err := e.Canonical()
	if err != nil {
		return "", fmt.Errorf("canonicalize entry %s: %w", e.ID, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Verify reports whether the stored hash matches the entry's fields.
func (e Entry) Verify() bool {
	h, err := e.ComputeHash()
	return err == nil && h == e.Hash
}

// normalizePayload round-trips the payload through JSON so that the in-memory
// value hashes exactly like the value read back from any store.
func normalizePayload(payload map[string]any) (map[string]any, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return out, nil
}
