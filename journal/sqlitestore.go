package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS journal_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version TEXT NOT NULL,
	created TEXT NOT NULL,
	commands INTEGER NOT NULL DEFAULT 0,
	dreams INTEGER NOT NULL DEFAULT 0,
	autosaves INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0,
	shutdowns INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS journal_entries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	kind TEXT NOT NULL,
	payload TEXT,
	timestamp TEXT NOT NULL,
	hash TEXT NOT NULL
);
`

type sqliteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed Store at path.
// Entries are inserted once and never updated; retention deletes the oldest
// rows.
func NewSQLiteStore(path string) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, err)
	}

	return &sqliteStore{db: db, path: path}, nil
}

func (s *sqliteStore) Load(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		doc     Document
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, created, commands, dreams, autosaves, errors, shutdowns FROM journal_meta WHERE id = 1`,
	).Scan(&doc.Version, &created,
		&doc.Counters.Commands, &doc.Counters.Dreams, &doc.Counters.Autosaves,
		&doc.Counters.Errors, &doc.Counters.Shutdowns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, s.path, err)
	}
	if doc.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("%w: %s: created: %v", ErrLoadFailed, s.path, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, payload, timestamp, hash FROM journal_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, s.path, err)
	}
	defer rows.Close()

	doc.Entries = []Entry{}
	for rows.Next() {
		var (
			e       Entry
			payload sql.NullString
			ts      string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &payload, &ts, &e.Hash); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, s.path, err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("%w: %s: entry %s: %v", ErrLoadFailed, s.path, e.ID, err)
		}
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("%w: %s: entry %s: %v", ErrLoadFailed, s.path, e.ID, err)
			}
		}
		doc.Entries = append(doc.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, s.path, err)
	}

	return &doc, nil
}

func (s *sqliteStore) Save(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, s.path, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO journal_meta (id, version, created, commands, dreams, autosaves, errors, shutdowns)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			commands = excluded.commands,
			dreams = excluded.dreams,
			autosaves = excluded.autosaves,
			errors = excluded.errors,
			shutdowns = excluded.shutdowns`,
		doc.Version, doc.Created.UTC().Format(time.RFC3339Nano),
		doc.Counters.Commands, doc.Counters.Dreams, doc.Counters.Autosaves,
		doc.Counters.Errors, doc.Counters.Shutdowns,
	)
	if err != nil {
		return fmt.Errorf("%w: %s: meta: %v", ErrSaveFailed, s.path, err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO journal_entries (id, kind, payload, timestamp, hash)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, s.path, err)
	}
	defer insert.Close()

	for _, e := range doc.Entries {
		var payload sql.NullString
		if len(e.Payload) > 0 {
			data, err := json.Marshal(e.Payload)
			if err != nil {
				return fmt.Errorf("%w: %s: entry %s: %v", ErrSaveFailed, s.path, e.ID, err)
			}
			payload = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := insert.ExecContext(ctx,
			e.ID, string(e.Kind), payload, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Hash,
		); err != nil {
			return fmt.Errorf("%w: %s: entry %s: %v", ErrSaveFailed, s.path, e.ID, err)
		}
	}

	if len(doc.Entries) == 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM journal_entries`)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM journal_entries WHERE seq < (SELECT seq FROM journal_entries WHERE id = ?)`,
			doc.Entries[0].ID)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: trim: %v", ErrSaveFailed, s.path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, s.path, err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
