// Package session persists the device's single crew session across restarts.
//
// The session is a one-row slot in a small local SQLite file. The sync core
// owns the slot exclusively: it writes on join/create, clears on leave, and
// validates whatever it finds at startup.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver (no CGO)

	"github.com/crewlink/crewlink/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
    slot INTEGER PRIMARY KEY CHECK (slot = 1),
    crew_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    color TEXT NOT NULL DEFAULT '',
    saved_at INTEGER NOT NULL
);
`

// Store is the SQLite-backed session slot.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the session database at path, creating parent
// directories and applying the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("session: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes sess into the slot, replacing whatever was there.
func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session (slot, crew_id, member_id, name, color, saved_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT (slot) DO UPDATE SET
		   crew_id = excluded.crew_id,
		   member_id = excluded.member_id,
		   name = excluded.name,
		   color = excluded.color,
		   saved_at = excluded.saved_at`,
		sess.CrewID, sess.Member.ID.String(), sess.Member.Name, sess.Member.Color,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Load reads the persisted session. An empty slot returns (nil, nil). A slot
// holding a record it cannot fully parse is returned as-is with the bad
// fields zeroed, so the caller's validation decides its fate — Load itself
// never invents an error out of stale data.
func (s *Store) Load(ctx context.Context) (*domain.Session, error) {
	var (
		sess     domain.Session
		memberID string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT crew_id, member_id, name, color FROM session WHERE slot = 1`,
	).Scan(&sess.CrewID, &memberID, &sess.Member.Name, &sess.Member.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}

	// A malformed member ID leaves Member.ID as uuid.Nil, which fails
	// Session.Valid and gets the slot cleared upstream.
	if id, err := uuid.Parse(memberID); err == nil {
		sess.Member.ID = id
	}

	return &sess, nil
}

// Clear removes the persisted session. Clearing an empty slot is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE slot = 1`); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
