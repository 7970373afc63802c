// Package sqlitestate implements the state.Store contract on a local SQLite
// file. It is the default durable store for single-user client processes:
// one small file next to the application, surviving restarts with no daemon.
package sqlitestate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/halcyonlabs/authflow/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS flow_state (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store defines a public type used by authflow APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	db *sql.DB
}

// Open describes the open operation and its observable behavior.
//
// Open creates or opens the state file at dsn (a file path, or ":memory:"
// for throwaway use) and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", state.ErrUnavailable, err)
	}

	// Single writer; avoids SQLITE_BUSY on concurrent flow callbacks.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", state.ErrUnavailable, err)
	}

	return &Store{db: db}, nil
}

// Put describes the put operation and its observable behavior.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flow_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", state.ErrUnavailable, err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM flow_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, state.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", state.ErrUnavailable, err)
	}
	return value, nil
}

// Delete describes the delete operation and its observable behavior.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM flow_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %v", state.ErrUnavailable, err)
	}
	return nil
}

// Close describes the close operation and its observable behavior.
func (s *Store) Close() error {
	return s.db.Close()
}
