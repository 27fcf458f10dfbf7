package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS preferences (
	origin TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (origin, key)
);
`

// SQLite is a durable [Store] kept in a single SQLite file. Rows are scoped by
// origin so several applications can share one database.
type SQLite struct {
	db     *sql.DB
	origin string
}

// OpenSQLite opens (or creates) the database at path and bootstraps the
// schema. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path, origin string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	if origin == "" {
		origin = "gp"
	}
	return &SQLite{db: db, origin: origin}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE origin = ? AND key = ?`, s.origin, key,
	).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (origin, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(origin, key) DO UPDATE SET value = excluded.value`,
		s.origin, key, value,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE origin = ? AND key = ?`, s.origin, key,
	); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// WithOrigin returns a store sharing the database but scoped to origin.
// Closing either store closes the shared handle.
func (s *SQLite) WithOrigin(origin string) *SQLite {
	if origin == "" {
		origin = s.origin
	}
	return &SQLite{db: s.db, origin: origin}
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
