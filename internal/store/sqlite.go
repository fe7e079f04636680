package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS blobs (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// SQLiteBlob stores the payload as one row of a key/value table.
type SQLiteBlob struct {
	db  *sql.DB
	key string
}

// OpenSQLiteBlob opens (or creates) the database at path and ensures the
// key/value table exists.
func OpenSQLiteBlob(ctx context.Context, path, key string) (*SQLiteBlob, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if key == "" {
		key = DefaultKey
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps writes serialized inside the process.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create blobs table: %w", err)
	}
	return &SQLiteBlob{db: db, key: key}, nil
}

// Close releases the database handle.
func (s *SQLiteBlob) Close() error {
	return s.db.Close()
}

func (s *SQLiteBlob) Read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, s.key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *SQLiteBlob) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		s.key, data)
	return err
}

func (s *SQLiteBlob) Remove(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, s.key)
	return err
}

// Ping inserts and deletes a scratch row, so a read-only database is
// reported as unavailable.
func (s *SQLiteBlob) Ping(ctx context.Context) error {
	scratch := s.key + ":ping"
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO blobs (key, value) VALUES (?, ?)`, scratch, []byte{}); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, scratch)
	return err
}
