// Package samplecache memoizes transcription results across runs,
// keyed by the media file's content hash and a sample's start time.
// It is optional (spec §6 widened): disabled unless the caller
// supplies a cache directory. Adapted from internal/storage/db.go's
// Open/pragma/go:embed-schema pattern.
package samplecache

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Cache is a SQLite-backed memoization table for sample transcripts.
type Cache struct {
	db    *sql.DB
	RunID string
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}

	return &Cache{db: db, RunID: uuid.NewString()}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns a previously cached transcript for (mediaHash,
// startTime), if one exists.
func (c *Cache) Lookup(ctx context.Context, mediaHash string, startTime float64) (transcript string, ok bool, err error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT transcript FROM transcripts WHERE media_hash = ? AND start_time = ?`,
		mediaHash, startTime)
	if err := row.Scan(&transcript); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return transcript, true, nil
}

// Store memoizes a transcript for (mediaHash, startTime), overwriting
// any prior entry for the same key.
func (c *Cache) Store(ctx context.Context, mediaHash string, startTime, duration float64, transcript string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO transcripts (media_hash, start_time, duration, transcript, run_id)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(media_hash, start_time) DO UPDATE SET
		   duration = excluded.duration,
		   transcript = excluded.transcript,
		   run_id = excluded.run_id,
		   created_at = datetime('now')`,
		mediaHash, startTime, duration, transcript, c.RunID)
	return err
}
