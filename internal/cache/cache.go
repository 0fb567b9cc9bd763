// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists per-page model output in a local SQLite database
// so repeat conversions of unchanged pages skip the model call. The key is
// derived from the encoded image bytes plus the model and prompt, so any
// change to the page render, the model, or the prompt misses the cache.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "pagemark.db"

// Cache is a SQLite-backed store of page conversion results.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database under dir, creating the schema
// if it does not exist.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createSchema() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS results (
		key TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		model TEXT NOT NULL,
		markdown TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Key derives the cache key for one encoded page image under a given model
// and prompt.
func Key(imageData []byte, model, prompt string) string {
	h := sha256.New()
	h.Write(imageData)
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the cached Markdown for key. The second return value
// reports whether the key was present.
func (c *Cache) Lookup(ctx context.Context, key string) (string, bool, error) {
	var markdown string
	err := c.db.QueryRowContext(ctx,
		`SELECT markdown FROM results WHERE key = ?`, key).Scan(&markdown)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying cache: %w", err)
	}
	return markdown, true, nil
}

// Store records the Markdown produced for one page. An existing entry for
// the same key is replaced.
func (c *Cache) Store(ctx context.Context, key, source, model, markdown string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO results (key, source, model, markdown, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   source = excluded.source,
		   model = excluded.model,
		   markdown = excluded.markdown,
		   created_at = excluded.created_at`,
		key, source, model, markdown, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}
