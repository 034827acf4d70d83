// Package prefs persists reader preferences in a key-value store.
//
// Each feature owns fixed keys and is independent of the others. Values are
// plain strings, so the same records can be mirrored into browser storage by
// the preview server.
package prefs

import (
	"context"
	"database/sql"

	"github.com/dailypixel/storydesk/internal/db"
)

// KV is the storage capability every preference feature is built on.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// SQLiteKV stores values in the kv table.
type SQLiteKV struct {
	DB *sql.DB
}

// NewSQLiteKV wraps an initialized database.
func NewSQLiteKV(database *sql.DB) *SQLiteKV {
	return &SQLiteKV{DB: database}
}

// Get returns the value under key and whether it exists.
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	return db.GetValue(ctx, s.DB, key)
}

// Set stores value under key.
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	return db.PutValue(ctx, s.DB, key, value)
}
