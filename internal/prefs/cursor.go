package prefs

import (
	"context"
	"strconv"
)

// Keys for the saved pagination cursor.
const (
	CursorIndexKey  = "currentIndex"
	CursorScrollKey = "scrollPosition"
)

// Position is a saved place in the story list.
type Position struct {
	Index  int `json:"index"`
	Scroll int `json:"scroll"`
}

// Cursor saves and restores how far down the list a reader got.
type Cursor struct {
	kv KV
}

// NewCursor returns a cursor store backed by kv.
func NewCursor(kv KV) *Cursor {
	return &Cursor{kv: kv}
}

// Save stores pos.
func (c *Cursor) Save(ctx context.Context, pos Position) error {
	if err := c.kv.Set(ctx, CursorIndexKey, strconv.Itoa(pos.Index)); err != nil {
		return err
	}
	return c.kv.Set(ctx, CursorScrollKey, strconv.Itoa(pos.Scroll))
}

// Restore returns the saved position. A missing or unparseable index falls
// back to fallback, a missing scroll to zero.
func (c *Cursor) Restore(ctx context.Context, fallback int) (Position, error) {
	pos := Position{Index: fallback}

	if raw, ok, err := c.kv.Get(ctx, CursorIndexKey); err != nil {
		return pos, err
	} else if ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			pos.Index = n
		}
	}
	if raw, ok, err := c.kv.Get(ctx, CursorScrollKey); err != nil {
		return pos, err
	} else if ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			pos.Scroll = n
		}
	}
	return pos, nil
}
