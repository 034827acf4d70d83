package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dailypixel/storydesk/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.StoryError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// Subscriber is one newsletter signup.
type Subscriber struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	EmailNorm string `json:"-"`
	CreatedAt int64  `json:"created_at"`
}

// GetValue returns the value stored under key and whether it exists.
func GetValue(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewInternal(err)
	}
	return value, true, nil
}

// PutValue stores value under key, replacing any previous value.
func PutValue(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func DeleteValue(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertSubscriber stores a newsletter signup.
// Returns ErrUniqueConstraint when the normalized address already exists.
func InsertSubscriber(ctx context.Context, db *sql.DB, s *Subscriber) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO subscribers (id, email_raw, email_norm, created_at) VALUES (?, ?, ?, ?)
	`, s.ID, s.Email, s.EmailNorm, s.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetSubscriberByEmail looks up a signup by normalized address.
func GetSubscriberByEmail(ctx context.Context, db *sql.DB, emailNorm string) (*Subscriber, error) {
	s := &Subscriber{}
	err := db.QueryRowContext(ctx, `
		SELECT id, email_raw, email_norm, created_at FROM subscribers WHERE email_norm = ?
	`, emailNorm).Scan(&s.ID, &s.Email, &s.EmailNorm, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("subscriber", emailNorm)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// ListSubscribers returns signups, newest first.
func ListSubscribers(ctx context.Context, db *sql.DB) ([]Subscriber, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, email_raw, email_norm, created_at FROM subscribers
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []Subscriber{}
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.EmailNorm, &s.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
