// Package newsletter records newsletter signups.
package newsletter

import (
	"context"
	"crypto/rand"
	"database/sql"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dailypixel/storydesk/internal/db"
	"github.com/dailypixel/storydesk/internal/errors"
)

// SuccessMessage is shown after a signup is accepted.
const SuccessMessage = "Thanks for subscribing!"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SubscribeOutput contains the result of the Subscribe operation.
type SubscribeOutput struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Created bool   `json:"created"`
}

// Valid reports whether email looks like an address.
func Valid(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// Normalize returns the key addresses are de-duplicated on.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Subscribe validates and stores email. Subscribing an address twice
// succeeds and returns the original signup.
func Subscribe(ctx context.Context, database *sql.DB, email string) (*SubscribeOutput, error) {
	email = strings.TrimSpace(email)
	if email == "" || !emailPattern.MatchString(email) {
		return nil, errors.NewInvalidEmail(email)
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	sub := &db.Subscriber{
		ID:        id,
		Email:     email,
		EmailNorm: Normalize(email),
		CreatedAt: time.Now().Unix(),
	}

	err = db.InsertSubscriber(ctx, database, sub)
	if err == db.ErrUniqueConstraint {
		existing, getErr := db.GetSubscriberByEmail(ctx, database, sub.EmailNorm)
		if getErr != nil {
			return nil, getErr
		}
		return &SubscribeOutput{ID: existing.ID, Email: existing.Email, Message: SuccessMessage}, nil
	}
	if err != nil {
		return nil, err
	}

	return &SubscribeOutput{ID: sub.ID, Email: sub.Email, Message: SuccessMessage, Created: true}, nil
}

// List returns every signup, newest first.
func List(ctx context.Context, database *sql.DB) ([]db.Subscriber, error) {
	return db.ListSubscribers(ctx, database)
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
