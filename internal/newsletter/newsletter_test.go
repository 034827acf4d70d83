package newsletter

import (
	"context"
	"database/sql"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailypixel/storydesk/internal/db"
	"github.com/dailypixel/storydesk/internal/errors"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestValid(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"reader@example.com", true},
		{"  reader@example.com  ", true},
		{"a@b.c", true},
		{"", false},
		{"reader", false},
		{"reader@example", false},
		{"read er@example.com", false},
		{"@example.com", false},
		{"a@@b.com", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.email); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)

	out, err := Subscribe(ctx, database, "  Reader@Example.com ")
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, "Reader@Example.com", out.Email)
	assert.Equal(t, SuccessMessage, out.Message)
	_, err = ulid.Parse(out.ID)
	assert.NoError(t, err)

	again, err := Subscribe(ctx, database, "reader@example.COM")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, out.ID, again.ID)
	assert.Equal(t, SuccessMessage, again.Message)

	list, err := List(ctx, database)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSubscribe_Invalid(t *testing.T) {
	database := setupDB(t)

	_, err := Subscribe(context.Background(), database, "not-an-email")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidEmail))
	assert.Equal(t, "Please enter a valid email address.", errors.As(err).Message)

	list, err := List(context.Background(), database)
	require.NoError(t, err)
	assert.Empty(t, list)
}
