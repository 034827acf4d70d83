package prefs

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/dailypixel/storydesk/internal/errors"
)

// Likes counts likes per story title. Titles are weak references: a like
// survives the story being renamed or removed.
type Likes struct {
	kv KV
	mu sync.Mutex
}

// NewLikes returns a like counter backed by kv.
func NewLikes(kv KV) *Likes {
	return &Likes{kv: kv}
}

// LikesKey returns the storage key for a title.
func LikesKey(title string) string {
	return "likes_" + title
}

// Count returns the current like count. Unparseable values count as zero.
func (l *Likes) Count(ctx context.Context, title string) (int, error) {
	if strings.TrimSpace(title) == "" {
		return 0, errors.NewInvalidRequest("title is required")
	}
	return l.count(ctx, title)
}

func (l *Likes) count(ctx context.Context, title string) (int, error) {
	raw, ok, err := l.kv.Get(ctx, LikesKey(title))
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// Like increments the count for title and returns the new value.
func (l *Likes) Like(ctx context.Context, title string) (int, error) {
	if strings.TrimSpace(title) == "" {
		return 0, errors.NewInvalidRequest("title is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.count(ctx, title)
	if err != nil {
		return 0, err
	}
	n++
	if err := l.kv.Set(ctx, LikesKey(title), strconv.Itoa(n)); err != nil {
		return 0, err
	}
	return n, nil
}
