package prefs

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/dailypixel/storydesk/internal/errors"
)

// BookmarksKey holds the JSON array of bookmarked links.
const BookmarksKey = "dailyPixelBookmarks"

// Bookmarks is an ordered set of bookmarked story links.
type Bookmarks struct {
	kv KV
	mu sync.Mutex
}

// NewBookmarks returns a bookmark set backed by kv.
func NewBookmarks(kv KV) *Bookmarks {
	return &Bookmarks{kv: kv}
}

// List returns bookmarked links in the order they were added.
// A corrupt stored value reads as an empty list.
func (b *Bookmarks) List(ctx context.Context) ([]string, error) {
	raw, ok, err := b.kv.Get(ctx, BookmarksKey)
	if err != nil {
		return nil, err
	}
	links := []string{}
	if !ok {
		return links, nil
	}
	if err := json.Unmarshal([]byte(raw), &links); err != nil || links == nil {
		return []string{}, nil
	}
	return links, nil
}

// Has reports whether link is bookmarked.
func (b *Bookmarks) Has(ctx context.Context, link string) (bool, error) {
	links, err := b.List(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(links, link) >= 0, nil
}

// Toggle adds link if absent and removes it if present.
// Returns whether link is bookmarked afterwards.
func (b *Bookmarks) Toggle(ctx context.Context, link string) (bool, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return false, errors.NewInvalidRequest("link is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	links, err := b.List(ctx)
	if err != nil {
		return false, err
	}

	added := false
	if i := indexOf(links, link); i >= 0 {
		links = append(links[:i], links[i+1:]...)
	} else {
		links = append(links, link)
		added = true
	}

	data, err := json.Marshal(links)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	if err := b.kv.Set(ctx, BookmarksKey, string(data)); err != nil {
		return false, err
	}
	return added, nil
}

func indexOf(links []string, link string) int {
	for i, l := range links {
		if l == link {
			return i
		}
	}
	return -1
}
