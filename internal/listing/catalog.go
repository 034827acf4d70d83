package listing

import (
	"github.com/dailypixel/storydesk/internal/post"
	"github.com/dailypixel/storydesk/internal/textnorm"
)

// Tags returns the tag cloud: every distinct tag (case-insensitively) in
// first-seen order, keeping the first spelling encountered.
func Tags(posts []post.Post) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range posts {
		for _, t := range p.Tags {
			key := textnorm.Fold(t)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the distinct non-empty categories in first-seen order.
func Categories(posts []post.Post) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range posts {
		key := textnorm.Fold(p.Category)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p.Category)
	}
	return out
}

// Recent returns the last n posts, newest (last in source order) first.
func Recent(posts []post.Post, n int) []post.Post {
	if n <= 0 || len(posts) == 0 {
		return []post.Post{}
	}
	start := max(len(posts)-n, 0)
	out := make([]post.Post, 0, len(posts)-start)
	for i := len(posts) - 1; i >= start; i-- {
		out = append(out, posts[i])
	}
	return out
}

// Related returns up to limit posts sharing at least one tag with tags, in
// source order, skipping any post titled exclude.
func Related(posts []post.Post, tags []string, exclude string, limit int) []post.Post {
	out := make([]post.Post, 0)
	if limit <= 0 {
		return out
	}

	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		if key := textnorm.Fold(t); key != "" {
			want[key] = true
		}
	}
	if len(want) == 0 {
		return out
	}

	skip := textnorm.Fold(exclude)
	for _, p := range posts {
		if skip != "" && textnorm.Fold(p.Title) == skip {
			continue
		}
		for _, t := range p.Tags {
			if want[textnorm.Fold(t)] {
				out = append(out, p)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// FindByTitle returns the first post whose folded title equals title's.
func FindByTitle(posts []post.Post, title string) (post.Post, bool) {
	key := textnorm.Fold(title)
	if key == "" {
		return post.Post{}, false
	}
	for _, p := range posts {
		if textnorm.Fold(p.Title) == key {
			return p, true
		}
	}
	return post.Post{}, false
}
