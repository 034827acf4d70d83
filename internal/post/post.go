// Package post defines the story entry shown on list pages and decodes it
// leniently from the site's JSON data documents.
package post

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Post is one content entry (story, article, news item).
type Post struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Date     string   `json:"date"`
	Excerpt  string   `json:"excerpt"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	URL      string   `json:"filePath"`
	Image    string   `json:"featuredImage"`
}

// DecodeStats reports what Decode had to tolerate.
type DecodeStats struct {
	Entries int `json:"entries"`
	Skipped int `json:"skipped"`
}

// Decode parses a data document: a JSON array of post records.
// Non-object entries are skipped. Absent or wrong-typed fields become empty
// values so that a single malformed entry never fails the whole document.
func Decode(data []byte) ([]Post, DecodeStats, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, DecodeStats{}, fmt.Errorf("expected a JSON array of posts: %w", err)
	}
	if raw == nil {
		return nil, DecodeStats{}, fmt.Errorf("expected a JSON array of posts, got null")
	}

	posts := make([]Post, 0, len(raw))
	stats := DecodeStats{Entries: len(raw)}
	for _, entry := range raw {
		p, ok := decodeEntry(entry)
		if !ok {
			stats.Skipped++
			continue
		}
		posts = append(posts, p)
	}
	return posts, stats, nil
}

func decodeEntry(entry json.RawMessage) (Post, bool) {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Post{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Post{}, false
	}

	return Post{
		Title:    str(fields, "title"),
		Author:   str(fields, "author"),
		Date:     str(fields, "date"),
		Excerpt:  str(fields, "excerpt"),
		Category: str(fields, "category"),
		Tags:     tags(fields["tags"]),
		URL:      str(fields, "filePath", "url"),
		Image:    str(fields, "featuredImage", "image"),
	}, true
}

// str returns the first non-blank string value among keys, unmodified.
func str(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// tags accepts an array of strings (other items dropped) or a single
// comma-separated string.
func tags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return nilIfEmpty(out)
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return SplitTags(joined)
	}
	return nil
}

// SplitTags splits a comma-separated tag list, trimming and dropping blanks.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return nilIfEmpty(out)
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
