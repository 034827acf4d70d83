package listing

import (
	"strings"

	"github.com/dailypixel/storydesk/internal/post"
	"github.com/dailypixel/storydesk/internal/textnorm"
)

// Page is the projection of a collection through a ViewState.
type Page struct {
	Items     []post.Post `json:"items"`
	Matched   int         `json:"matched"`
	Total     int         `json:"total"`
	HasMore   bool        `json:"has_more"`
	Remaining int         `json:"remaining"`
}

// entry caches the folded keys of one post.
type entry struct {
	post     post.Post
	title    string
	excerpt  string
	category string
	tags     map[string]bool
}

func indexPosts(posts []post.Post) []entry {
	index := make([]entry, len(posts))
	for i, p := range posts {
		tags := make(map[string]bool, len(p.Tags))
		for _, t := range p.Tags {
			if key := textnorm.Fold(t); key != "" {
				tags[key] = true
			}
		}
		index[i] = entry{
			post:     p,
			title:    textnorm.Fold(p.Title),
			excerpt:  textnorm.Fold(p.Excerpt),
			category: textnorm.Fold(p.Category),
			tags:     tags,
		}
	}
	return index
}

// Visible filters posts by v and returns the leading VisibleCount matches in
// source order. It has no side effects.
func Visible(posts []post.Post, v ViewState) Page {
	return project(indexPosts(posts), v)
}

func project(index []entry, v ViewState) Page {
	query := textnorm.Fold(v.Query)
	category := normalizeCategory(v.Category)
	tags := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		if key := textnorm.Fold(t); key != "" {
			tags = append(tags, key)
		}
	}

	limit := max(v.VisibleCount, 0)
	page := Page{Items: []post.Post{}, Total: len(index)}
	for _, e := range index {
		if !e.matches(query, category, tags) {
			continue
		}
		page.Matched++
		if len(page.Items) < limit {
			page.Items = append(page.Items, e.post)
		}
	}

	page.Remaining = page.Matched - len(page.Items)
	page.HasMore = page.Remaining > 0
	return page
}

// matches applies the category, tag, and text predicates, in that order.
func (e entry) matches(query, category string, tags []string) bool {
	if category != AllCategories && e.category != category {
		return false
	}
	for _, t := range tags {
		if !e.tags[t] {
			return false
		}
	}
	if query == "" {
		return true
	}
	return strings.Contains(e.title, query) || strings.Contains(e.excerpt, query)
}
