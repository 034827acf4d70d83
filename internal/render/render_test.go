package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailypixel/storydesk/internal/listing"
	"github.com/dailypixel/storydesk/internal/post"
)

type staticFetcher []post.Post

func (f staticFetcher) Fetch(context.Context) ([]post.Post, error) { return f, nil }
func (f staticFetcher) Location() string                           { return "stories.json" }

func samplePost() post.Post {
	return post.Post{
		Title:    "Rain Over Lagos",
		Author:   "Amara Obi",
		Date:     "Jun 18, 2025",
		Excerpt:  "The storm came early.",
		Category: "travel",
		Tags:     []string{"travel"},
		URL:      "stories/rain.html",
		Image:    "img/rain.jpg",
	}
}

func TestHTMLMount_InitiallyEmpty(t *testing.T) {
	m := NewHTMLMount("")
	assert.Contains(t, m.HTML(), `<div id="stories-container">`)
	assert.NotContains(t, m.HTML(), "story-card")
}

func TestHTMLMount_RenderCards(t *testing.T) {
	m := NewHTMLMount("storiesGrid")
	m.Render([]post.Post{samplePost()})
	require.NoError(t, m.Err())

	html := m.HTML()
	assert.Contains(t, html, `<div id="storiesGrid">`)
	assert.Contains(t, html, `<article class="story-card" data-category="travel" data-title="Rain Over Lagos">`)
	assert.Contains(t, html, `<a class="thumb" href="stories/rain.html">`)
	assert.Contains(t, html, `<img src="img/rain.jpg" alt="Rain Over Lagos">`)
	assert.Contains(t, html, `<p class="meta">Jun 18, 2025 • Amara Obi</p>`)
	assert.Contains(t, html, `<p class="excerpt">The storm came early.</p>`)
	assert.Contains(t, html, `Read More →`)
}

func TestHTMLMount_DefaultCategory(t *testing.T) {
	m := NewHTMLMount("")
	p := samplePost()
	p.Category = ""
	m.Render([]post.Post{p})
	assert.Contains(t, m.HTML(), `data-category="news"`)
}

func TestHTMLMount_EscapesFields(t *testing.T) {
	m := NewHTMLMount("")
	m.Render([]post.Post{{
		Title:   `<script>alert(1)</script>`,
		Excerpt: `Tom & "Jerry"`,
		URL:     "javascript:alert(1)",
	}})
	html := m.HTML()
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "Tom &amp; &#34;Jerry&#34;")
	assert.NotContains(t, html, `href="javascript:`)
}

func TestHTMLMount_RenderReplacesPrevious(t *testing.T) {
	m := NewHTMLMount("")
	a := samplePost()
	b := samplePost()
	b.Title = "Night Market"
	m.Render([]post.Post{a})
	m.Render([]post.Post{b})

	assert.NotContains(t, m.HTML(), "Rain Over Lagos")
	assert.Equal(t, 1, strings.Count(m.HTML(), "story-card"))
}

func TestHTMLMount_Message(t *testing.T) {
	m := NewHTMLMount("")
	m.Render([]post.Post{samplePost()})
	m.Message(listing.MessageError, listing.LoadFailedText)

	html := m.HTML()
	assert.Contains(t, html, `<p class="muted" data-state="error">Couldn’t load posts right now.</p>`)
	assert.NotContains(t, html, "story-card")
}

func TestButtonPager(t *testing.T) {
	p := NewButtonPager()
	assert.Contains(t, p.HTML(), "hidden")

	p.Update(listing.PagerState{Visible: true, Label: listing.LoadMoreLabel, Remaining: 4})
	html := p.HTML()
	assert.Contains(t, html, `id="loadMoreBtn"`)
	assert.Contains(t, html, `data-remaining="4"`)
	assert.Contains(t, html, ">Load More</button>")
	assert.NotContains(t, html, "hidden")
	assert.Equal(t, 4, p.State().Remaining)
}

func TestMountsWithController(t *testing.T) {
	posts := make([]post.Post, 8)
	for i := range posts {
		posts[i] = samplePost()
		posts[i].Title = "Story " + string(rune('A'+i))
	}

	mount := NewHTMLMount("")
	pager := NewButtonPager()
	c := listing.New(listing.Options{Policy: listing.Fixed(6), Mount: mount, Pager: pager})
	require.NoError(t, c.Load(context.Background(), staticFetcher(posts)))

	assert.Equal(t, 6, strings.Count(mount.HTML(), `class="story-card"`))
	assert.True(t, pager.State().Visible)
	assert.Equal(t, 2, pager.State().Remaining)

	c.LoadMore()
	assert.Equal(t, 8, strings.Count(mount.HTML(), `class="story-card"`))
	assert.False(t, pager.State().Visible)

	c.SetQuery("zzz")
	assert.Contains(t, mount.HTML(), listing.EmptyText)
}

func TestCard(t *testing.T) {
	out := Card(samplePost(), 60)
	assert.Contains(t, out, "Rain Over Lagos")
	assert.Contains(t, out, "Jun 18, 2025 • Amara Obi")
	assert.Contains(t, out, "stories/rain.html")
}

func TestMeta(t *testing.T) {
	assert.Equal(t, "Jun 18, 2025 • Amara Obi", Meta(samplePost()))
	assert.Equal(t, "Amara Obi", Meta(post.Post{Author: "Amara Obi"}))
	assert.Equal(t, "", Meta(post.Post{}))
}

func TestTextMount(t *testing.T) {
	m := NewTextMount(60)
	m.Render([]post.Post{samplePost()})
	assert.Contains(t, m.String(), "Rain Over Lagos")

	m.Message(listing.MessageEmpty, listing.EmptyText)
	assert.Contains(t, m.String(), listing.EmptyText)
	assert.NotContains(t, m.String(), "Rain Over Lagos")
}

func TestPagerLine(t *testing.T) {
	assert.Empty(t, PagerLine(listing.PagerState{}))
	assert.Contains(t, PagerLine(listing.PagerState{Visible: true, Label: "Load More", Remaining: 3}), "Load More (3 more)")
}

func TestSnapshotHTML(t *testing.T) {
	ctrl := listing.New(listing.Options{Policy: listing.Fixed(1)})
	require.NoError(t, ctrl.Load(context.Background(), staticFetcher{samplePost(), samplePost()}))

	html, err := SnapshotHTML("", ctrl.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, html, `<div id="stories-container">`)
	assert.Equal(t, 1, strings.Count(html, `class="story-card"`))
	assert.Contains(t, html, `data-remaining="1"`)

	ctrl.SetQuery("nothing like this")
	html, err = SnapshotHTML("grid", ctrl.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, html, `<div id="grid">`)
	assert.Contains(t, html, `data-state="empty"`)
	assert.Contains(t, html, listing.EmptyText)
	assert.NotContains(t, html, `class="story-card"`)
	assert.Contains(t, html, "hidden")
}
