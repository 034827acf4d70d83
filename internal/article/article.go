// Package article loads individual story pages and derives their reading
// time and related stories.
package article

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/dailypixel/storydesk/internal/errors"
	"github.com/dailypixel/storydesk/internal/listing"
	"github.com/dailypixel/storydesk/internal/post"
)

// DefaultWordsPerMinute is the assumed reading speed.
const DefaultWordsPerMinute = 200

// pageSelector marks the story body inside a full HTML page.
const pageSelector = ".story-page"

// Reader fetches the raw bytes of a story page.
type Reader interface {
	Read(ctx context.Context) ([]byte, error)
	Location() string
}

// Meta is the story metadata taken from front matter or page markup.
type Meta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	Date     string   `json:"date,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags"`
}

// Article is a rendered story page.
type Article struct {
	Location string `json:"location"`
	Meta     Meta   `json:"meta"`
	HTML     string `json:"-"`
	Words    int    `json:"words"`
	Minutes  int    `json:"minutes"`
}

// ReadingLabel returns the "N min read" badge text.
func (a *Article) ReadingLabel() string {
	return fmt.Sprintf("%d min read", a.Minutes)
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
	),
)

// Load reads and parses the page behind r.
func Load(ctx context.Context, r Reader, wpm int) (*Article, error) {
	data, err := r.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(r.Location(), data, wpm)
}

// Parse builds an Article from page bytes. HTML pages (by extension or a
// leading '<') are counted as text; anything else is rendered as Markdown
// with optional front matter.
func Parse(location string, data []byte, wpm int) (*Article, error) {
	if isHTML(location, data) {
		return parseHTML(location, data, wpm)
	}
	return parseMarkdown(location, data, wpm)
}

// ReadingTime returns whole minutes needed to read words, never less than one.
func ReadingTime(words, wpm int) int {
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	minutes := int(math.Ceil(float64(words) / float64(wpm)))
	return max(minutes, 1)
}

// Related returns stories sharing at least one tag with a, excluding a itself.
func Related(posts []post.Post, a *Article, limit int) []post.Post {
	return listing.Related(posts, a.Meta.Tags, a.Meta.Title, limit)
}

func isHTML(location string, data []byte) bool {
	switch strings.ToLower(path.Ext(location)) {
	case ".html", ".htm":
		return true
	case ".md", ".markdown":
		return false
	}
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("<"))
}

func parseMarkdown(location string, data []byte, wpm int) (*Article, error) {
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		body = data
		fm = nil
	}

	src := body
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, errors.NewMalformedSource(location, err)
	}

	words := countWords(doc, src)
	meta := metaFromMap(fm)
	if meta.Title == "" {
		meta.Title = firstHeading(doc, src)
	}

	return &Article{
		Location: location,
		Meta:     meta,
		HTML:     buf.String(),
		Words:    words,
		Minutes:  ReadingTime(words, wpm),
	}, nil
}

// countWords counts words in text-bearing nodes of a Markdown document.
func countWords(doc ast.Node, src []byte) int {
	words := 0
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			words += len(strings.Fields(string(node.Segment.Value(src))))
		case *ast.String:
			words += len(strings.Fields(string(node.Value)))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				words += len(strings.Fields(string(seg.Value(src))))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return words
}

func firstHeading(doc ast.Node, src []byte) string {
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || title != "" {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			var b strings.Builder
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					b.Write(t.Segment.Value(src))
				}
			}
			title = strings.TrimSpace(b.String())
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

func metaFromMap(fm map[string]any) Meta {
	meta := Meta{Tags: []string{}}
	if fm == nil {
		return meta
	}
	meta.Title = stringField(fm["title"])
	meta.Author = stringField(fm["author"])
	meta.Date = stringField(fm["date"])
	meta.Category = stringField(fm["category"])

	switch v := fm["tags"].(type) {
	case string:
		meta.Tags = post.SplitTags(v)
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(stringField(item)); s != "" {
				meta.Tags = append(meta.Tags, s)
			}
		}
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	return meta
}

func stringField(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func parseHTML(location string, data []byte, wpm int) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewMalformedSource(location, err)
	}

	page := doc.Find(pageSelector).First()
	if page.Length() == 0 {
		page = doc.Find("body").First()
	}
	page.Find("script, style").Remove()

	meta := Meta{Tags: []string{}}
	if raw, ok := page.Attr("data-tags"); ok {
		meta.Tags = post.SplitTags(raw)
		if meta.Tags == nil {
			meta.Tags = []string{}
		}
	}
	meta.Category, _ = page.Attr("data-category")
	meta.Title = strings.TrimSpace(page.Find("h1").First().Text())
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	words := len(strings.Fields(page.Text()))
	return &Article{
		Location: location,
		Meta:     meta,
		HTML:     string(data),
		Words:    words,
		Minutes:  ReadingTime(words, wpm),
	}, nil
}
