package source

import (
	"bytes"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/dailypixel/storydesk/internal/post"
)

// feedDateLayout renders item dates the way the site's JSON documents do.
const feedDateLayout = "Jan 2, 2006"

// decodeFeed maps RSS/Atom items onto posts, in feed order.
func decodeFeed(data []byte) ([]post.Post, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	posts := make([]post.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		posts = append(posts, feedPost(item))
	}
	return posts, nil
}

func feedPost(item *gofeed.Item) post.Post {
	p := post.Post{
		Title:   strings.TrimSpace(item.Title),
		Excerpt: strings.TrimSpace(item.Description),
		URL:     strings.TrimSpace(item.Link),
	}

	switch {
	case item.PublishedParsed != nil:
		p.Date = item.PublishedParsed.Format(feedDateLayout)
	case item.UpdatedParsed != nil:
		p.Date = item.UpdatedParsed.Format(feedDateLayout)
	default:
		p.Date = strings.TrimSpace(item.Published)
	}

	if item.Author != nil {
		p.Author = strings.TrimSpace(item.Author.Name)
	}
	if p.Author == "" {
		for _, a := range item.Authors {
			if a != nil && strings.TrimSpace(a.Name) != "" {
				p.Author = strings.TrimSpace(a.Name)
				break
			}
		}
	}

	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); c != "" {
			p.Tags = append(p.Tags, c)
		}
	}
	if len(p.Tags) > 0 {
		p.Category = p.Tags[0]
	}

	if item.Image != nil {
		p.Image = strings.TrimSpace(item.Image.URL)
	}
	if p.Image == "" {
		for _, enc := range item.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") {
				p.Image = enc.URL
				break
			}
		}
	}
	return p
}
