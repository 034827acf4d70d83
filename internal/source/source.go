// Package source retrieves post collections from data documents on disk or
// over HTTP. JSON arrays and RSS/Atom feeds are both accepted.
package source

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dailypixel/storydesk/internal/errors"
	"github.com/dailypixel/storydesk/internal/post"
)

// MaxDocumentBytes caps how much of a data document is read.
const MaxDocumentBytes = 16 << 20

// Fetcher reads one data document and decodes it into posts.
type Fetcher interface {
	Fetch(ctx context.Context) ([]post.Post, error)
	Location() string
}

// Open returns a fetcher for location. http:// and https:// locations are
// fetched with client (http.DefaultClient when nil); anything else is a file
// path, resolved against baseDir when relative.
func Open(location, baseDir string, client *http.Client) Fetcher {
	if IsRemote(location) {
		if client == nil {
			client = http.DefaultClient
		}
		return &HTTP{URL: location, Client: client}
	}
	path := location
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	return &File{Path: path}
}

// IsRemote reports whether location is an HTTP(S) URL.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// File reads a local data document.
type File struct {
	Path string
}

// Location implements Fetcher.
func (f *File) Location() string { return f.Path }

// Fetch implements Fetcher.
func (f *File) Fetch(ctx context.Context) ([]post.Post, error) {
	data, err := f.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(f.Path, data)
}

// Read returns the raw document bytes.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewFetchFailed(f.Path, 0, err)
	}
	file, err := os.Open(f.Path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.NewNotFound("data source", f.Path)
		}
		return nil, errors.NewFetchFailed(f.Path, 0, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxDocumentBytes))
	if err != nil {
		return nil, errors.NewFetchFailed(f.Path, 0, err)
	}
	return data, nil
}

// HTTP fetches a data document with a GET request.
type HTTP struct {
	URL    string
	Client *http.Client
}

// Location implements Fetcher.
func (h *HTTP) Location() string { return h.URL }

// Fetch implements Fetcher.
func (h *HTTP) Fetch(ctx context.Context) ([]post.Post, error) {
	data, err := h.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(h.URL, data)
}

// Read returns the raw response body of a 2xx response.
func (h *HTTP) Read(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid data source URL %q: %v", h.URL, err))
	}
	req.Header.Set("Accept", "application/json, application/rss+xml, application/atom+xml;q=0.9, */*;q=0.5")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewFetchFailed(h.URL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, errors.NewFetchFailed(h.URL, resp.StatusCode, nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes))
	if err != nil {
		return nil, errors.NewFetchFailed(h.URL, 0, err)
	}
	return data, nil
}

// Decode sniffs the document format: a leading '[' is a JSON post array,
// a leading '<' is an RSS or Atom feed.
func Decode(location string, data []byte) ([]post.Post, error) {
	trimmed := bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")

	switch {
	case len(trimmed) == 0:
		return nil, errors.NewMalformedSource(location, fmt.Errorf("empty document"))
	case trimmed[0] == '<':
		posts, err := decodeFeed(trimmed)
		if err != nil {
			return nil, errors.NewMalformedSource(location, err)
		}
		return posts, nil
	default:
		posts, _, err := post.Decode(trimmed)
		if err != nil {
			return nil, errors.NewMalformedSource(location, err)
		}
		return posts, nil
	}
}
