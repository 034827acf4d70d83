// Package render provides the mount points and "load more" controls the
// story list controller paints into.
package render

import (
	"bytes"
	"embed"
	"html/template"
	"sync"

	"github.com/dailypixel/storydesk/internal/listing"
	"github.com/dailypixel/storydesk/internal/post"
)

// DefaultMountID is the element id of the story container.
const DefaultMountID = "stories-container"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("render").ParseFS(templateFS, "templates/*.html"))

type mountData struct {
	ID      string
	Kind    listing.MessageKind
	Message string
	Posts   []post.Post
}

// HTMLMount renders cards as an HTML fragment. Every Render or Message call
// replaces the whole fragment.
type HTMLMount struct {
	id string

	mu   sync.Mutex
	html string
	err  error
}

// NewHTMLMount returns a mount for the element with the given id.
func NewHTMLMount(id string) *HTMLMount {
	if id == "" {
		id = DefaultMountID
	}
	m := &HTMLMount{id: id}
	m.execute(mountData{ID: id})
	return m
}

// Render implements listing.Mount.
func (m *HTMLMount) Render(posts []post.Post) {
	m.execute(mountData{ID: m.id, Posts: posts})
}

// Message implements listing.Mount.
func (m *HTMLMount) Message(kind listing.MessageKind, text string) {
	m.execute(mountData{ID: m.id, Kind: kind, Message: text})
}

// HTML returns the current fragment.
func (m *HTMLMount) HTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.html
}

// Err returns the last template execution error, if any.
func (m *HTMLMount) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *HTMLMount) execute(data mountData) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "mount", data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	if err == nil {
		m.html = buf.String()
	}
}

// SnapshotHTML renders the mount point and pager for snap as one fragment.
func SnapshotHTML(id string, snap listing.Snapshot) (string, error) {
	if id == "" {
		id = DefaultMountID
	}
	data := mountData{ID: id, Kind: snap.Message, Message: snap.MessageText}
	if snap.Message == "" {
		data.Posts = snap.Page.Items
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "mount", data); err != nil {
		return "", err
	}
	if err := templates.ExecuteTemplate(&buf, "pager", snap.Pager); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ButtonPager records the last pager state and renders it as the
// #loadMoreBtn button.
type ButtonPager struct {
	mu    sync.Mutex
	state listing.PagerState
}

// NewButtonPager returns a hidden pager.
func NewButtonPager() *ButtonPager {
	return &ButtonPager{}
}

// Update implements listing.Pager.
func (p *ButtonPager) Update(state listing.PagerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

// State returns the last state received.
func (p *ButtonPager) State() listing.PagerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// HTML renders the button for the current state.
func (p *ButtonPager) HTML() string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "pager", p.State()); err != nil {
		return ""
	}
	return buf.String()
}
