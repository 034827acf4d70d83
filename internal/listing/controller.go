// Package listing owns a page's story collection and projects it through the
// reader's filters and pagination cursor onto a mount point.
package listing

import (
	"context"
	"fmt"
	"sync"

	"github.com/dailypixel/storydesk/internal/errors"
	"github.com/dailypixel/storydesk/internal/post"
	"github.com/dailypixel/storydesk/internal/textnorm"
)

// Text shown in the mount point instead of cards.
const (
	LoadingText    = "Loading stories…"
	LoadFailedText = "Couldn’t load posts right now."
	EmptyText      = "No matching stories."
	LoadMoreLabel  = "Load More"
)

// MessageKind distinguishes the non-card states of the mount point.
type MessageKind string

const (
	MessageLoading MessageKind = "loading"
	MessageError   MessageKind = "error"
	MessageEmpty   MessageKind = "empty"
)

// Fetcher retrieves the post collection from a data source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]post.Post, error)
	Location() string
}

// Mount is the page region the controller owns. Each call fully replaces
// what the previous call displayed.
type Mount interface {
	Render(posts []post.Post)
	Message(kind MessageKind, text string)
}

// PagerState is what the "load more" control should display.
type PagerState struct {
	Visible   bool   `json:"visible"`
	Label     string `json:"label"`
	Remaining int    `json:"remaining"`
}

// Pager is the "load more" control.
type Pager interface {
	Update(state PagerState)
}

// Sink receives failures and notable events.
type Sink interface {
	Report(op string, err error)
	Event(op string, keyvals ...any)
}

// Options wires a controller to its collaborators. Mount, Pager and Sink may
// be nil when a page variant lacks them.
type Options struct {
	Policy Policy
	Mount  Mount
	Pager  Pager
	Sink   Sink
}

// Controller is the story list controller. All methods are safe for
// concurrent use; collaborators are invoked while the controller's lock is
// held and must not call back into it.
type Controller struct {
	mu     sync.Mutex
	policy Policy
	mount  Mount
	pager  Pager
	sink   Sink

	posts  []post.Post
	index  []entry
	state  ViewState
	loaded bool
	gen    uint64

	// shown is the message the mount displays instead of cards, if any.
	shown     MessageKind
	shownText string
}

// New creates a controller with default view state and no posts.
func New(opts Options) *Controller {
	policy := opts.Policy
	if policy == nil {
		policy = Fixed(6)
	}
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	return &Controller{
		policy: policy,
		mount:  opts.Mount,
		pager:  opts.Pager,
		sink:   sink,
		state:  DefaultState(policy),
	}
}

// Load fetches the collection and renders it with default view state.
// Only the most recently started load is applied; an older one finishing
// late is discarded. On failure the mount shows LoadFailedText, the pager is
// hidden, the collection is emptied, and the error is reported and returned.
// A nil src fails the same way with INVALID_REQUEST.
func (c *Controller) Load(ctx context.Context, src Fetcher) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if src == nil {
		defer c.mu.Unlock()
		err := errors.NewInvalidRequest("no data source configured")
		c.fail(err)
		return err
	}
	if !c.loaded {
		c.message(MessageLoading, LoadingText)
	}
	c.mu.Unlock()

	posts, err := fetch(ctx, src)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.sink.Event("load.superseded", "location", src.Location())
		return nil
	}

	if err != nil {
		c.fail(err)
		return err
	}

	c.posts = posts
	c.index = indexPosts(posts)
	c.state = DefaultState(c.policy)
	c.loaded = true
	c.sink.Event("load", "location", src.Location(), "posts", len(posts))
	c.render()
	return nil
}

// fail empties the collection and shows the failure message.
func (c *Controller) fail(err error) {
	c.posts, c.index, c.loaded = nil, nil, false
	c.state = DefaultState(c.policy)
	c.sink.Report("load", err)
	c.message(MessageError, LoadFailedText)
	c.updatePager(PagerState{})
}

// fetch runs the fetcher, converting a panic into an error.
func fetch(ctx context.Context, src Fetcher) (posts []post.Post, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return src.Fetch(ctx)
}

// SetQuery stores the folded query and restarts pagination.
func (c *Controller) SetQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = textnorm.Fold(text)
	c.resetCursor()
	c.render()
}

// SetCategory replaces the active category; AllCategories or an empty
// string clears category filtering. Pagination restarts.
func (c *Controller) SetCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Category = normalizeCategory(category)
	c.resetCursor()
	c.render()
}

// ToggleTag selects tag if it is not selected and deselects it otherwise.
// Blank tags are ignored. Pagination restarts.
func (c *Controller) ToggleTag(tag string) {
	key := textnorm.Fold(tag)
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tags := make([]string, 0, len(c.state.Tags)+1)
	removed := false
	for _, t := range c.state.Tags {
		if t == key {
			removed = true
			continue
		}
		tags = append(tags, t)
	}
	if !removed {
		tags = append(tags, key)
	}
	if len(tags) == 0 {
		tags = nil
	}
	c.state.Tags = tags
	c.resetCursor()
	c.render()
}

// ClearTags deselects every tag. Pagination restarts.
func (c *Controller) ClearTags() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Tags = nil
	c.resetCursor()
	c.render()
}

// LoadMore advances the cursor by the policy's next increment. It does
// nothing when every match is already visible.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded || !project(c.index, c.state).HasMore {
		return
	}
	c.state.VisibleCount += c.policy.Next(c.state.Loads)
	c.state.Loads++
	c.render()
}

// Resume raises the cursor to a previously persisted count. Smaller counts
// are ignored so the cursor never shrinks.
func (c *Controller) Resume(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if count <= c.state.VisibleCount {
		return
	}
	c.state.VisibleCount = count
	c.render()
}

// State returns a copy of the current view state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Page returns the current projection.
func (c *Controller) Page() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return project(c.index, c.state)
}

// Snapshot is a consistent view of the controller: the page, the state it
// was projected from, and the pager state that goes with it.
type Snapshot struct {
	Page  Page       `json:"page"`
	State ViewState  `json:"state"`
	Pager PagerState `json:"pager"`
	// Message is set when the mount shows a message instead of cards.
	Message     MessageKind `json:"message,omitempty"`
	MessageText string      `json:"message_text,omitempty"`
}

// Snapshot returns the page, view state and pager state taken under one lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	page := project(c.index, c.state)
	var pager PagerState
	if c.loaded {
		pager = pagerFor(page)
	}
	return Snapshot{
		Page:        page,
		State:       c.state.clone(),
		Pager:       pager,
		Message:     c.shown,
		MessageText: c.shownText,
	}
}

// Posts returns a copy of the loaded collection in source order.
func (c *Controller) Posts() []post.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]post.Post(nil), c.posts...)
}

// Loaded reports whether the last load succeeded.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *Controller) resetCursor() {
	c.state.VisibleCount = c.policy.Initial()
	c.state.Loads = 0
}

// render repaints the mount point and pager. Before a successful load the
// mount keeps its loading or failure message.
func (c *Controller) render() {
	if !c.loaded {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.sink.Report("render", fmt.Errorf("render panicked: %v", r))
		}
	}()

	page := project(c.index, c.state)
	c.shown, c.shownText = "", ""
	if page.Matched == 0 {
		c.shown, c.shownText = MessageEmpty, EmptyText
	}
	if c.mount != nil {
		if page.Matched == 0 {
			c.mount.Message(MessageEmpty, EmptyText)
		} else {
			c.mount.Render(page.Items)
		}
	}

	c.updatePager(pagerFor(page))
}

func pagerFor(page Page) PagerState {
	state := PagerState{Remaining: page.Remaining}
	if page.HasMore {
		state.Visible = true
		state.Label = LoadMoreLabel
	}
	return state
}

func (c *Controller) message(kind MessageKind, text string) {
	c.shown, c.shownText = kind, text
	if c.mount == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.sink.Report("message", fmt.Errorf("mount panicked: %v", r))
		}
	}()
	c.mount.Message(kind, text)
}

func (c *Controller) updatePager(state PagerState) {
	if c.pager == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.sink.Report("pager", fmt.Errorf("pager panicked: %v", r))
		}
	}()
	c.pager.Update(state)
}

type nopSink struct{}

func (nopSink) Report(string, error) {}
func (nopSink) Event(string, ...any) {}
