package listing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailypixel/storydesk/internal/errors"
	"github.com/dailypixel/storydesk/internal/post"
)

// staticFetcher returns a fixed collection or error.
type staticFetcher struct {
	posts []post.Post
	err   error
}

func (f staticFetcher) Fetch(context.Context) ([]post.Post, error) { return f.posts, f.err }
func (f staticFetcher) Location() string                           { return "stories.json" }

// gatedFetcher blocks until release is closed.
type gatedFetcher struct {
	posts   []post.Post
	started chan struct{}
	release chan struct{}
}

func (f gatedFetcher) Fetch(context.Context) ([]post.Post, error) {
	close(f.started)
	<-f.release
	return f.posts, nil
}
func (f gatedFetcher) Location() string { return "slow.json" }

type recordingMount struct {
	mu       sync.Mutex
	renders  int
	cards    []post.Post
	kind     MessageKind
	message  string
	panicked bool
}

func (m *recordingMount) Render(posts []post.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renders++
	m.cards = append([]post.Post(nil), posts...)
	m.kind, m.message = "", ""
}

func (m *recordingMount) Message(kind MessageKind, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = nil
	m.kind, m.message = kind, text
}

func (m *recordingMount) titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.cards))
	for i, p := range m.cards {
		out[i] = p.Title
	}
	return out
}

type recordingPager struct {
	last    PagerState
	updates int
}

func (p *recordingPager) Update(state PagerState) {
	p.last = state
	p.updates++
}

type recordingSink struct {
	mu      sync.Mutex
	reports []string
	events  []string
}

func (s *recordingSink) Report(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, fmt.Sprintf("%s: %v", op, err))
}

func (s *recordingSink) Event(op string, _ ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, op)
}

type panicMount struct{}

func (panicMount) Render([]post.Post)          { panic("boom") }
func (panicMount) Message(MessageKind, string) {}

// eightPosts returns the fixture used by the pagination scenarios: eight
// posts, two of them tagged "nature".
func eightPosts() []post.Post {
	return []post.Post{
		{Title: "Whispers Beneath the Pines", Category: "Nature", Tags: []string{"nature", "forest"}},
		{Title: "The Echo of Mountains", Category: "Nature", Tags: []string{"Nature", "mountains"}, Excerpt: "Sound travels differently up high."},
		{Title: "Harbor Lights at Dusk", Category: "Travel", Tags: []string{"travel", "sea"}, Excerpt: "Boats drift home."},
		{Title: "Through the Lens", Category: "Interviews", Tags: []string{"photography", "interview"}},
		{Title: "Neon Nights", Category: "City", Tags: []string{"city", "night"}},
		{Title: "Market Mornings", Category: "City", Tags: []string{"city", "food"}},
		{Title: "Desert Roads", Category: "Travel", Tags: []string{"travel", "road"}, Excerpt: "A café at the edge of the mountain pass."},
		{Title: "Quiet Rooms", Category: "Essays"},
	}
}

func newLoaded(t *testing.T, posts []post.Post, policy Policy) (*Controller, *recordingMount, *recordingPager, *recordingSink) {
	t.Helper()
	mount := &recordingMount{}
	pager := &recordingPager{}
	sink := &recordingSink{}
	c := New(Options{Policy: policy, Mount: mount, Pager: pager, Sink: sink})
	require.NoError(t, c.Load(context.Background(), staticFetcher{posts: posts}))
	return c, mount, pager, sink
}

func TestController_FirstPageThenLoadMore(t *testing.T) {
	c, mount, pager, _ := newLoaded(t, eightPosts(), Fixed(6))

	assert.Equal(t, []string{
		"Whispers Beneath the Pines", "The Echo of Mountains", "Harbor Lights at Dusk",
		"Through the Lens", "Neon Nights", "Market Mornings",
	}, mount.titles())
	assert.True(t, pager.last.Visible)
	assert.Equal(t, LoadMoreLabel, pager.last.Label)
	assert.Equal(t, 2, pager.last.Remaining)

	c.LoadMore()

	assert.Len(t, mount.titles(), 8)
	assert.False(t, pager.last.Visible)
	assert.Equal(t, 12, c.State().VisibleCount)
}

func TestController_LoadMoreNoopWhenExhausted(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(6))
	c.LoadMore()
	renders := mount.renders

	c.LoadMore()

	assert.Equal(t, renders, mount.renders)
	assert.Equal(t, 12, c.State().VisibleCount)
}

func TestController_QueryMatchesTitleSubstring(t *testing.T) {
	c, mount, pager, _ := newLoaded(t, eightPosts(), Fixed(6))

	c.SetQuery("  MOUNTAIN ")

	titles := mount.titles()
	assert.Contains(t, titles, "The Echo of Mountains")
	assert.Contains(t, titles, "Desert Roads", "excerpt match")
	assert.NotContains(t, titles, "Harbor Lights at Dusk")
	assert.False(t, pager.last.Visible)
	assert.Equal(t, "mountain", c.State().Query)
}

func TestController_QueryIsDiacriticInsensitive(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(6))

	c.SetQuery("cafe")

	assert.Equal(t, []string{"Desert Roads"}, mount.titles())
}

func TestController_SetQueryResetsCursor(t *testing.T) {
	c, _, _, _ := newLoaded(t, eightPosts(), Fixed(6))
	c.LoadMore()
	require.Equal(t, 12, c.State().VisibleCount)

	c.SetQuery("")

	assert.Equal(t, 6, c.State().VisibleCount)
	assert.Equal(t, 0, c.State().Loads)
}

func TestController_NoResultsMessage(t *testing.T) {
	c, mount, pager, _ := newLoaded(t, eightPosts(), Fixed(6))

	c.SetQuery("zeppelin")

	assert.Equal(t, MessageEmpty, mount.kind)
	assert.Equal(t, EmptyText, mount.message)
	assert.Empty(t, mount.titles())
	assert.False(t, pager.last.Visible)
}

func TestController_SetCategory(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(6))

	c.SetCategory("TRAVEL")
	assert.Equal(t, []string{"Harbor Lights at Dusk", "Desert Roads"}, mount.titles())

	c.SetCategory("all")
	assert.Len(t, mount.titles(), 6)
	assert.Equal(t, AllCategories, c.State().Category)

	c.SetCategory("")
	assert.Equal(t, AllCategories, c.State().Category)
}

func TestController_ToggleTagIsIdempotentPair(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(6))
	before := c.State()
	beforeTitles := mount.titles()

	c.ToggleTag("nature")
	assert.Equal(t, []string{"Whispers Beneath the Pines", "The Echo of Mountains"}, mount.titles())
	assert.Equal(t, []string{"nature"}, c.State().Tags)

	c.ToggleTag("NATURE")
	assert.Equal(t, before, c.State())
	assert.Equal(t, beforeTitles, mount.titles())
}

func TestController_ToggleBlankTagIgnored(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(6))
	renders := mount.renders

	c.ToggleTag("   ")

	assert.Nil(t, c.State().Tags)
	assert.Equal(t, renders, mount.renders)
}

func TestController_TagsAreConjunctive(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(6))

	c.ToggleTag("city")
	c.ToggleTag("food")

	assert.Equal(t, []string{"Market Mornings"}, mount.titles())

	c.ClearTags()
	assert.Nil(t, c.State().Tags)
	assert.Len(t, mount.titles(), 6)
}

func TestController_FiltersCombine(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(6))

	c.SetCategory("travel")
	c.ToggleTag("road")
	c.SetQuery("desert")
	assert.Equal(t, []string{"Desert Roads"}, mount.titles())

	c.SetQuery("harbor")
	assert.Equal(t, MessageEmpty, mount.kind)
}

func TestController_EscalatingPolicy(t *testing.T) {
	posts := make([]post.Post, 0, 70)
	for i := range 70 {
		posts = append(posts, post.Post{Title: fmt.Sprintf("story %02d", i)})
	}
	c, mount, _, _ := newLoaded(t, posts, Escalating{10, 20, 30})

	assert.Len(t, mount.titles(), 10)
	c.LoadMore()
	assert.Len(t, mount.titles(), 20)
	c.LoadMore()
	assert.Len(t, mount.titles(), 40)
	c.LoadMore()
	assert.Len(t, mount.titles(), 70)
}

func TestController_Resume(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(3))

	c.Resume(7)
	assert.Len(t, mount.titles(), 7)

	c.Resume(2)
	assert.Equal(t, 7, c.State().VisibleCount, "resume never shrinks the cursor")
}

func TestController_LoadFailure(t *testing.T) {
	mount := &recordingMount{}
	pager := &recordingPager{}
	sink := &recordingSink{}
	c := New(Options{Policy: Fixed(6), Mount: mount, Pager: pager, Sink: sink})

	err := c.Load(context.Background(), staticFetcher{err: errors.NewFetchFailed("stories.json", 404, nil)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFetchFailed))
	assert.Equal(t, MessageError, mount.kind)
	assert.Equal(t, LoadFailedText, mount.message)
	assert.Empty(t, mount.titles())
	assert.False(t, pager.last.Visible)
	require.Len(t, sink.reports, 1)
	assert.Contains(t, sink.reports[0], "HTTP 404")
	assert.False(t, c.Loaded())

	// Interactions after a failed load keep the failure message.
	c.SetQuery("anything")
	c.LoadMore()
	assert.Equal(t, LoadFailedText, mount.message)
}

func TestController_FailedReloadClearsCollection(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(6))

	err := c.Load(context.Background(), staticFetcher{err: fmt.Errorf("parse error")})

	require.Error(t, err)
	assert.Empty(t, c.Posts())
	assert.Equal(t, LoadFailedText, mount.message)
}

func TestController_ReloadReplacesCollectionAndResetsState(t *testing.T) {
	c, mount, _, _ := newLoaded(t, eightPosts(), Fixed(6))
	c.SetQuery("mountain")

	replacement := []post.Post{{Title: "Fresh"}, {Title: "Fresher"}}
	require.NoError(t, c.Load(context.Background(), staticFetcher{posts: replacement}))

	assert.Equal(t, []string{"Fresh", "Fresher"}, mount.titles())
	assert.Equal(t, DefaultState(Fixed(6)), c.State())
}

func TestController_StaleLoadDiscarded(t *testing.T) {
	mount := &recordingMount{}
	sink := &recordingSink{}
	c := New(Options{Policy: Fixed(6), Mount: mount, Sink: sink})

	slow := gatedFetcher{
		posts:   []post.Post{{Title: "stale"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background(), slow) }()
	<-slow.started

	require.NoError(t, c.Load(context.Background(), staticFetcher{posts: []post.Post{{Title: "fresh"}}}))
	close(slow.release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"fresh"}, mount.titles())
	require.Len(t, c.Posts(), 1)
	assert.Equal(t, "fresh", c.Posts()[0].Title)
	assert.Contains(t, sink.events, "load.superseded")
}

func TestController_LoadingMessageBeforeFirstLoad(t *testing.T) {
	mount := &recordingMount{}
	c := New(Options{Mount: mount})
	slow := gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background(), slow) }()
	<-slow.started

	mount.mu.Lock()
	kind, msg := mount.kind, mount.message
	mount.mu.Unlock()
	assert.Equal(t, MessageLoading, kind)
	assert.Equal(t, LoadingText, msg)

	close(slow.release)
	require.NoError(t, <-done)
	assert.Equal(t, MessageEmpty, mount.kind)
}

func TestController_MissingCollaboratorsNoop(t *testing.T) {
	c := New(Options{})

	require.NoError(t, c.Load(context.Background(), staticFetcher{posts: eightPosts()}))
	c.SetQuery("mountain")
	c.SetCategory("nature")
	c.ToggleTag("nature")
	c.LoadMore()
	c.Resume(20)

	assert.Equal(t, 1, c.Page().Matched)
}

func TestController_PanickingMountRecovered(t *testing.T) {
	sink := &recordingSink{}
	c := New(Options{Mount: panicMount{}, Sink: sink})

	require.NoError(t, c.Load(context.Background(), staticFetcher{posts: eightPosts()}))
	c.SetQuery("neon")

	require.NotEmpty(t, sink.reports)
	assert.Contains(t, sink.reports[0], "render panicked")
	assert.True(t, c.Loaded())
}

func TestController_MalformedEntriesStillRender(t *testing.T) {
	posts := []post.Post{{Title: ""}, {Title: "Only title"}, {Excerpt: "only excerpt", Tags: nil}}
	c, mount, _, _ := newLoaded(t, posts, Fixed(6))

	assert.Len(t, mount.titles(), 3)
	c.ToggleTag("nature")
	assert.Equal(t, MessageEmpty, mount.kind)
	c.ToggleTag("nature")
	c.SetQuery("excerpt")
	assert.Len(t, mount.titles(), 1)
}

func TestController_StateIsACopy(t *testing.T) {
	c, _, _, _ := newLoaded(t, eightPosts(), Fixed(6))
	c.ToggleTag("city")

	s := c.State()
	s.Tags[0] = "mutated"

	assert.Equal(t, []string{"city"}, c.State().Tags)
}

func TestController_NilFetcherFails(t *testing.T) {
	mount := &recordingMount{}
	pager := &recordingPager{}
	sink := &recordingSink{}
	c := New(Options{Policy: Fixed(6), Mount: mount, Pager: pager, Sink: sink})

	var err error
	require.NotPanics(t, func() { err = c.Load(context.Background(), nil) })

	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Equal(t, MessageError, mount.kind)
	assert.Equal(t, LoadFailedText, mount.message)
	assert.False(t, pager.last.Visible)
	assert.Len(t, sink.reports, 1)
	assert.False(t, c.Loaded())
}

type panicFetcher struct{}

func (*panicFetcher) Fetch(context.Context) ([]post.Post, error) { panic("fetch boom") }
func (*panicFetcher) Location() string                           { panic("location boom") }

func TestController_PanickingFetcherContained(t *testing.T) {
	sink := &recordingSink{}
	c := New(Options{Policy: Fixed(6), Sink: sink})

	var err error
	require.NotPanics(t, func() { err = c.Load(context.Background(), &panicFetcher{}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch boom")
}

func TestController_SnapshotMessages(t *testing.T) {
	c := New(Options{Policy: Fixed(6)})
	assert.Equal(t, Snapshot{Page: Page{Items: []post.Post{}}, State: DefaultState(Fixed(6))}, c.Snapshot())

	require.NoError(t, c.Load(context.Background(), staticFetcher{posts: eightPosts()}))
	snap := c.Snapshot()
	assert.Empty(t, snap.Message)
	assert.Len(t, snap.Page.Items, 6)
	assert.Equal(t, PagerState{Visible: true, Label: LoadMoreLabel, Remaining: 2}, snap.Pager)

	c.SetQuery("zebra")
	snap = c.Snapshot()
	assert.Equal(t, MessageEmpty, snap.Message)
	assert.Equal(t, EmptyText, snap.MessageText)
	assert.False(t, snap.Pager.Visible)

	_ = c.Load(context.Background(), staticFetcher{err: fmt.Errorf("gone")})
	snap = c.Snapshot()
	assert.Equal(t, MessageError, snap.Message)
	assert.Equal(t, LoadFailedText, snap.MessageText)
	assert.Equal(t, PagerState{}, snap.Pager)
}

func TestController_SnapshotConsistentUnderConcurrentQueries(t *testing.T) {
	posts := eightPosts()
	c, _, _, _ := newLoaded(t, posts, Fixed(2))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			c.SetQuery("mountain")
			c.LoadMore()
			c.SetQuery("")
		}
	}()

	for i := 0; i < 2000; i++ {
		snap := c.Snapshot()
		page := Visible(posts, snap.State)
		if !assert.Equal(t, page, snap.Page, "snapshot %d: page does not match its state", i) {
			break
		}
		if !assert.Equal(t, pagerFor(page), snap.Pager, "snapshot %d: pager does not match its page", i) {
			break
		}
	}
	close(done)
	wg.Wait()
}
