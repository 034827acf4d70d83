package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dailypixel/storydesk/internal/config"
	"github.com/dailypixel/storydesk/internal/errors"
	"github.com/dailypixel/storydesk/internal/listing"
	"github.com/dailypixel/storydesk/internal/newsletter"
	"github.com/dailypixel/storydesk/internal/post"
	"github.com/dailypixel/storydesk/internal/prefs"
	"github.com/dailypixel/storydesk/internal/render"
	"github.com/dailypixel/storydesk/internal/source"
)

// Handlers holds dependencies for MCP tool handlers. One list controller
// serves every tool call of the process.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config

	ctrl *listing.Controller

	mu  sync.Mutex
	src listing.Fetcher

	likes     *prefs.Likes
	bookmarks *prefs.Bookmarks
	theme     *prefs.Theme
}

// NewHandlers creates a new Handlers instance reading stories from src.
func NewHandlers(db *sql.DB, cfg *config.Config, src listing.Fetcher, sink listing.Sink) *Handlers {
	kv := prefs.NewSQLiteKV(db)
	return &Handlers{
		db:  db,
		cfg: cfg,
		ctrl: listing.New(listing.Options{
			Policy: listing.PolicyFromConfig(cfg),
			Sink:   sink,
		}),
		src:       src,
		likes:     prefs.NewLikes(kv),
		bookmarks: prefs.NewBookmarks(kv),
		theme:     prefs.NewTheme(kv),
	}
}

// Request types for each tool

// ViewRequest represents the common arguments of the list tools.
type ViewRequest struct {
	IncludeHTML bool `json:"include_html,omitempty"`
}

// SearchRequest represents the arguments for stories_search.
type SearchRequest struct {
	Query       string `json:"query"`
	IncludeHTML bool   `json:"include_html,omitempty"`
}

// CategoryRequest represents the arguments for stories_category.
type CategoryRequest struct {
	Category    string `json:"category"`
	IncludeHTML bool   `json:"include_html,omitempty"`
}

// TagRequest represents the arguments for stories_tag.
type TagRequest struct {
	Tag         string `json:"tag,omitempty"`
	Clear       bool   `json:"clear,omitempty"`
	IncludeHTML bool   `json:"include_html,omitempty"`
}

// ReloadRequest represents the arguments for stories_reload.
type ReloadRequest struct {
	Source string `json:"source,omitempty"`
}

// RecentRequest represents the arguments for stories_recent.
type RecentRequest struct {
	Count int `json:"count,omitempty"`
}

// RelatedRequest represents the arguments for story_related.
type RelatedRequest struct {
	Title string `json:"title"`
	Limit int    `json:"limit,omitempty"`
}

// LikeRequest represents the arguments for story_like.
type LikeRequest struct {
	Title  string `json:"title"`
	Action string `json:"action,omitempty"`
}

// BookmarkRequest represents the arguments for story_bookmark.
type BookmarkRequest struct {
	Link   string `json:"link,omitempty"`
	Action string `json:"action,omitempty"`
}

// ThemeRequest represents the arguments for prefs_theme.
type ThemeRequest struct {
	Action string `json:"action,omitempty"`
	Theme  string `json:"theme,omitempty"`
}

// SubscribeRequest represents the arguments for newsletter_subscribe.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// Output types

// ViewOutput is the visible page plus the state that produced it.
type ViewOutput struct {
	listing.Page
	Source string             `json:"source"`
	State  listing.ViewState  `json:"state"`
	Pager  listing.PagerState `json:"pager"`
	HTML   string             `json:"html,omitempty"`
}

// TagsOutput is the tag cloud and category list.
type TagsOutput struct {
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
}

// PostsOutput wraps a list of posts.
type PostsOutput struct {
	Items []post.Post `json:"items"`
}

// LikeOutput is a story's like count.
type LikeOutput struct {
	Title string `json:"title"`
	Likes int    `json:"likes"`
}

// BookmarkOutput is the bookmark list after an operation.
type BookmarkOutput struct {
	Link       string   `json:"link,omitempty"`
	Bookmarked bool     `json:"bookmarked"`
	Bookmarks  []string `json:"bookmarks"`
}

// ThemeOutput is the current theme.
type ThemeOutput struct {
	Theme string `json:"theme"`
}

// HandleView handles the stories_view tool call.
func (h *Handlers) HandleView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ViewRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return errorResult(err), nil
	}
	return h.viewResult(input.IncludeHTML)
}

// HandleSearch handles the stories_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return errorResult(err), nil
	}
	h.ctrl.SetQuery(input.Query)
	return h.viewResult(input.IncludeHTML)
}

// HandleCategory handles the stories_category tool call.
func (h *Handlers) HandleCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CategoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return errorResult(err), nil
	}
	h.ctrl.SetCategory(input.Category)
	return h.viewResult(input.IncludeHTML)
}

// HandleTag handles the stories_tag tool call.
func (h *Handlers) HandleTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if !input.Clear && strings.TrimSpace(input.Tag) == "" {
		return errorResult(errors.NewInvalidRequest("tag is required unless clear is set")), nil
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return errorResult(err), nil
	}
	if input.Clear {
		h.ctrl.ClearTags()
	} else {
		h.ctrl.ToggleTag(input.Tag)
	}
	return h.viewResult(input.IncludeHTML)
}

// HandleMore handles the stories_more tool call.
func (h *Handlers) HandleMore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ViewRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return errorResult(err), nil
	}
	h.ctrl.LoadMore()
	return h.viewResult(input.IncludeHTML)
}

// HandleReload handles the stories_reload tool call.
func (h *Handlers) HandleReload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReloadRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	if loc := strings.TrimSpace(input.Source); loc != "" {
		h.src = source.Open(loc, "", nil)
	}
	src := h.src
	h.mu.Unlock()

	if src == nil {
		return errorResult(errors.NewInvalidRequest("no data source configured")), nil
	}
	if err := h.ctrl.Load(ctx, src); err != nil {
		return errorResult(err), nil
	}
	return h.viewResult(false)
}

// HandleTags handles the stories_tags tool call.
func (h *Handlers) HandleTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.ensureLoaded(ctx); err != nil {
		return errorResult(err), nil
	}
	posts := h.ctrl.Posts()
	return successResult(TagsOutput{
		Tags:       listing.Tags(posts),
		Categories: listing.Categories(posts),
	})
}

// HandleRecent handles the stories_recent tool call.
func (h *Handlers) HandleRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecentRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return errorResult(err), nil
	}
	count := input.Count
	if count <= 0 {
		count = h.cfg.RecentCount
	}
	return successResult(PostsOutput{Items: listing.Recent(h.ctrl.Posts(), count)})
}

// HandleRelated handles the story_related tool call.
func (h *Handlers) HandleRelated(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RelatedRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Title) == "" {
		return errorResult(errors.NewInvalidRequest("title is required")), nil
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return errorResult(err), nil
	}

	posts := h.ctrl.Posts()
	p, ok := listing.FindByTitle(posts, input.Title)
	if !ok {
		return errorResult(errors.NewNotFound("story", input.Title)), nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = h.cfg.RelatedLimit
	}
	return successResult(PostsOutput{Items: listing.Related(posts, p.Tags, p.Title, limit)})
}

// HandleLike handles the story_like tool call.
func (h *Handlers) HandleLike(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LikeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var n int
	switch input.Action {
	case "", "like":
		n, err = h.likes.Like(ctx, input.Title)
	case "count":
		n, err = h.likes.Count(ctx, input.Title)
	default:
		err = errors.NewInvalidRequest(`action must be "like" or "count"`)
	}
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(LikeOutput{Title: input.Title, Likes: n})
}

// HandleBookmark handles the story_bookmark tool call.
func (h *Handlers) HandleBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BookmarkRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out := BookmarkOutput{Link: input.Link}
	switch input.Action {
	case "", "toggle":
		out.Bookmarked, err = h.bookmarks.Toggle(ctx, input.Link)
	case "list":
	default:
		err = errors.NewInvalidRequest(`action must be "toggle" or "list"`)
	}
	if err != nil {
		return errorResult(err), nil
	}

	if out.Bookmarks, err = h.bookmarks.List(ctx); err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleTheme handles the prefs_theme tool call.
func (h *Handlers) HandleTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThemeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var theme string
	switch input.Action {
	case "", "get":
		theme, err = h.theme.Get(ctx)
	case "set":
		if err = h.theme.Set(ctx, input.Theme); err == nil {
			theme, err = h.theme.Get(ctx)
		}
	case "toggle":
		theme, err = h.theme.Toggle(ctx)
	default:
		err = errors.NewInvalidRequest(`action must be "get", "set" or "toggle"`)
	}
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(ThemeOutput{Theme: theme})
}

// HandleSubscribe handles the newsletter_subscribe tool call.
func (h *Handlers) HandleSubscribe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SubscribeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := newsletter.Subscribe(ctx, h.db, input.Email)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// ensureLoaded loads the data source once, before the first list tool.
func (h *Handlers) ensureLoaded(ctx context.Context) error {
	if h.ctrl.Loaded() {
		return nil
	}
	h.mu.Lock()
	src := h.src
	h.mu.Unlock()
	if src == nil {
		return errors.NewInvalidRequest("no data source configured")
	}
	return h.ctrl.Load(ctx, src)
}

// view reports one controller snapshot, so items, state and pager always
// belong together even while other tool calls change the view.
func (h *Handlers) view(includeHTML bool) (ViewOutput, error) {
	snap := h.ctrl.Snapshot()
	out := ViewOutput{
		Page:  snap.Page,
		State: snap.State,
		Pager: snap.Pager,
	}
	h.mu.Lock()
	if h.src != nil {
		out.Source = h.src.Location()
	}
	h.mu.Unlock()
	if includeHTML {
		html, err := render.SnapshotHTML(render.DefaultMountID, snap)
		if err != nil {
			return out, errors.NewInternal(err)
		}
		out.HTML = html
	}
	return out, nil
}

func (h *Handlers) viewResult(includeHTML bool) (*mcp.CallToolResult, error) {
	out, err := h.view(includeHTML)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.StoryError
	if stderrors.As(err, &sErr) && sErr.Code != errors.ErrInternal {
		message := sErr.Message
		// Keep wrapper context such as "reload: " in front of the message.
		if prefix := strings.TrimSuffix(err.Error(), sErr.Error()); prefix != err.Error() {
			message = prefix + message
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": message,
			"status":  sErr.Status,
		}
		if sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
