package web

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailypixel/storydesk/internal/newsletter"
	"github.com/dailypixel/storydesk/internal/prefs"
)

// Handlers holds dependencies for the preview API handlers.
type Handlers struct {
	db        *sql.DB
	logger    *zap.Logger
	likes     *prefs.Likes
	bookmarks *prefs.Bookmarks
	theme     *prefs.Theme
	consent   *prefs.Consent
}

type likesResponse struct {
	Title string `json:"title"`
	Likes int    `json:"likes"`
}

type bookmarksResponse struct {
	Bookmarks []string `json:"bookmarks"`
}

type bookmarkToggleResponse struct {
	Link       string `json:"link"`
	Bookmarked bool   `json:"bookmarked"`
}

type themeResponse struct {
	Theme string `json:"theme"`
}

type consentResponse struct {
	Accepted bool `json:"accepted"`
}

// HandleGetLikes returns the like count for ?title=.
func (h *Handlers) HandleGetLikes(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	n, err := h.likes.Count(r.Context(), title)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, likesResponse{Title: title, Likes: n})
}

// HandleLike increments the like count for a story title.
func (h *Handlers) HandleLike(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{"title": ""}
	if err := decodeFields(w, r, fields); err != nil {
		renderError(w, err)
		return
	}
	n, err := h.likes.Like(r.Context(), fields["title"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, likesResponse{Title: fields["title"], Likes: n})
}

// HandleGetBookmarks returns every bookmarked link.
func (h *Handlers) HandleGetBookmarks(w http.ResponseWriter, r *http.Request) {
	links, err := h.bookmarks.List(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, bookmarksResponse{Bookmarks: links})
}

// HandleToggleBookmark adds or removes a link from the bookmark list.
func (h *Handlers) HandleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{"link": ""}
	if err := decodeFields(w, r, fields); err != nil {
		renderError(w, err)
		return
	}
	added, err := h.bookmarks.Toggle(r.Context(), fields["link"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, bookmarkToggleResponse{Link: fields["link"], Bookmarked: added})
}

// HandleGetTheme returns the stored theme.
func (h *Handlers) HandleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.theme.Get(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, themeResponse{Theme: theme})
}

// HandleSetTheme stores the theme from the body, or toggles it when the
// body names none.
func (h *Handlers) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{"theme": ""}
	if err := decodeFields(w, r, fields); err != nil {
		renderError(w, err)
		return
	}

	ctx := r.Context()
	var theme string
	var err error
	if fields["theme"] == "" {
		theme, err = h.theme.Toggle(ctx)
	} else {
		if err = h.theme.Set(ctx, fields["theme"]); err == nil {
			theme, err = h.theme.Get(ctx)
		}
	}
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, themeResponse{Theme: theme})
}

// HandleGetConsent reports whether the cookie notice was accepted.
func (h *Handlers) HandleGetConsent(w http.ResponseWriter, r *http.Request) {
	ok, err := h.consent.Accepted(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, consentResponse{Accepted: ok})
}

// HandleAcceptConsent records cookie consent.
func (h *Handlers) HandleAcceptConsent(w http.ResponseWriter, r *http.Request) {
	if err := h.consent.Accept(r.Context()); err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, consentResponse{Accepted: true})
}

// HandleSubscribe records a newsletter signup.
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{"email": ""}
	if err := decodeFields(w, r, fields); err != nil {
		renderError(w, err)
		return
	}
	out, err := newsletter.Subscribe(r.Context(), h.db, fields["email"])
	if err != nil {
		renderError(w, err)
		return
	}

	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	h.logger.Debug("newsletter signup", zap.String("id", out.ID), zap.Bool("created", out.Created))
	renderJSON(w, status, out)
}
