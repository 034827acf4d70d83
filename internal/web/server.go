// Package web serves a static story site locally together with the JSON
// endpoints its reader-preference widgets talk to.
package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dailypixel/storydesk/internal/errors"
	"github.com/dailypixel/storydesk/internal/prefs"
)

// Write endpoints accept a short burst, then one request per writeInterval.
const (
	writeInterval = 100 * time.Millisecond
	writeBurst    = 20
)

// NewServer creates the preview server for the site in siteDir.
func NewServer(db *sql.DB, logger *zap.Logger, siteDir, bind string, port int) *http.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("web")

	kv := prefs.NewSQLiteKV(db)
	h := &Handlers{
		db:        db,
		logger:    logger,
		likes:     prefs.NewLikes(kv),
		bookmarks: prefs.NewBookmarks(kv),
		theme:     prefs.NewTheme(kv),
		consent:   prefs.NewConsent(kv),
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /api/likes", h.HandleGetLikes)
	mux.HandleFunc("POST /api/likes", h.HandleLike)
	mux.HandleFunc("GET /api/bookmarks", h.HandleGetBookmarks)
	mux.HandleFunc("POST /api/bookmarks", h.HandleToggleBookmark)
	mux.HandleFunc("GET /api/theme", h.HandleGetTheme)
	mux.HandleFunc("POST /api/theme", h.HandleSetTheme)
	mux.HandleFunc("GET /api/consent", h.HandleGetConsent)
	mux.HandleFunc("POST /api/consent", h.HandleAcceptConsent)
	mux.HandleFunc("POST /api/newsletter", h.HandleSubscribe)

	// Static site, including the data document the page scripts fetch
	mux.Handle("GET /", http.FileServer(http.Dir(siteDir)))

	limiter := rate.NewLimiter(rate.Every(writeInterval), writeBurst)
	handler := securityHeaders(throttleWrites(limiter, requestLogger(logger, mux)))

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// securityHeaders adds security-related HTTP headers to all responses. The
// content policy applies to API responses only; static pages are served
// as the site ships them so third-party embeds and fonts still load.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			w.Header().Set("X-Frame-Options", "DENY")
		}
		next.ServeHTTP(w, r)
	})
}

// throttleWrites rejects state-changing requests with 429 once limiter is
// exhausted. Reads are never throttled.
func throttleWrites(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead && !limiter.Allow() {
			renderError(w, errors.NewRateLimited())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("preview server running", zap.String("url", "http://"+srv.Addr))

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
