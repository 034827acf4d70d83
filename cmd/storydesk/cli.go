package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/dailypixel/storydesk/internal/article"
	"github.com/dailypixel/storydesk/internal/config"
	"github.com/dailypixel/storydesk/internal/errors"
	"github.com/dailypixel/storydesk/internal/listing"
	"github.com/dailypixel/storydesk/internal/logging"
	"github.com/dailypixel/storydesk/internal/newsletter"
	"github.com/dailypixel/storydesk/internal/post"
	"github.com/dailypixel/storydesk/internal/prefs"
	"github.com/dailypixel/storydesk/internal/render"
	"github.com/dailypixel/storydesk/internal/source"
	"github.com/dailypixel/storydesk/internal/tui"
	"github.com/dailypixel/storydesk/internal/web"
)

// Output formats for the list command.
const (
	formatText = "text"
	formatHTML = "html"
	formatJSON = "json"
)

// watchInterval is the minimum gap between reloads triggered by file changes.
const watchInterval = 250 * time.Millisecond

// env carries the process-wide dependencies commands share.
type env struct {
	db      *sql.DB
	cfg     *config.Config
	logger  *zap.Logger
	client  *http.Client
	baseDir string
	cwd     string
}

func (e *env) sink() listing.Sink {
	if e.logger == nil {
		return logging.Nop()
	}
	return logging.NewSink(e.logger)
}

func (e *env) kv() prefs.KV {
	return prefs.NewSQLiteKV(e.db)
}

// fetcher returns the data source named by --source, or the configured one.
func (e *env) fetcher(c *cli.Context) listing.Fetcher {
	location := c.String("source")
	if location == "" {
		location = e.cfg.Source
	}
	return source.Open(location, e.cwd, e.client)
}

func (e *env) posts(c *cli.Context) ([]post.Post, error) {
	return e.fetcher(c).Fetch(c.Context)
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "storydesk",
		Usage:   "Story list browser and site companion",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Data source: file path or http(s) URL (default from config)"},
		},
		Commands: []*cli.Command{
			listCmd(e),
			tagsCmd(e),
			categoriesCmd(e),
			recentCmd(e),
			relatedCmd(e),
			readCmd(e),
			likeCmd(e),
			likesCmd(e),
			bookmarkCmd(e),
			bookmarksCmd(e),
			themeCmd(e),
			consentCmd(e),
			subscribeCmd(e),
			subscribersCmd(e),
			browseCmd(e),
			serveCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Show the story list through the given filters",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Free-text search over title and excerpt"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category filter (\"all\" for none)"},
			&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Tag filter; repeat for several (all must match)"},
			&cli.IntFlag{Name: "more", Aliases: []string{"m"}, Usage: "Press \"load more\" N times"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatText, Usage: "Output format: text|html|json"},
			&cli.BoolFlag{Name: "resume", Usage: "Restore the saved pagination cursor and save it afterwards"},
		},
		Action: func(c *cli.Context) error {
			format := strings.ToLower(c.String("format"))
			if format != formatText && format != formatHTML && format != formatJSON {
				return outputError(errors.NewInvalidRequest("format must be text, html or json"))
			}
			if c.Int("more") < 0 {
				return outputError(errors.NewInvalidRequest("more must be non-negative"))
			}

			collab := e.cfg.Collaborators
			policy := listing.PolicyFromConfig(e.cfg)
			opts := listing.Options{Policy: policy, Sink: e.sink()}

			textMount := render.NewTextMount(render.DefaultCardWidth)
			htmlMount := render.NewHTMLMount(render.DefaultMountID)
			pager := render.NewButtonPager()
			switch format {
			case formatText:
				opts.Mount = textMount
			case formatHTML:
				opts.Mount = htmlMount
			}
			if collab.HasPager() {
				opts.Pager = pager
			}

			ctrl := listing.New(opts)
			if err := ctrl.Load(c.Context, e.fetcher(c)); err != nil {
				return outputError(err)
			}

			if q := c.String("query"); q != "" && collab.HasSearchBox() {
				ctrl.SetQuery(q)
			}
			if cat := c.String("category"); cat != "" && collab.HasCategoryLinks() {
				ctrl.SetCategory(cat)
			}
			if collab.HasTagChips() {
				for _, tag := range c.StringSlice("tag") {
					ctrl.ToggleTag(tag)
				}
			}

			var cursor *prefs.Cursor
			if c.Bool("resume") {
				cursor = prefs.NewCursor(e.kv())
				pos, err := cursor.Restore(c.Context, policy.Initial())
				if err != nil {
					return outputError(err)
				}
				ctrl.Resume(pos.Index)
			}

			if collab.HasPager() {
				for i := 0; i < c.Int("more"); i++ {
					ctrl.LoadMore()
				}
			}

			if cursor != nil {
				pos := prefs.Position{Index: ctrl.State().VisibleCount}
				if err := cursor.Save(c.Context, pos); err != nil {
					return outputError(err)
				}
			}

			w := c.App.Writer
			switch format {
			case formatHTML:
				fmt.Fprintln(w, htmlMount.HTML())
				if collab.HasPager() {
					fmt.Fprintln(w, pager.HTML())
				}
				return nil
			case formatJSON:
				snap := ctrl.Snapshot()
				if !collab.HasPager() {
					snap.Pager = listing.PagerState{}
				}
				return outputJSON(w, snap)
			default:
				fmt.Fprintln(w, textMount.String())
				if line := render.PagerLine(pager.State()); line != "" {
					fmt.Fprintln(w, line)
				}
				return nil
			}
		},
	}
}

// tagsCmd creates the tags command.
func tagsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List every tag in the collection, first-seen order",
		Action: func(c *cli.Context) error {
			posts, err := e.posts(c)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"tags": listing.Tags(posts)})
		},
	}
}

// categoriesCmd creates the categories command.
func categoriesCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List every category in the collection",
		Action: func(c *cli.Context) error {
			posts, err := e.posts(c)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"categories": listing.Categories(posts)})
		},
	}
}

// recentCmd creates the recent command.
func recentCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "Show the most recent stories, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Number of stories (default from config)"},
		},
		Action: func(c *cli.Context) error {
			posts, err := e.posts(c)
			if err != nil {
				return outputError(err)
			}
			n := e.cfg.RecentCount
			if c.IsSet("limit") {
				n = c.Int("limit")
			}
			return outputJSON(c.App.Writer, map[string]any{"posts": listing.Recent(posts, n)})
		},
	}
}

// relatedCmd creates the related command.
func relatedCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "related",
		Usage:     "Show stories sharing a tag with the named story",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Number of stories (default from config)"},
		},
		Action: func(c *cli.Context) error {
			title, err := titleArg(c)
			if err != nil {
				return outputError(err)
			}
			posts, err := e.posts(c)
			if err != nil {
				return outputError(err)
			}
			p, ok := listing.FindByTitle(posts, title)
			if !ok {
				return outputError(errors.NewNotFound("story", title))
			}
			limit := e.cfg.RelatedLimit
			if c.IsSet("limit") {
				limit = c.Int("limit")
			}
			return outputJSON(c.App.Writer, map[string]any{
				"title": p.Title,
				"posts": listing.Related(posts, p.Tags, p.Title, limit),
			})
		},
	}
}

// readCmd creates the read command.
func readCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Load a story page and report its reading time and related stories",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "html", Usage: "Print the rendered page body instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			title, err := titleArg(c)
			if err != nil {
				return outputError(err)
			}
			src := e.fetcher(c)
			posts, err := src.Fetch(c.Context)
			if err != nil {
				return outputError(err)
			}
			p, ok := listing.FindByTitle(posts, title)
			if !ok {
				return outputError(errors.NewNotFound("story", title))
			}

			r, err := storyReader(src.Location(), p.URL, e.client)
			if err != nil {
				return outputError(err)
			}
			a, err := article.Load(c.Context, r, e.cfg.WordsPerMinute)
			if err != nil {
				return outputError(err)
			}
			if a.Meta.Title == "" {
				a.Meta.Title = p.Title
			}
			if len(a.Meta.Tags) == 0 {
				a.Meta.Tags = p.Tags
			}

			if c.Bool("html") {
				fmt.Fprintln(c.App.Writer, a.HTML)
				return nil
			}
			return outputJSON(c.App.Writer, map[string]any{
				"article":      a,
				"reading_time": a.ReadingLabel(),
				"related":      article.Related(posts, a, e.cfg.RelatedLimit),
			})
		},
	}
}

// likeCmd creates the like command.
func likeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "like",
		Usage:     "Like a story by title",
		ArgsUsage: "<title>",
		Action: func(c *cli.Context) error {
			title, err := titleArg(c)
			if err != nil {
				return outputError(err)
			}
			n, err := prefs.NewLikes(e.kv()).Like(c.Context, title)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"title": title, "likes": n})
		},
	}
}

// likesCmd creates the likes command.
func likesCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "likes",
		Usage:     "Show the like count of a story",
		ArgsUsage: "<title>",
		Action: func(c *cli.Context) error {
			title, err := titleArg(c)
			if err != nil {
				return outputError(err)
			}
			n, err := prefs.NewLikes(e.kv()).Count(c.Context, title)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"title": title, "likes": n})
		},
	}
}

// bookmarkCmd creates the bookmark command.
func bookmarkCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "bookmark",
		Usage:     "Toggle a bookmark on a story link",
		ArgsUsage: "<link>",
		Action: func(c *cli.Context) error {
			link := strings.TrimSpace(c.Args().First())
			if link == "" {
				return outputError(errors.NewInvalidRequest("link is required"))
			}
			added, err := prefs.NewBookmarks(e.kv()).Toggle(c.Context, link)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"link": link, "bookmarked": added})
		},
	}
}

// bookmarksCmd creates the bookmarks command.
func bookmarksCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "bookmarks",
		Usage: "List bookmarked links",
		Action: func(c *cli.Context) error {
			links, err := prefs.NewBookmarks(e.kv()).List(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"bookmarks": links})
		},
	}
}

// themeCmd creates the theme command.
func themeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "theme",
		Usage:     "Show, set or toggle the color theme",
		ArgsUsage: "[dark|light|toggle]",
		Action: func(c *cli.Context) error {
			theme := prefs.NewTheme(e.kv())
			arg := strings.ToLower(strings.TrimSpace(c.Args().First()))

			var err error
			switch arg {
			case "":
			case "toggle":
				_, err = theme.Toggle(c.Context)
			default:
				err = theme.Set(c.Context, arg)
			}
			if err != nil {
				return outputError(err)
			}

			current, err := theme.Get(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"theme": current})
		},
	}
}

// consentCmd creates the consent command.
func consentCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "consent",
		Usage: "Show or record cookie consent",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "accept", Usage: "Record that cookies were accepted"},
		},
		Action: func(c *cli.Context) error {
			consent := prefs.NewConsent(e.kv())
			if c.Bool("accept") {
				if err := consent.Accept(c.Context); err != nil {
					return outputError(err)
				}
			}
			ok, err := consent.Accepted(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"accepted": ok})
		},
	}
}

// subscribeCmd creates the subscribe command.
func subscribeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Sign an address up for the newsletter",
		ArgsUsage: "<email>",
		Action: func(c *cli.Context) error {
			output, err := newsletter.Subscribe(c.Context, e.db, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// subscribersCmd creates the subscribers command.
func subscribersCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "subscribers",
		Usage: "List newsletter signups, newest first",
		Action: func(c *cli.Context) error {
			subs, err := newsletter.List(c.Context, e.db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"subscribers": subs, "count": len(subs)})
		},
	}
}

// browseCmd creates the browse command.
func browseCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse stories interactively in the terminal",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Reload when a local data source changes"},
			&cli.StringFlag{Name: "log-file", Usage: "Log destination while the browser owns the terminal (default ~/.storydesk/storydesk.log)"},
		},
		Action: func(c *cli.Context) error {
			logPath := c.String("log-file")
			if logPath == "" {
				logPath = filepath.Join(e.baseDir, "storydesk.log")
			}
			logger, err := logging.New(e.cfg.LogLevel, logPath)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer func() { _ = logger.Sync() }()

			src := e.fetcher(c)
			var watchPath string
			if file, ok := src.(*source.File); ok && c.Bool("watch") {
				watchPath = file.Path
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			opts := tui.Options{
				Fetcher:       src,
				Policy:        listing.PolicyFromConfig(e.cfg),
				Sink:          logging.NewSink(logger),
				Collaborators: e.cfg.Collaborators,
				Cursor:        prefs.NewCursor(e.kv()),
			}
			if err := tui.Run(ctx, opts, watchPath, watchInterval); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a static story site locally with its preference endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Value: ".", Usage: "Site directory to serve"},
			&cli.StringFlag{Name: "bind", Usage: "Bind address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			dir := c.String("dir")
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return outputError(errors.NewNotFound("site directory", dir))
			}

			bind := e.cfg.ServeBind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := e.cfg.ServePort
			if c.IsSet("port") {
				port = c.Int("port")
			}
			if port < 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 0 and 65535"))
			}

			srv := web.NewServer(e.db, e.logger, dir, bind, port)
			if err := web.Run(srv, e.logger); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// storyReader returns a reader for a story link. Relative links resolve
// against the data source they were listed in.
func storyReader(sourceLocation, link string, client *http.Client) (article.Reader, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, errors.NewInvalidRequest("story has no link")
	}
	if client == nil {
		client = http.DefaultClient
	}

	if source.IsRemote(link) {
		return &source.HTTP{URL: link, Client: client}, nil
	}
	if source.IsRemote(sourceLocation) {
		base, err := url.Parse(sourceLocation)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid source URL %q", sourceLocation))
		}
		ref, err := url.Parse(link)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid story link %q", link))
		}
		return &source.HTTP{URL: base.ResolveReference(ref).String(), Client: client}, nil
	}

	path := filepath.FromSlash(link)
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(sourceLocation), path)
	}
	return &source.File{Path: path}, nil
}

// titleArg joins the positional arguments into a story title.
func titleArg(c *cli.Context) (string, error) {
	title := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if title == "" {
		return "", errors.NewInvalidRequest("title is required")
	}
	return title, nil
}

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var sErr *errors.StoryError
	if stderrors.As(err, &sErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
