package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dailypixel/storydesk/internal/config"
	"github.com/dailypixel/storydesk/internal/listing"
	"github.com/dailypixel/storydesk/internal/prefs"
	"github.com/dailypixel/storydesk/internal/render"
	"github.com/dailypixel/storydesk/internal/textnorm"
)

// maxTagKeys is how many tag chips get a number key.
const maxTagKeys = 9

// Options configures the browser.
type Options struct {
	Fetcher       listing.Fetcher
	Policy        listing.Policy
	Sink          listing.Sink
	Collaborators config.Collaborators
	// Cursor, when set, restores the saved pagination cursor after the
	// first load and saves it on quit.
	Cursor *prefs.Cursor
}

// Model is the root Bubble Tea model. It owns one list controller; every
// reader input reaches the controller through Update, so inputs are applied
// one at a time.
type Model struct {
	ctx     context.Context
	ctrl    *listing.Controller
	mount   *render.TextMount
	pager   *render.ButtonPager
	fetcher listing.Fetcher
	policy  listing.Policy
	collab  config.Collaborators
	cursor  *prefs.Cursor

	search  textinput.Model
	spinner spinner.Model

	categories []string
	catIdx     int
	tags       []string

	loading bool
	resumed bool
	err     error
	width   int
	height  int
}

// New creates a browser model. ctx bounds data source fetches.
func New(ctx context.Context, opts Options) Model {
	policy := opts.Policy
	if policy == nil {
		policy = listing.Fixed(6)
	}

	mount := render.NewTextMount(render.DefaultCardWidth)
	pager := render.NewButtonPager()
	ctrl := listing.New(listing.Options{
		Policy: policy,
		Mount:  mount,
		Pager:  pager,
		Sink:   opts.Sink,
	})

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "Search stories…"
	ti.CharLimit = 120

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ctx:        ctx,
		ctrl:       ctrl,
		mount:      mount,
		pager:      pager,
		fetcher:    opts.Fetcher,
		policy:     policy,
		collab:     opts.Collaborators,
		cursor:     opts.Cursor,
		search:     ti,
		spinner:    s,
		categories: []string{listing.AllCategories},
	}
}

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick)
}

// load returns a command that runs one controller load.
func (m Model) load() tea.Cmd {
	if m.fetcher == nil {
		return nil
	}
	ctx, ctrl, fetcher := m.ctx, m.ctrl, m.fetcher
	return func() tea.Msg {
		return LoadDone{Err: ctrl.Load(ctx, fetcher)}
	}
}

// Update handles messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.mount.Width = max(min(msg.Width, 100), 20)
		return m, nil

	case LoadDone:
		m.loading = false
		m.err = msg.Err
		m.search.SetValue("")
		m.catIdx = 0
		m.categories = []string{listing.AllCategories}
		m.tags = nil
		if msg.Err == nil {
			posts := m.ctrl.Posts()
			m.categories = append(m.categories, listing.Categories(posts)...)
			m.tags = listing.Tags(posts)
			m.restoreCursor()
		}
		return m, nil

	case SourceChanged:
		m.loading = true
		return m, m.load()

	case WatchFailed:
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if key.Matches(msg, keys.Blur) {
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		m.ctrl.SetQuery(after)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Search):
		if !m.collab.HasSearchBox() {
			return m, nil
		}
		return m, m.search.Focus()

	case key.Matches(msg, keys.More):
		if m.collab.HasPager() {
			m.ctrl.LoadMore()
		}
		return m, nil

	case key.Matches(msg, keys.Category):
		if m.collab.HasCategoryLinks() && len(m.categories) > 1 {
			m.catIdx = (m.catIdx + 1) % len(m.categories)
			m.ctrl.SetCategory(m.categories[m.catIdx])
		}
		return m, nil

	case key.Matches(msg, keys.Tag):
		if !m.collab.HasTagChips() {
			return m, nil
		}
		n := int(msg.String()[0] - '1')
		if n < len(m.tags) {
			m.ctrl.ToggleTag(m.tags[n])
		}
		return m, nil

	case key.Matches(msg, keys.Clear):
		if m.collab.HasTagChips() {
			m.ctrl.ClearTags()
		}
		return m, nil

	case key.Matches(msg, keys.Reload):
		m.loading = true
		return m, m.load()
	}

	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.cursor != nil && m.ctrl.Loaded() {
		pos := prefs.Position{Index: m.ctrl.State().VisibleCount}
		if err := m.cursor.Save(m.ctx, pos); err != nil {
			m.err = err
		}
	}
	return m, tea.Quit
}

func (m *Model) restoreCursor() {
	if m.cursor == nil || m.resumed {
		return
	}
	m.resumed = true
	pos, err := m.cursor.Restore(m.ctx, m.policy.Initial())
	if err != nil {
		m.err = err
		return
	}
	m.ctrl.Resume(pos.Index)
}

// View renders the browser.
func (m Model) View() string {
	var b strings.Builder

	title := titleStyle.Render("storydesk")
	if m.fetcher != nil {
		title += " " + mutedStyle.Render(m.fetcher.Location())
	}
	if m.loading {
		title += " " + m.spinner.View()
	}
	b.WriteString(title + "\n")

	if m.collab.HasSearchBox() {
		b.WriteString(m.search.View() + "\n")
	}
	if m.collab.HasCategoryLinks() && len(m.categories) > 1 {
		b.WriteString(m.categoryBar() + "\n")
	}
	if m.collab.HasTagChips() && len(m.tags) > 0 {
		b.WriteString(m.tagBar() + "\n")
	}
	b.WriteString("\n" + m.mount.String() + "\n")

	if m.collab.HasPager() {
		if line := render.PagerLine(m.pager.State()); line != "" {
			b.WriteString(line + "\n")
		}
	}
	if m.err != nil {
		b.WriteString(render.ErrorText.Render("Error: "+m.err.Error()) + "\n")
	}
	b.WriteString(m.statusBar())
	return b.String()
}

func (m Model) categoryBar() string {
	parts := make([]string, len(m.categories))
	for i, c := range m.categories {
		label := textnorm.Label(c)
		if i == m.catIdx {
			parts[i] = activeChip.Render(label)
		} else {
			parts[i] = chip.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) tagBar() string {
	state := m.ctrl.State()
	parts := make([]string, 0, len(m.tags))
	for i, t := range m.tags {
		label := t
		if i < maxTagKeys {
			label = fmt.Sprintf("%d %s", i+1, t)
		}
		if state.HasTag(textnorm.Fold(t)) {
			parts = append(parts, activeChip.Render(label))
		} else {
			parts = append(parts, chip.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) statusBar() string {
	page := m.ctrl.Page()
	count := fmt.Sprintf("%d of %d stories", len(page.Items), page.Matched)
	help := []string{"q quit", "r reload"}
	if m.collab.HasSearchBox() {
		help = append(help, "/ search")
	}
	if m.collab.HasPager() {
		help = append(help, "m more")
	}
	if m.collab.HasCategoryLinks() {
		help = append(help, "c category")
	}
	if m.collab.HasTagChips() {
		help = append(help, "1-9 tag", "0 clear")
	}
	return statusStyle.Render(count + "  " + strings.Join(help, " · "))
}

// Controller returns the browser's list controller.
func (m Model) Controller() *listing.Controller {
	return m.ctrl
}

// Searching reports whether the search box has focus.
func (m Model) Searching() bool {
	return m.search.Focused()
}

// Category returns the selected category.
func (m Model) Category() string {
	return m.categories[m.catIdx]
}
