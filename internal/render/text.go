package render

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/dailypixel/storydesk/internal/listing"
	"github.com/dailypixel/storydesk/internal/post"
)

// Colors used in terminal output.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorError     = lipgloss.Color("196") // Red
)

// CardBox frames a single story.
var CardBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// CardTitle style for the story headline.
var CardTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// CardMeta style for the date/author line.
var CardMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

// CardLink style for the "read more" target.
var CardLink = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Underline(true)

// MutedText style for loading and empty messages.
var MutedText = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Italic(true).
	Padding(0, 1)

// ErrorText style for load failures.
var ErrorText = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// DefaultCardWidth is used when the terminal width is unknown.
const DefaultCardWidth = 72

// Card renders one story as a framed terminal card of the given outer width.
func Card(p post.Post, width int) string {
	if width <= 0 {
		width = DefaultCardWidth
	}
	inner := max(width-4, 10)

	lines := []string{CardTitle.Width(inner).Render(p.Title)}
	if meta := Meta(p); meta != "" {
		lines = append(lines, CardMeta.Width(inner).Render(meta))
	}
	if p.Excerpt != "" {
		lines = append(lines, lipgloss.NewStyle().Width(inner).Render(p.Excerpt))
	}
	if p.URL != "" {
		lines = append(lines, CardLink.Render("Read More → "+p.URL))
	}
	return CardBox.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// Meta returns the "date • author" line, omitting missing parts.
func Meta(p post.Post) string {
	switch {
	case p.Date != "" && p.Author != "":
		return p.Date + " • " + p.Author
	case p.Date != "":
		return p.Date
	default:
		return p.Author
	}
}

// Message renders a mount message for the terminal.
func Message(kind listing.MessageKind, text string) string {
	if kind == listing.MessageError {
		return ErrorText.Render(text)
	}
	return MutedText.Render(text)
}

// TextMount renders cards for a terminal. Every Render or Message call
// replaces the whole output.
type TextMount struct {
	Width int

	mu  sync.Mutex
	out string
}

// NewTextMount returns a terminal mount with the given card width.
func NewTextMount(width int) *TextMount {
	return &TextMount{Width: width}
}

// Render implements listing.Mount.
func (m *TextMount) Render(posts []post.Post) {
	cards := make([]string, len(posts))
	for i, p := range posts {
		cards[i] = Card(p, m.Width)
	}
	m.set(strings.Join(cards, "\n"))
}

// Message implements listing.Mount.
func (m *TextMount) Message(kind listing.MessageKind, text string) {
	m.set(Message(kind, text))
}

// String returns the current output.
func (m *TextMount) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out
}

func (m *TextMount) set(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out = s
}

// PagerLine renders a pager state as a one-line hint, or "" when hidden.
func PagerLine(state listing.PagerState) string {
	if !state.Visible {
		return ""
	}
	return CardMeta.Render(state.Label + " (" + strconv.Itoa(state.Remaining) + " more)")
}
