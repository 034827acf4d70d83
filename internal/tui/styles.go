package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorHighlight = lipgloss.Color("212") // Pink
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

var mutedStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

var chip = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

var activeChip = chip.
	Bold(true).
	Background(colorPrimary)

var statusStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	MarginTop(1)
