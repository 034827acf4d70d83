package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Search   key.Binding
	Blur     key.Binding
	More     key.Binding
	Category key.Binding
	Tag      key.Binding
	Clear    key.Binding
	Reload   key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Blur:     key.NewBinding(key.WithKeys("enter", "esc")),
	More:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
	Category: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
	Tag:      key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "tag")),
	Clear:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "clear tags")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
}
