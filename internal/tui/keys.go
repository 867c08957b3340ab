package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit    key.Binding
	Focus     key.Binding
	Next      key.Binding
	Prev      key.Binding
	Direction key.Binding
	Dismiss   key.Binding
	Current   key.Binding
	Reset     key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Focus:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "edit query")),
		Next:      key.NewBinding(key.WithKeys("tab", "right", "down", "j"), key.WithHelp("tab", "next place")),
		Prev:      key.NewBinding(key.WithKeys("shift+tab", "left", "up", "k"), key.WithHelp("shift+tab", "previous place")),
		Direction: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "directions")),
		Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Current:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "current location")),
		Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset camera")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Focus, k.Next, k.Direction, k.Dismiss, k.Current, k.Reset, k.Quit}
}
