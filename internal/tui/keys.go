package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Top, Bottom key.Binding
	Open, Refresh, Quit   key.Binding

	Back, PrevPhoto, NextPhoto key.Binding
	Directions, ClearRoute     key.Binding
	ForceQuit                  key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:     key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:  key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

	Back:       key.NewBinding(key.WithKeys("esc", "backspace", "q"), key.WithHelp("esc", "back")),
	PrevPhoto:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev photo")),
	NextPhoto:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next photo")),
	Directions: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "directions")),
	ClearRoute: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear route")),
	ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c")),
}

func (k keyMap) feedHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Refresh, k.Quit}
}

func (k keyMap) detailHelp() []key.Binding {
	return []key.Binding{k.PrevPhoto, k.NextPhoto, k.Directions, k.ClearRoute, k.Back}
}
