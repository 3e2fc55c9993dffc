package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	download key.Binding
	stream   key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		download: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "download")),
		stream:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stream")),
		back:     key.NewBinding(key.WithKeys("r", "esc"), key.WithHelp("r", "back to results")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.download, k.stream, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.download, k.stream},
		{k.back, k.quit},
	}
}
