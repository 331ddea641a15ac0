package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Traverse key.Binding
	Arrange  key.Binding
	Refit    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Traverse: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "bfs from first node"),
	),
	Arrange: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "arrange"),
	),
	Refit: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fit view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Traverse, k.Arrange, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Traverse, k.Arrange, k.Refit},
		{k.Help, k.Quit},
	}
}
