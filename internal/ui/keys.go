package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit    key.Binding
	Tab     key.Binding
	Escape  key.Binding
	Search  key.Binding
	Confirm key.Binding

	// View switching
	ViewInventory key.Binding
	ViewGroceries key.Binding
	ViewRepairs   key.Binding

	// Navigation
	Up   key.Binding
	Down key.Binding

	// Mutations
	Add    key.Binding
	Rename key.Binding
	Delete key.Binding
	Toggle key.Binding
	Winner key.Binding
	MoveUp key.Binding
	MoveDn key.Binding
	Share  key.Binding
	Image  key.Binding
	Theme  key.Binding
}

// defaultKeyMap returns the default key bindings.
func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		ViewInventory: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "inventory"),
		),
		ViewGroceries: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "groceries"),
		),
		ViewRepairs: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "repairs"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Winner: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "pick winner"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move up"),
		),
		MoveDn: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move down"),
		),
		Share: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "share link"),
		),
		Image: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "attach image"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle theme"),
		),
	}
}
