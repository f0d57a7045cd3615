package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Checklist actions
	Cycle    key.Binding
	Queue    key.Binding
	Purchase key.Binding
	Check    key.Binding
	Notes    key.Binding
	Quantity key.Binding

	// Needed-list actions
	Remove   key.Binding
	Checkout key.Binding

	// Pane switch between the item list and the needed lists
	SwitchPane key.Binding

	// Settings form
	Settings key.Binding

	// Open the course sheet or PDF externally
	OpenSheet key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Cycle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "cycle marker"),
		),
		Queue: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "add to needed"),
		),
		Purchase: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "buy now"),
		),
		Check: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "toggle checkbox"),
		),
		Notes: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle notes"),
		),
		Quantity: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit quantity"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "remove from list"),
		),
		Checkout: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "checkout"),
		),
		SwitchPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		OpenSheet: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "open sheet"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Cycle, k.Queue, k.Purchase, k.Check},
		{k.Notes, k.Quantity, k.SwitchPane, k.Remove, k.Checkout},
		{k.Refresh, k.Settings, k.OpenSheet, k.Help},
	}
}
