package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the key bindings of the form and the dashboard.
type KeyMap struct {
	Quit   key.Binding
	Abort  key.Binding
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Rerun  key.Binding
}

// DefaultKeyMap returns the standard bindings. Quit is only honoured by the
// dashboard, since "q" is a valid keystroke in a text field.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Abort: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Rerun: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "run again"),
		),
	}
}

func helpLine(bindings ...key.Binding) string {
	var s string
	for i, b := range bindings {
		if i > 0 {
			s += "  "
		}
		h := b.Help()
		s += footerKeyStyle.Render(h.Key) + " " + footerDescStyle.Render(h.Desc)
	}
	return s
}
