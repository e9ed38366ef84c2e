package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard key bindings.
type KeyMap struct {
	Quit      key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	NextField key.Binding
	PrevField key.Binding
	Start     key.Binding
	Stop      key.Binding
	Clear     key.Binding
	Connect   key.Binding
	Copy      key.Binding
	Refresh   key.Binding
	Follow    key.Binding
	Help      key.Binding
}

// DefaultKeyMap returns the default bindings. Plain letters are left to the form inputs.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("^c", "quit")),
		NextTab:   key.NewBinding(key.WithKeys("ctrl+right", "ctrl+n"), key.WithHelp("^n", "next tab")),
		PrevTab:   key.NewBinding(key.WithKeys("ctrl+left", "ctrl+p"), key.WithHelp("^p", "prev tab")),
		NextField: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("⇧tab", "prev field")),
		Start:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("^s", "start")),
		Stop:      key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("^x", "stop")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("^l", "new run")),
		Connect:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "get link")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("^y", "copy link")),
		Refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("^r", "refresh")),
		Follow:    key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("^f", "follow tail")),
		Help:      key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "more keys")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.NextTab, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Clear, k.Follow},
		{k.NextField, k.PrevField, k.NextTab, k.PrevTab},
		{k.Connect, k.Copy, k.Refresh},
		{k.Help, k.Quit},
	}
}
