package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard key bindings.
type KeyMap struct {
	Connect key.Binding

	// Discovery.
	ScanSerial key.Binding
	ScanBLE    key.Binding
	ScanRFCOMM key.Binding
	Pick       key.Binding // Use a discovered address, 1-9.

	// Chart selection.
	LeftAxis  key.Binding
	RightAxis key.Binding
	ColorMode key.Binding

	// Log pane.
	Up     key.Binding
	Down   key.Binding
	Bottom key.Binding

	SwitchView key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Connect: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "connect/disconnect"),
	),
	ScanSerial: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "scan serial"),
	),
	ScanBLE: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "scan BLE"),
	),
	ScanRFCOMM: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "scan RFCOMM"),
	),
	Pick: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "use address"),
	),
	LeftAxis: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "left metric"),
	),
	RightAxis: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "right metric"),
	),
	ColorMode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "color mode"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "log up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "log down"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "follow log"),
	),
	SwitchView: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "setup/results"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Connect, k.SwitchView, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Connect, k.ScanSerial, k.ScanBLE, k.ScanRFCOMM, k.Pick},
		{k.LeftAxis, k.RightAxis, k.ColorMode},
		{k.Up, k.Down, k.Bottom},
		{k.SwitchView, k.Help, k.Quit},
	}
}
