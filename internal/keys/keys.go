// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// GlobalKeys are handled by the root model before any mode sees the key.
type GlobalKeys struct {
	SwitchMode key.Binding
	ToggleLog  key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// HistoryKeys drive the orders/quotes view.
type HistoryKeys struct {
	Up       key.Binding
	Down     key.Binding
	Orders   key.Binding
	Quotes   key.Binding
	NextTab  key.Binding
	Account  key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	First    key.Binding
	Last     key.Binding
	Expand   key.Binding
	Delete   key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	PDF      key.Binding
	Yank     key.Binding
	Refresh  key.Binding
}

// CartKeys drive the cart and quote draft view.
type CartKeys struct {
	Up       key.Binding
	Down     key.Binding
	Switch   key.Binding
	Increase key.Binding
	Decrease key.Binding
	Remove   key.Binding
	Clear    key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
}

var Global = GlobalKeys{
	SwitchMode: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "history/cart"),
	),
	ToggleLog: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "debug log"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

var History = HistoryKeys{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Orders: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "orders"),
	),
	Quotes: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quotes"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch tab"),
	),
	Account: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "next account"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←", "prev page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→", "next page"),
	),
	First: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "first page"),
	),
	Last: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "last page"),
	),
	Expand: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "line items"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "delete quote"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
	PDF: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "download pdf"),
	),
	Yank: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy tracking"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
}

var Cart = CartKeys{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Switch: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "cart/quote"),
	),
	Increase: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "qty +1"),
	),
	Decrease: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "qty -1"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "remove"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// ShortHelp implements help.KeyMap.
func (k HistoryKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Account, k.PrevPage, k.NextPage, k.Expand, k.Refresh, Global.Help}
}

// FullHelp implements help.KeyMap.
func (k HistoryKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Expand},
		{k.Orders, k.Quotes, k.NextTab, k.Account},
		{k.PrevPage, k.NextPage, k.First, k.Last},
		{k.Delete, k.PDF, k.Yank, k.Refresh},
		{Global.SwitchMode, Global.Quit},
	}
}

func (k CartKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Switch, k.Increase, k.Decrease, k.Remove, k.Clear, Global.Help}
}

func (k CartKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Switch},
		{k.Increase, k.Decrease, k.Remove, k.Clear},
		{Global.SwitchMode, Global.Quit},
	}
}
