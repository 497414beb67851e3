// Package cart implements the cart and quote draft view.
package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/portal/internal/basket"
	"github.com/zjrosen/portal/internal/keys"
	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/mode"
	"github.com/zjrosen/portal/internal/mode/shared"
	"github.com/zjrosen/portal/internal/ui/styles"
	"github.com/zjrosen/portal/internal/ui/toaster"
)

// Model is the cart mode state.
type Model struct {
	services mode.Services

	kind   basket.Kind
	items  []basket.Item
	totals basket.Totals
	err    string

	cursor       int
	confirmClear bool
	showHelp     bool
	help         help.Model

	width  int
	height int
}

// loadedMsg carries the items of one basket after a load or an edit.
type loadedMsg struct {
	kind  basket.Kind
	items []basket.Item
	err   error
}

// editedMsg reports the outcome of a mutation, then triggers a reload.
type editedMsg struct {
	kind  basket.Kind
	toast string
	err   error
}

// ReloadMsg asks the view to re-read the current basket.
type ReloadMsg struct{}

func New(services mode.Services) Model {
	return Model{services: services, kind: basket.Cart, help: help.New()}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.help.Width = width
	return m
}

func (m Model) Kind() basket.Kind { return m.kind }

func (m Model) Items() []basket.Item { return m.items }

func (m Model) Totals() basket.Totals { return m.totals }

func (m Model) service() *basket.Service {
	if m.kind == basket.Quote {
		return m.services.Quote
	}
	return m.services.Cart
}

func (m Model) load() tea.Cmd {
	svc, kind := m.service(), m.kind
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		items, err := svc.Items(context.Background())
		return loadedMsg{kind: kind, items: items, err: err}
	}
}

func (m Model) edit(toast string, fn func(ctx context.Context, svc *basket.Service) error) tea.Cmd {
	svc, kind := m.service(), m.kind
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		return editedMsg{kind: kind, toast: toast, err: fn(context.Background(), svc)}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.kind != m.kind {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err.Error()
			log.ErrorErr(log.CatStore, "Loading basket failed", msg.err, "basket", string(msg.kind))
			return m, nil
		}
		m.err = ""
		m.items = msg.items
		m.totals = basket.Summarize(m.kind, m.items)
		if m.cursor >= len(m.items) {
			m.cursor = max(0, len(m.items)-1)
		}
		return m, nil

	case editedMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatStore, "Basket edit failed", msg.err, "basket", string(msg.kind))
			return m, tea.Batch(m.load(), mode.Toast(msg.err.Error(), toaster.StyleError))
		}
		if msg.toast != "" {
			return m, tea.Batch(m.load(), mode.Toast(msg.toast, toaster.StyleSuccess))
		}
		return m, m.load()

	case ReloadMsg:
		return m, m.load()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := keys.Cart

	if key.Matches(msg, keys.Global.Help) {
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.confirmClear {
		m.confirmClear = false
		if key.Matches(msg, k.Confirm) {
			return m, m.edit(fmt.Sprintf("Cleared %s", m.title()), func(ctx context.Context, svc *basket.Service) error {
				return svc.Clear(ctx)
			})
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, k.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, k.Switch):
		if m.kind == basket.Cart {
			m.kind = basket.Quote
		} else {
			m.kind = basket.Cart
		}
		m.cursor = 0
		m.items = nil
		m.totals = basket.Totals{}
		return m, m.load()
	case key.Matches(msg, k.Increase):
		return m, m.adjust(1)
	case key.Matches(msg, k.Decrease):
		return m, m.adjust(-1)
	case key.Matches(msg, k.Remove):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.edit("Removed "+item.PartNumber, func(ctx context.Context, svc *basket.Service) error {
			return svc.Remove(ctx, item.PartNumber)
		})
	case key.Matches(msg, k.Clear):
		if len(m.items) > 0 {
			m.confirmClear = true
		}
	}
	return m, nil
}

// adjust changes the selected quantity by delta; reaching zero removes the line.
func (m Model) adjust(delta int) tea.Cmd {
	item, ok := m.selected()
	if !ok {
		return nil
	}
	qty := item.Quantity + delta
	return m.edit("", func(ctx context.Context, svc *basket.Service) error {
		return svc.UpdateQuantity(ctx, item.PartNumber, qty)
	})
}

func (m Model) selected() (basket.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return basket.Item{}, false
	}
	return m.items[m.cursor], true
}

func (m Model) title() string {
	if m.kind == basket.Quote {
		return "quote draft"
	}
	return "cart"
}

func (m Model) View() string {
	var b strings.Builder

	cartTab, quoteTab := styles.ActiveTabStyle.Render("Cart"), styles.TabStyle.Render("Quote draft")
	if m.kind == basket.Quote {
		cartTab, quoteTab = styles.TabStyle.Render("Cart"), styles.ActiveTabStyle.Render("Quote draft")
	}
	b.WriteString(styles.TitleStyle.Render("Portal") + "\n" + cartTab + quoteTab + "\n\n")

	switch {
	case m.err != "":
		b.WriteString(styles.ErrorStyle.Render(m.err))
	case len(m.items) == 0:
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("Your %s is empty.", m.title())))
	default:
		b.WriteString(m.renderItems())
		b.WriteString("\n\n")
		b.WriteString(m.renderTotals())
	}

	b.WriteString("\n\n")
	if m.confirmClear {
		b.WriteString(styles.ConfirmStyle.Render(fmt.Sprintf("Clear the %s? (y/n)", m.title())) + "\n")
	}
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(keys.Cart.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(keys.Cart.ShortHelp()))
	}
	return b.String()
}

func (m Model) renderItems() string {
	clock := m.services.Clock
	if clock == nil {
		clock = shared.RealClock{}
	}
	now := clock.Now()

	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render("  " + pad("PART", 14) + " " + pad("NAME", 24) + " " +
		padLeft("QTY", 5) + " " + padLeft("PRICE", 10) + " " + padLeft("TOTAL", 11) + "  ADDED"))
	for i, it := range m.items {
		b.WriteString("\n")
		if i == m.cursor {
			b.WriteString(styles.SelectionIndicatorStyle.Render(">") + " ")
		} else {
			b.WriteString("  ")
		}
		b.WriteString(pad(it.PartNumber, 14) + " " + pad(it.Name, 24) + " " +
			padLeft(fmt.Sprint(it.Quantity), 5) + " " + padLeft(it.UnitPrice.Dollars(), 10) + " " +
			padLeft(it.LineTotal().Dollars(), 11) + "  " + styles.MutedStyle.Render(shared.Age(it.AddedAt, now)))
	}
	return b.String()
}

func (m Model) renderTotals() string {
	t := m.totals
	lines := []string{
		fmt.Sprintf("Items     %d", t.TotalItems),
		"Subtotal  " + t.Subtotal.Dollars(),
	}
	if m.kind == basket.Cart {
		lines = append(lines,
			"Tax (8%)  "+t.Tax.Dollars(),
			"Shipping  "+t.Shipping.Dollars(),
		)
	}
	lines = append(lines, styles.TitleStyle.Render("Total     "+t.Total.Dollars()))
	return styles.PanelStyle.Render(strings.Join(lines, "\n"))
}

func pad(s string, w int) string {
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}

func padLeft(s string, w int) string {
	return runewidth.FillLeft(runewidth.Truncate(s, w, "…"), w)
}
