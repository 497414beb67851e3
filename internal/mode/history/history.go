// Package history implements the orders and quotes view.
package history

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/portal/internal/config"
	"github.com/zjrosen/portal/internal/flags"
	"github.com/zjrosen/portal/internal/keys"
	"github.com/zjrosen/portal/internal/listing"
	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/mode"
	"github.com/zjrosen/portal/internal/portal"
	"github.com/zjrosen/portal/internal/ui/styles"
	"github.com/zjrosen/portal/internal/ui/toaster"
)

// Model is the history mode state.
type Model struct {
	services mode.Services

	// ctrl is nil until the site list has loaded.
	ctrl     *listing.Controller
	sitesErr string

	spinner  spinner.Model
	help     help.Model
	showHelp bool

	cursor    int
	confirmID string

	width  int
	height int
}

// sitesLoadedMsg carries the site list requested by Init.
type sitesLoadedMsg struct {
	sites []portal.Site
	err   error
}

// SitesChangedMsg tells the view the signed-in user's sites were reloaded.
type SitesChangedMsg struct {
	Sites []portal.Site
}

type pdfSavedMsg struct {
	quote string
	path  string
	err   error
}

// New creates the history view. The listing starts once sites load.
func New(services mode.Services) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(styles.StatusInfoColor)
	return Model{
		services: services,
		spinner:  sp,
		help:     help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadSites())
}

func (m Model) loadSites() tea.Cmd {
	sess := m.services.Session
	return func() tea.Msg {
		sites, err := sess.Sites(context.Background())
		return sitesLoadedMsg{sites: sites, err: err}
	}
}

// SetSize handles terminal resize events.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.help.Width = width
	return m
}

// Controller exposes the listing state, nil before sites load.
func (m Model) Controller() *listing.Controller {
	return m.ctrl
}

// Stop cancels in-flight fetches. Called when the mode is left.
func (m Model) Stop() {
	if m.ctrl != nil {
		m.ctrl.Stop()
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sitesLoadedMsg:
		if msg.err != nil {
			m.sitesErr = "Failed to load accounts: " + msg.err.Error()
			log.ErrorErr(log.CatUI, "Loading sites failed", msg.err)
			return m, nil
		}
		return m.applySites(msg.sites)

	case SitesChangedMsg:
		return m.applySites(msg.Sites)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pdfSavedMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatUI, "Quote PDF download failed", msg.err, "quote", msg.quote)
			return m, mode.Toast("PDF download failed: "+msg.err.Error(), toaster.StyleError)
		}
		return m, mode.Toast("Saved "+msg.path, toaster.StyleSuccess)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.ctrl == nil {
		return m, nil
	}
	cmd := m.ctrl.Update(msg)
	m.clampCursor()
	return m, cmd
}

func (m Model) applySites(sites []portal.Site) (Model, tea.Cmd) {
	m.sitesErr = ""
	if m.ctrl != nil {
		return m, m.ctrl.SetSites(sites)
	}

	cfg := m.config()
	rt, err := listing.ParseResultType(cfg.Listing.DefaultTab)
	if err != nil {
		rt = listing.Quote
	}
	sel := listing.NewSelection(m.services.Session.Store(), sites, rt)
	m.ctrl = listing.NewController(m.services.Backend, sel, sites, listing.Options{
		Debounce:          cfg.Listing.Debounce,
		DefaultPageSize:   cfg.Listing.DefaultPageSize,
		ClearLocalOnError: cfg.Listing.ClearLocalOnError,
	})
	log.Debug(log.CatUI, "History listing started", "account", sel.Account(), "type", string(rt), "sites", len(sites))
	return m, m.ctrl.Init()
}

func (m Model) config() config.Config {
	if m.services.Config != nil {
		return *m.services.Config
	}
	return config.Defaults()
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := keys.History

	if key.Matches(msg, keys.Global.Help) {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.ctrl == nil {
		return m, nil
	}

	if m.confirmID != "" {
		switch {
		case key.Matches(msg, k.Confirm):
			id := m.confirmID
			m.confirmID = ""
			if m.ctrl.DeleteLocally(id) {
				m.clampCursor()
				return m, mode.Toast("Removed quote "+id, toaster.StyleSuccess)
			}
		case key.Matches(msg, k.Cancel):
			m.confirmID = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, k.Down):
		if m.cursor < len(m.ctrl.Rows())-1 {
			m.cursor++
		}
	case key.Matches(msg, k.Orders):
		return m.switchType(listing.Order)
	case key.Matches(msg, k.Quotes):
		return m.switchType(listing.Quote)
	case key.Matches(msg, k.NextTab):
		if m.ctrl.Selection().ResultType() == listing.Quote {
			return m.switchType(listing.Order)
		}
		return m.switchType(listing.Quote)
	case key.Matches(msg, k.Account):
		m.cursor = 0
		return m, m.ctrl.SetAccount(m.nextAccount())
	case key.Matches(msg, k.PrevPage):
		m.cursor = 0
		return m, m.ctrl.PrevPage()
	case key.Matches(msg, k.NextPage):
		m.cursor = 0
		return m, m.ctrl.NextPage()
	case key.Matches(msg, k.First):
		m.cursor = 0
		return m, m.ctrl.FirstPage()
	case key.Matches(msg, k.Last):
		m.cursor = 0
		return m, m.ctrl.LastPage()
	case key.Matches(msg, k.Refresh):
		return m, m.ctrl.Refresh()
	case key.Matches(msg, k.Expand):
		if row, ok := m.selectedRow(); ok {
			m.ctrl.ToggleExpanded(row.ID)
		}
	case key.Matches(msg, k.Delete):
		if row, ok := m.selectedRow(); ok && row.Kind == listing.Quote {
			m.confirmID = row.ID
		}
	case key.Matches(msg, k.PDF):
		return m, m.downloadPDF()
	case key.Matches(msg, k.Yank):
		return m, m.yankTracking()
	}
	return m, nil
}

func (m Model) switchType(rt listing.ResultType) (Model, tea.Cmd) {
	m.cursor = 0
	return m, m.ctrl.SetResultType(rt)
}

// nextAccount cycles ALL, then each site in order.
func (m Model) nextAccount() string {
	accounts := []string{listing.AllAccounts}
	for _, s := range m.ctrl.Sites() {
		accounts = append(accounts, s.Slug)
	}
	i := slices.Index(accounts, m.ctrl.Selection().Account())
	return accounts[(i+1)%len(accounts)]
}

func (m Model) selectedRow() (listing.Row, bool) {
	rows := m.ctrl.Rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return listing.Row{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.ctrl == nil {
		return
	}
	n := len(m.ctrl.Rows())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m Model) downloadPDF() tea.Cmd {
	if !m.services.Flags.Enabled(flags.FlagQuotePDF) {
		return mode.Toast("PDF download is disabled", toaster.StyleInfo)
	}
	row, ok := m.selectedRow()
	if !ok || row.Kind != listing.Quote {
		return nil
	}

	backend := m.services.Backend
	path := filepath.Join(m.services.DownloadDir, portal.QuotePDFFilename(row.ID))
	return func() tea.Msg {
		return pdfSavedMsg{quote: row.ID, path: path, err: portal.SaveQuotePDF(context.Background(), backend, row.ID, path)}
	}
}

func (m Model) yankTracking() tea.Cmd {
	row, ok := m.selectedRow()
	if !ok || m.services.Clipboard == nil {
		return nil
	}
	ref := row.TrackingRef()
	if ref == "" {
		return mode.Toast("No tracking reference for "+row.ID, toaster.StyleInfo)
	}
	if err := m.services.Clipboard.Copy(ref); err != nil {
		return mode.Toast("Copy failed: "+err.Error(), toaster.StyleError)
	}
	return mode.Toast("Copied "+ref, toaster.StyleSuccess)
}

// accountLabel renders the selected account for the header.
func (m Model) accountLabel() string {
	account := m.ctrl.Selection().Account()
	label, err := listing.ResolveLabel(account, m.ctrl.Sites())
	if account == listing.AllAccounts {
		if err != nil {
			return "All accounts"
		}
		return fmt.Sprintf("All accounts (%s)", label)
	}
	if err != nil {
		return account
	}
	return label
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("Portal")
	if m.services.Session != nil {
		if name := m.services.Session.User().Name; name != "" {
			title += styles.MutedStyle.Render(" · " + name)
		}
	}
	if m.ctrl == nil {
		return title
	}

	rt := m.ctrl.Selection().ResultType()
	tab := func(t listing.ResultType) string {
		if t == rt {
			return styles.ActiveTabStyle.Render(t.Title())
		}
		return styles.TabStyle.Render(t.Title())
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, tab(listing.Order), tab(listing.Quote))

	account := "Account: " + m.accountLabel()
	if loadingAccount, _ := m.ctrl.Loading(); loadingAccount {
		account += " " + m.spinner.View()
	}
	return title + "\n" + tabs + "  " + styles.SecondaryStyle.Render(account)
}

func (m Model) renderBody() string {
	if m.ctrl == nil {
		if m.sitesErr != "" {
			return styles.ErrorStyle.Render(m.sitesErr)
		}
		return m.spinner.View() + " Loading accounts…"
	}
	if m.ctrl.NoAccount() {
		return styles.MutedStyle.Render("No account available. Add a site in the portal to see orders and quotes.")
	}
	if msg := m.ctrl.Err(); msg != "" {
		return styles.ErrorStyle.Render(msg) + "\n" + styles.MutedStyle.Render("Press r to retry.")
	}

	loadingAccount, loadingList := m.ctrl.Loading()
	if loadingAccount {
		return ""
	}
	if loadingList {
		return m.spinner.View() + fmt.Sprintf(" Loading page %d…", m.ctrl.Selection().Page())
	}

	rows := m.ctrl.Rows()
	if len(rows) == 0 {
		return styles.MutedStyle.Render("No " + strings.ToLower(m.ctrl.Selection().ResultType().Title()) + " found.")
	}
	return renderTable(rows, m.cursor, m.ctrl.Expanded, m.width)
}

func (m Model) renderFooter() string {
	var parts []string
	if m.ctrl != nil && !m.ctrl.NoAccount() {
		if loadingAccount, _ := m.ctrl.Loading(); loadingAccount {
			parts = append(parts, styles.MutedStyle.Render(fmt.Sprintf("Page %d · Loading…", m.ctrl.Selection().Page())))
		} else {
			p := m.ctrl.Pager()
			pages := p.WindowLabel(func(s string) string { return styles.CurrentPageStyle.Render(s) })
			parts = append(parts, styles.MutedStyle.Render(fmt.Sprintf("%s · Page %d of %d · ", p.RangeLabel(), p.Page, p.TotalPages))+pages)
		}
	}
	if m.confirmID != "" {
		parts = append(parts, styles.ConfirmStyle.Render(fmt.Sprintf("Delete quote %s? (y/n)", m.confirmID)))
	}
	if m.showHelp {
		parts = append(parts, m.help.FullHelpView(keys.History.FullHelp()))
	} else {
		parts = append(parts, m.help.ShortHelpView(keys.History.ShortHelp()))
	}
	return strings.Join(parts, "\n")
}
