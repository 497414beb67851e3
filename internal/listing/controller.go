package listing

import (
	"context"
	"errors"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/portal"
)

// DefaultDebounce is the pause after the last selection change before fetching.
const DefaultDebounce = 250 * time.Millisecond

// Fetcher loads one page of account data. It must honor ctx cancellation.
type Fetcher interface {
	GetAccountData(ctx context.Context, label, kind string, page int) (portal.AccountData, error)
}

// Options tunes a Controller.
type Options struct {
	Debounce          time.Duration
	DefaultPageSize   int
	ClearLocalOnError bool
}

// DefaultOptions returns the built-in tuning.
func DefaultOptions() Options {
	return Options{
		Debounce:          DefaultDebounce,
		DefaultPageSize:   DefaultPageSize,
		ClearLocalOnError: true,
	}
}

// debounceMsg fires when the debounce for version elapses.
type debounceMsg struct {
	version int
}

// fetchedMsg carries the outcome of the fetch started for version.
type fetchedMsg struct {
	version int
	key     RequestKey
	data    portal.AccountData
	err     error
}

// Controller owns the selection, the fetched page and the local quote list.
// It is driven by a bubbletea Update loop and is not safe for concurrent use.
type Controller struct {
	fetcher Fetcher
	opts    Options
	sel     Selection
	sites   []portal.Site

	// version increases whenever a scheduled or running fetch is superseded.
	version int
	cancel  context.CancelFunc
	pending *RequestKey
	last    *RequestKey

	remote *RemotePage
	meta   PageMeta
	// metaScope is the key meta was fetched for, nil while meta holds defaults.
	metaScope *RequestKey
	local     []Row
	expanded  map[string]bool

	errMsg         string
	noAccount      bool
	loadingAccount bool
	loadingList    bool
}

// NewController creates a controller. Call Init to start the first fetch.
func NewController(fetcher Fetcher, sel Selection, sites []portal.Site, opts Options) *Controller {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	return &Controller{
		fetcher:  fetcher,
		opts:     opts,
		sel:      sel,
		sites:    slices.Clone(sites),
		meta:     PageMeta{PageSize: opts.DefaultPageSize},
		expanded: make(map[string]bool),
	}
}

// Init schedules the fetch for the initial selection.
func (c *Controller) Init() tea.Cmd {
	return c.schedule(false)
}

// Update handles the controller's own messages and ignores the rest.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case debounceMsg:
		return c.handleDebounce(msg)
	case fetchedMsg:
		c.handleFetched(msg)
	}
	return nil
}

// SetAccount switches account. A different account always reloads with the account spinner.
func (c *Controller) SetAccount(id string) tea.Cmd {
	if c.sel.SetAccount(id) {
		c.last = nil
	}
	return c.schedule(false)
}

// SetResultType switches between orders and quotes.
func (c *Controller) SetResultType(rt ResultType) tea.Cmd {
	if c.sel.SetResultType(rt) {
		c.last = nil
	}
	return c.schedule(false)
}

// SetPage moves to page n, clamped to the known page count. While a new
// account or result type is loading the page count is unknown and n is
// only kept at least 1.
func (c *Controller) SetPage(n int) tea.Cmd {
	if !c.loadingAccount {
		n = Clamp(n, c.Pager().TotalPages)
	}
	c.sel.SetPage(n)
	return c.schedule(false)
}

func (c *Controller) NextPage() tea.Cmd  { return c.SetPage(c.sel.Page() + 1) }
func (c *Controller) PrevPage() tea.Cmd  { return c.SetPage(c.sel.Page() - 1) }
func (c *Controller) FirstPage() tea.Cmd { return c.SetPage(1) }
func (c *Controller) LastPage() tea.Cmd  { return c.SetPage(c.Pager().TotalPages) }

// SetSites replaces the site list used for label resolution.
func (c *Controller) SetSites(sites []portal.Site) tea.Cmd {
	c.sites = slices.Clone(sites)
	return c.schedule(false)
}

// Refresh reloads the current selection even if it was already fetched.
func (c *Controller) Refresh() tea.Cmd {
	return c.schedule(true)
}

// Stop cancels any scheduled or running fetch without touching state.
func (c *Controller) Stop() {
	c.supersede()
	c.pending = nil
	c.loadingAccount, c.loadingList = false, false
}

// schedule derives the request key for the current selection and starts
// the debounce for it unless nothing needs fetching.
func (c *Controller) schedule(force bool) tea.Cmd {
	label, err := ResolveLabel(c.sel.Account(), c.sites)
	if errors.Is(err, ErrNoAccount) {
		c.supersede()
		c.pending = nil
		c.last = nil
		c.remote = nil
		c.local = nil
		c.errMsg = ""
		c.noAccount = true
		c.loadingAccount, c.loadingList = false, false
		log.Debug(log.CatFetch, "No account resolved", "account", c.sel.Account())
		return nil
	}
	c.noAccount = false

	key := RequestKey{Label: label, ResultType: c.sel.ResultType(), Page: c.sel.Page()}

	if !force && c.last != nil && *c.last == key && c.errMsg == "" {
		if c.pending != nil {
			c.supersede()
			c.pending = nil
			c.loadingAccount, c.loadingList = false, false
		}
		return nil
	}
	if !force && c.pending != nil && *c.pending == key {
		return nil
	}

	scope := c.last == nil || !c.last.SameScope(key)
	if c.metaScope != nil && !c.metaScope.SameScope(key) {
		c.meta = PageMeta{PageSize: c.opts.DefaultPageSize}
		c.metaScope = nil
	}
	c.supersede()
	c.pending = &key
	c.loadingList = true
	c.loadingAccount = scope

	log.Debug(log.CatFetch, "Fetch scheduled",
		"account", key.Label, "type", string(key.ResultType), "page", key.Page,
		"scope_change", scope, "version", c.version)

	version := c.version
	if c.opts.Debounce == 0 {
		return func() tea.Msg { return debounceMsg{version: version} }
	}
	return tea.Tick(c.opts.Debounce, func(time.Time) tea.Msg {
		return debounceMsg{version: version}
	})
}

// supersede invalidates the scheduled or running fetch.
func (c *Controller) supersede() {
	c.version++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) handleDebounce(msg debounceMsg) tea.Cmd {
	if msg.version != c.version || c.pending == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	key := *c.pending
	version := c.version
	fetcher := c.fetcher

	return func() tea.Msg {
		data, err := fetcher.GetAccountData(ctx, key.Label, key.ResultType.Kind(), key.Page)
		return fetchedMsg{version: version, key: key, data: data, err: err}
	}
}

func (c *Controller) handleFetched(msg fetchedMsg) {
	if msg.version != c.version {
		log.Debug(log.CatFetch, "Dropping superseded result", "version", msg.version, "current", c.version)
		return
	}
	if errors.Is(msg.err, context.Canceled) {
		return
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.pending = nil
	c.loadingAccount, c.loadingList = false, false

	if msg.err != nil {
		c.remote = nil
		c.last = nil
		c.errMsg = errorMessage(msg.err)
		if c.opts.ClearLocalOnError && msg.key.ResultType == Quote {
			c.local = nil
		}
		log.ErrorErr(log.CatFetch, "Fetch failed", msg.err,
			"account", msg.key.Label, "type", string(msg.key.ResultType), "page", msg.key.Page)
		return
	}

	page := NewRemotePage(msg.key, msg.data, c.opts.DefaultPageSize)
	rows := page.Rows

	key := msg.key
	c.last = &key
	c.remote = page
	c.meta = PageMeta{TotalCount: page.TotalCount, PageSize: page.PageSize}
	c.metaScope = &key
	c.errMsg = ""
	if key.ResultType == Quote {
		c.local = slices.Clone(rows)
	}

	log.Debug(log.CatFetch, "Fetch complete",
		"account", key.Label, "type", string(key.ResultType), "page", key.Page,
		"rows", len(rows), "total", page.TotalCount)
}

// NewRemotePage maps data fetched for key. The server's page_size wins
// over defaultPageSize when it is at least 1.
func NewRemotePage(key RequestKey, data portal.AccountData, defaultPageSize int) *RemotePage {
	rows := MapRows(data, key.ResultType)
	page := &RemotePage{
		Key:        key,
		Raw:        data,
		Rows:       rows,
		TotalCount: totalCount(data, key.ResultType, len(rows)),
		PageSize:   defaultPageSize,
	}
	if ps := data.PageSize; ps.Valid && ps.Value >= 1 {
		page.PageSize = int(ps.Value)
	}
	return page
}

// Pager paginates the page at its own page number.
func (p *RemotePage) Pager() Pager {
	return Paginate(p.Key.Page, p.PageSize, p.TotalCount)
}

func totalCount(data portal.AccountData, rt ResultType, rows int) int {
	n := data.TotalQuotes
	if rt == Order {
		n = data.TotalOrders
	}
	if n.Valid && n.Value >= 0 {
		return int(n.Value)
	}
	return rows
}

func errorMessage(err error) string {
	var fe *portal.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to fetch account data"
}

// DeleteLocally removes the quote with id from the local list and the
// expanded set. Pagination is unaffected. It reports whether a row was removed.
func (c *Controller) DeleteLocally(id string) bool {
	if c.sel.ResultType() != Quote {
		return false
	}
	idx := slices.IndexFunc(c.local, func(r Row) bool { return r.ID == id })
	if idx < 0 {
		return false
	}
	c.local = slices.Delete(slices.Clone(c.local), idx, idx+1)
	delete(c.expanded, id)
	log.Debug(log.CatFetch, "Quote removed locally", "id", id)
	return true
}

// ToggleExpanded flips whether row id shows its line items.
func (c *Controller) ToggleExpanded(id string) {
	if c.expanded[id] {
		delete(c.expanded, id)
		return
	}
	c.expanded[id] = true
}

func (c *Controller) Expanded(id string) bool {
	return c.expanded[id]
}

func (c *Controller) Selection() Selection {
	return c.sel
}

func (c *Controller) Sites() []portal.Site {
	return c.sites
}

// Rows are the rows to display: the local list for quotes, the fetched page for orders.
func (c *Controller) Rows() []Row {
	if c.sel.ResultType() == Quote {
		return c.local
	}
	if c.remote == nil || c.remote.Key.ResultType != Order {
		return nil
	}
	return c.remote.Rows
}

// RemotePage is the last successful page, nil after an error or before the first fetch.
func (c *Controller) RemotePage() *RemotePage {
	return c.remote
}

// Meta is the pagination data of the last successful fetch for the current
// account and result type.
func (c *Controller) Meta() PageMeta {
	return c.meta
}

// Pager presents the current page against the last known totals.
func (c *Controller) Pager() Pager {
	return Paginate(c.sel.Page(), c.meta.PageSize, c.meta.TotalCount)
}

// Err is the message of the last failed fetch, "" when none.
func (c *Controller) Err() string {
	return c.errMsg
}

// NoAccount reports whether the selection resolves to no backend label.
func (c *Controller) NoAccount() bool {
	return c.noAccount
}

// Loading reports the account-level and list-level spinners.
func (c *Controller) Loading() (account, list bool) {
	return c.loadingAccount, c.loadingList
}

// Busy reports whether a fetch is scheduled or running.
func (c *Controller) Busy() bool {
	return c.pending != nil
}
