package listing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/portal/internal/portal"
	"github.com/zjrosen/portal/internal/testutil"
)

type fetchCall struct {
	ctx   context.Context
	label string
	kind  string
	page  int
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	respond func(label, kind string, page int) (portal.AccountData, error)
}

func (f *fakeFetcher) GetAccountData(ctx context.Context, label, kind string, page int) (portal.AccountData, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{ctx: ctx, label: label, kind: kind, page: page})
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return portal.AccountData{}, nil
	}
	return respond(label, kind, page)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) lastCall() fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// pagedQuotes serves 23 quotes, 5 per page, named after their position.
func pagedQuotes(label, kind string, page int) (portal.AccountData, error) {
	var quotes []portal.RawQuote
	for i := range 5 {
		n := (page-1)*5 + i + 1
		if n > 23 {
			break
		}
		quotes = append(quotes, testutil.Quote(fmt.Sprintf("%s-%d", label, n)))
	}
	return testutil.QuotesPage(23, 5, quotes...), nil
}

func newTestController(f *fakeFetcher, sites []portal.Site, mutate ...func(*Options)) *Controller {
	opts := DefaultOptions()
	opts.Debounce = 0
	for _, m := range mutate {
		m(&opts)
	}
	return NewController(f, NewSelection(mapStore{}, sites, Quote), sites, opts)
}

// drive runs cmd and every command the controller returns until none is left.
func drive(c *Controller, cmd tea.Cmd) {
	for cmd != nil {
		cmd = c.Update(cmd())
	}
}

func TestController_QuoteScenario(t *testing.T) {
	f := &fakeFetcher{respond: func(string, string, int) (portal.AccountData, error) {
		return testutil.QuotesPage(1, 5,
			testutil.Quote("Q1", testutil.QuoteLines(testutil.Line("P1", 2, 9.99))),
		), nil
	}}
	c := newTestController(f, []portal.Site{testutil.Site(1, "SITE-A", "", true)})

	drive(c, c.Init())

	require.Equal(t, 1, f.callCount())
	call := f.lastCall()
	require.Equal(t, "SITE-A", call.label)
	require.Equal(t, "quotes", call.kind)
	require.Equal(t, 1, call.page)

	rows := c.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, "Q1", rows[0].ID)
	require.Equal(t, Quote, rows[0].Kind)
	require.Equal(t, "Open", rows[0].Status)
	require.Equal(t, "19.98", rows[0].Total.String())
	require.Equal(t, PageMeta{TotalCount: 1, PageSize: 5}, c.Meta())
	require.Empty(t, c.Err())
}

func TestController_NoStaleOverwrite(t *testing.T) {
	f := &fakeFetcher{respond: func(label, _ string, _ int) (portal.AccountData, error) {
		return testutil.QuotesPage(1, 5, testutil.Quote(label+"-quote")), nil
	}}
	c := newTestController(f, twoSites)

	// R1 for SITE-B (the default) is started but not completed.
	slow := c.Update(c.Init()())
	require.NotNil(t, slow)

	// R2 for SITE-A supersedes it and completes first.
	fast := c.Update(c.SetAccount("SITE-A")())
	require.NotNil(t, fast)
	require.Nil(t, c.Update(fast()))
	require.Equal(t, []string{"Alpha-quote"}, ids(c.Rows()))

	// R1 arrives late and is discarded.
	late := slow()
	require.Nil(t, c.Update(late))
	require.Equal(t, []string{"Alpha-quote"}, ids(c.Rows()))
	require.Equal(t, "Alpha", c.RemotePage().Key.Label)

	f.mu.Lock()
	firstCtx := f.calls[0].ctx
	f.mu.Unlock()
	require.ErrorIs(t, firstCtx.Err(), context.Canceled)
}

func TestController_PageResetsBeforeFetchResolves(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, twoSites)
	drive(c, c.Init())

	drive(c, c.SetPage(3))
	require.Equal(t, 3, c.Selection().Page())

	cmd := c.SetAccount("SITE-A")
	require.NotNil(t, cmd)
	require.Equal(t, 1, c.Selection().Page())

	c.SetPage(3)
	require.Equal(t, 3, c.Selection().Page())
	c.SetResultType(Order)
	require.Equal(t, 1, c.Selection().Page())
}

func TestController_ScopeChangeDropsPreviousMeta(t *testing.T) {
	f := &fakeFetcher{respond: func(label, kind string, page int) (portal.AccountData, error) {
		if label == "SITE-B" {
			return testutil.QuotesPage(1, 5, testutil.Quote("only")), nil
		}
		return pagedQuotes(label, kind, page)
	}}
	c := newTestController(f, twoSites)
	drive(c, c.Init())
	require.Equal(t, 1, c.Pager().TotalPages)

	c.SetAccount("SITE-A")
	require.Equal(t, PageMeta{PageSize: 5}, c.Meta())
	require.Equal(t, "No items", c.Pager().RangeLabel())

	// The previous account had a single page; that must not cap paging here.
	drive(c, c.NextPage())
	require.Equal(t, 2, c.Selection().Page())
	require.Equal(t, 2, f.lastCall().page)
	require.Equal(t, "Showing 6-10 of 23", c.Pager().RangeLabel())

	// Once loaded, paging clamps again.
	drive(c, c.SetPage(99))
	require.Equal(t, 5, c.Selection().Page())
}

func TestController_DebounceCoalescesPageChanges(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, twoSites)
	drive(c, c.Init())
	require.Equal(t, 1, f.callCount())

	ticks := []tea.Cmd{c.SetPage(2), c.SetPage(3), c.SetPage(4)}

	var fetches []tea.Cmd
	for _, tick := range ticks {
		require.NotNil(t, tick)
		if fetch := c.Update(tick()); fetch != nil {
			fetches = append(fetches, fetch)
		}
	}
	require.Len(t, fetches, 1)
	c.Update(fetches[0]())

	require.Equal(t, 2, f.callCount())
	require.Equal(t, 4, f.lastCall().page)
	require.Equal(t, []string{"SITE-B-16", "SITE-B-17", "SITE-B-18", "SITE-B-19", "SITE-B-20"}, ids(c.Rows()))
}

func TestController_DebounceUsesTimer(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, twoSites, func(o *Options) { o.Debounce = 20 * time.Millisecond })

	start := time.Now()
	tick := c.Init()
	msg := tick()
	require.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	require.Equal(t, 0, f.callCount())

	drive(c, c.Update(msg))
	require.Equal(t, 1, f.callCount())
}

func TestController_LoadingIndicators(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, twoSites)

	cmd := c.Init()
	account, list := c.Loading()
	require.True(t, account)
	require.True(t, list)
	drive(c, cmd)
	account, list = c.Loading()
	require.False(t, account)
	require.False(t, list)

	cmd = c.NextPage()
	account, list = c.Loading()
	require.False(t, account, "page-only change keeps the account spinner hidden")
	require.True(t, list)
	drive(c, cmd)

	cmd = c.SetResultType(Order)
	account, list = c.Loading()
	require.True(t, account)
	require.True(t, list)
	drive(c, cmd)

	account, list = c.Loading()
	require.False(t, account)
	require.False(t, list)
}

func TestController_RepeatedKeyIsNoop(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, twoSites)
	drive(c, c.Init())

	require.Nil(t, c.SetPage(1))
	require.Nil(t, c.SetAccount("SITE-B"))
	require.Equal(t, 1, f.callCount())

	drive(c, c.Refresh())
	require.Equal(t, 2, f.callCount())
}

func TestController_SamePendingKeyIsNotRescheduled(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, twoSites)
	drive(c, c.Init())

	require.NotNil(t, c.SetPage(2))
	require.Nil(t, c.SetPage(2))
	require.True(t, c.Busy())
}

func TestController_ReturningToCompletedKeyCancelsPending(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, twoSites)
	drive(c, c.Init())

	tick := c.SetPage(2)
	require.NotNil(t, tick)
	require.Nil(t, c.SetPage(1))
	require.False(t, c.Busy())

	require.Nil(t, c.Update(tick()))
	require.Equal(t, 1, f.callCount())
	require.Equal(t, 1, c.Selection().Page())
}

func TestController_FetchErrorKeepsPaginationMeta(t *testing.T) {
	fail := false
	f := &fakeFetcher{respond: func(label, kind string, page int) (portal.AccountData, error) {
		if fail {
			return portal.AccountData{}, &portal.FetchError{Status: 500, Message: "boom"}
		}
		return pagedQuotes(label, kind, page)
	}}
	c := newTestController(f, twoSites)
	drive(c, c.Init())
	require.Len(t, c.Rows(), 5)

	fail = true
	drive(c, c.SetPage(2))

	require.Equal(t, "boom", c.Err())
	require.Nil(t, c.RemotePage())
	require.Empty(t, c.Rows(), "local quotes are cleared on error")
	require.Equal(t, PageMeta{TotalCount: 23, PageSize: 5}, c.Meta())
	require.Equal(t, 5, c.Pager().TotalPages)

	// The failed key is retried rather than treated as already loaded.
	fail = false
	drive(c, c.SetPage(2))
	require.Equal(t, 3, f.callCount())
	require.Empty(t, c.Err())
	require.Len(t, c.Rows(), 5)
}

func TestController_FetchErrorCanKeepLocalQuotes(t *testing.T) {
	fail := false
	f := &fakeFetcher{respond: func(label, kind string, page int) (portal.AccountData, error) {
		if fail {
			return portal.AccountData{}, fmt.Errorf("network down")
		}
		return pagedQuotes(label, kind, page)
	}}
	c := newTestController(f, twoSites, func(o *Options) { o.ClearLocalOnError = false })
	drive(c, c.Init())

	fail = true
	drive(c, c.Refresh())
	require.Equal(t, "network down", c.Err())
	require.Len(t, c.Rows(), 5)
}

func TestController_CanceledResultLeavesStateUntouched(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, twoSites)
	drive(c, c.Init())
	before := c.RemotePage()

	c.Update(fetchedMsg{version: c.version, key: before.Key, err: context.Canceled})

	require.Same(t, before, c.RemotePage())
	require.Empty(t, c.Err())
}

func TestController_NoAccountIsQuiescent(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, nil)

	require.Nil(t, c.Init())
	require.True(t, c.NoAccount())
	require.Empty(t, c.Err())
	require.Equal(t, 0, f.callCount())

	drive(c, c.SetSites(twoSites))
	require.False(t, c.NoAccount())
	require.Equal(t, "SITE-B", f.lastCall().label)
	require.NotEmpty(t, c.Rows())

	require.Nil(t, c.SetSites(nil))
	require.True(t, c.NoAccount())
	require.Nil(t, c.RemotePage())
	require.Empty(t, c.Rows())
	require.Empty(t, c.Err())
}

func TestController_DeleteLocally(t *testing.T) {
	f := &fakeFetcher{respond: func(string, string, int) (portal.AccountData, error) {
		return testutil.QuotesPage(3, 5, testutil.Quote("Q1"), testutil.Quote("Q2"), testutil.Quote("Q3")), nil
	}}
	c := newTestController(f, twoSites)
	drive(c, c.Init())

	c.ToggleExpanded("Q2")
	require.True(t, c.Expanded("Q2"))

	require.True(t, c.DeleteLocally("Q2"))
	require.Equal(t, []string{"Q1", "Q3"}, ids(c.Rows()))
	require.False(t, c.Expanded("Q2"))
	require.Equal(t, 3, c.RemotePage().TotalCount)
	require.Len(t, c.RemotePage().Rows, 3)
	require.Equal(t, 3, c.Meta().TotalCount)

	require.False(t, c.DeleteLocally("Q2"))
	require.False(t, c.DeleteLocally("nope"))

	drive(c, c.Refresh())
	require.Equal(t, []string{"Q1", "Q2", "Q3"}, ids(c.Rows()))
}

func TestController_DeleteLocallyIgnoresOrders(t *testing.T) {
	f := &fakeFetcher{respond: func(string, string, int) (portal.AccountData, error) {
		return testutil.OrdersPage(1, 5, testutil.Order("SO-1")), nil
	}}
	c := newTestController(f, twoSites)
	drive(c, c.SetResultType(Order))

	require.False(t, c.DeleteLocally("SO-1"))
	require.Equal(t, []string{"SO-1"}, ids(c.Rows()))
}

func TestController_OrderRowsHiddenUntilOrdersLoad(t *testing.T) {
	f := &fakeFetcher{respond: func(_ string, kind string, _ int) (portal.AccountData, error) {
		if kind == "orders" {
			return testutil.OrdersPage(1, 5, testutil.Order("SO-1")), nil
		}
		return testutil.QuotesPage(1, 5, testutil.Quote("Q1")), nil
	}}
	c := newTestController(f, twoSites)
	drive(c, c.Init())

	cmd := c.SetResultType(Order)
	require.Empty(t, c.Rows())
	drive(c, cmd)
	require.Equal(t, []string{"SO-1"}, ids(c.Rows()))
}

func TestController_MissingTotalsFallBack(t *testing.T) {
	f := &fakeFetcher{respond: func(string, string, int) (portal.AccountData, error) {
		return portal.AccountData{Quotes: []portal.RawQuote{testutil.Quote("Q1"), testutil.Quote("Q2")}}, nil
	}}
	c := newTestController(f, twoSites)
	drive(c, c.Init())

	require.Equal(t, PageMeta{TotalCount: 2, PageSize: DefaultPageSize}, c.Meta())
}

func TestController_SelectionSurvivesRebuild(t *testing.T) {
	store := mapStore{}
	f := &fakeFetcher{respond: pagedQuotes}
	c := NewController(f, NewSelection(store, twoSites, Quote), twoSites, Options{})
	c.SetAccount("SITE-A")

	rebuilt := NewController(f, NewSelection(store, twoSites, Order), twoSites, Options{})
	require.Equal(t, "SITE-A", rebuilt.Selection().Account())
}

func TestController_StopCancelsInFlight(t *testing.T) {
	f := &fakeFetcher{respond: pagedQuotes}
	c := newTestController(f, twoSites)
	fetch := c.Update(c.Init()())
	require.NotNil(t, fetch)

	c.Stop()
	require.False(t, c.Busy())
	require.Nil(t, c.Update(fetch()))
	require.Nil(t, c.RemotePage())
	require.ErrorIs(t, f.lastCall().ctx.Err(), context.Canceled)
}
