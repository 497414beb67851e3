package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/portal/internal/basket"
	"github.com/zjrosen/portal/internal/config"
	"github.com/zjrosen/portal/internal/flags"
	"github.com/zjrosen/portal/internal/listing"
	"github.com/zjrosen/portal/internal/mode"
	"github.com/zjrosen/portal/internal/mode/shared"
	"github.com/zjrosen/portal/internal/portal"
	"github.com/zjrosen/portal/internal/pubsub"
	"github.com/zjrosen/portal/internal/session"
	"github.com/zjrosen/portal/internal/testutil"
	"github.com/zjrosen/portal/internal/ui/toaster"
	"github.com/zjrosen/portal/internal/watcher"
)

type fakeBackend struct {
	mu     sync.Mutex
	labels []string
}

func (f *fakeBackend) GetAccountData(_ context.Context, label, _ string, _ int) (portal.AccountData, error) {
	f.mu.Lock()
	f.labels = append(f.labels, label)
	f.mu.Unlock()
	return testutil.QuotesPage(1, 5,
		testutil.Quote("Q1", testutil.QuoteLines(testutil.Line("P1", 2, 9.99))),
	), nil
}

func (f *fakeBackend) DownloadQuotePDF(context.Context, string, io.Writer) (int64, error) {
	return 0, nil
}

type fakeSession struct {
	mu      sync.Mutex
	store   *session.Store
	sites   []portal.Site
	syncErr error
	syncs   int
}

func (s *fakeSession) User() portal.User     { return portal.User{Name: "Ada"} }
func (s *fakeSession) Store() *session.Store { return s.store }
func (s *fakeSession) Sites(context.Context) ([]portal.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sites, nil
}
func (s *fakeSession) ReloadSites(ctx context.Context) ([]portal.Site, error) { return s.Sites(ctx) }
func (s *fakeSession) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs++
	return s.syncErr
}

func createTestModel(t *testing.T) (Model, *fakeSession, *fakeBackend) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Listing.Debounce = 0

	repo := testutil.NewTestDB(t).BasketRepository()
	sess := &fakeSession{
		store: session.NewStore(),
		sites: []portal.Site{testutil.Site(1, "SITE-A", "Alpha", true)},
	}
	backend := &fakeBackend{}
	m := New(Options{
		Services: mode.Services{
			Backend:   backend,
			Cart:      basket.NewService(repo, basket.Cart),
			Quote:     basket.NewService(repo, basket.Quote),
			Config:    &cfg,
			Flags:     flags.New(nil),
			Clipboard: &shared.MemoryClipboard{},
			Clock:     shared.RealClock{},
		},
		Session: sess,
	})
	t.Cleanup(func() { _ = m.Close() })
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), sess, backend
}

// settle runs cmd and the commands it produces, skipping timers.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200)
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		if isTimer(msg) {
			continue
		}
		next, nextCmd := m.Update(msg)
		m = next.(Model)
		queue = append(queue, nextCmd)
	}
	return m
}

func isTimer(msg tea.Msg) bool {
	switch msg.(type) {
	case toaster.DismissMsg, spinner.TickMsg:
		return true
	}
	return false
}

func TestApp_DefaultModeIsHistory(t *testing.T) {
	m, _, _ := createTestModel(t)
	assert.Equal(t, mode.ModeHistory, m.Mode())
}

func TestApp_WindowSizeMsg(t *testing.T) {
	m, _, _ := createTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	m = next.(Model)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 50, m.height)
}

func TestApp_InitLoadsHistory(t *testing.T) {
	m, _, backend := createTestModel(t)
	m = settle(t, m, m.Init())

	require.Equal(t, []string{"Alpha"}, backend.labels)
	require.Contains(t, m.View(), "Q1")
}

func TestApp_SwitchModeRebuildsHistory(t *testing.T) {
	m, sess, backend := createTestModel(t)
	m = settle(t, m, m.Init())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = settle(t, next.(Model), cmd)
	require.Equal(t, mode.ModeCart, m.Mode())
	require.Contains(t, m.View(), "Your cart is empty.")

	sess.store.Set(listing.SelectedAccountKey, "SITE-Z")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = settle(t, next.(Model), cmd)
	require.Equal(t, mode.ModeHistory, m.Mode())
	require.Equal(t, "SITE-Z", m.history.Controller().Selection().Account())
	require.Equal(t, "SITE-Z", backend.labels[len(backend.labels)-1])
}

func TestApp_ToastOverlay(t *testing.T) {
	m, _, _ := createTestModel(t)
	next, cmd := m.Update(mode.ShowToastMsg{Message: "Saved Quote-Q1.pdf", Style: toaster.StyleSuccess})
	m = next.(Model)
	require.NotNil(t, cmd)
	require.Contains(t, m.View(), "Saved Quote-Q1.pdf")
}

func TestApp_SessionChangeReloadsSites(t *testing.T) {
	m, sess, backend := createTestModel(t)
	m = settle(t, m, m.Init())

	renamed := []portal.Site{testutil.Site(1, "SITE-A", "Alpha Labs", true), testutil.Site(2, "SITE-B", "Beta", false)}
	sess.mu.Lock()
	sess.sites = renamed
	sess.mu.Unlock()

	next, cmd := m.Update(pubsub.Event[watcher.Change]{Type: pubsub.UpdatedEvent, Payload: watcher.Change{Path: "session.json"}})
	m = settle(t, next.(Model), cmd)

	require.Equal(t, 1, sess.syncs)
	require.Equal(t, renamed, m.history.Controller().Sites())
	require.Equal(t, "Alpha Labs", backend.labels[len(backend.labels)-1])
}

func TestApp_SignedOutElsewhere(t *testing.T) {
	m, sess, backend := createTestModel(t)
	m = settle(t, m, m.Init())

	sess.syncErr = session.ErrSignedOut
	next, cmd := m.Update(pubsub.Event[watcher.Change]{Type: pubsub.DeletedEvent, Payload: watcher.Change{Removed: true}})
	m = settle(t, next.(Model), cmd)

	require.True(t, m.signedOut)
	view := m.View()
	require.Contains(t, view, "Signed out.")
	require.Contains(t, view, "portal login")

	// Keys are ignored while signed out.
	calls := len(backend.labels)
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = settle(t, next.(Model), cmd)
	require.Len(t, backend.labels, calls)

	// A login elsewhere brings the history back.
	sess.syncErr = nil
	next, cmd = m.Update(pubsub.Event[watcher.Change]{Type: pubsub.UpdatedEvent})
	m = settle(t, next.(Model), cmd)
	require.False(t, m.signedOut)
	require.Contains(t, m.View(), "Q1")
	require.Len(t, backend.labels, calls+1)
}

func TestApp_WatchesSessionFile(t *testing.T) {
	cfg := config.Defaults()
	cfg.Listing.Debounce = 0
	path := filepath.Join(t.TempDir(), "session.json")
	sess := &fakeSession{store: session.NewStore()}

	m := New(Options{
		Services: mode.Services{
			Backend: &fakeBackend{},
			Config:  &cfg,
			Flags:   flags.New(map[string]bool{flags.FlagSessionWatch: true}),
		},
		Session:     sess,
		SessionFile: path,
	})
	defer func() { _ = m.Close() }()
	require.NotNil(t, m.watcherListener)

	listen := m.watcherListener.Listen()
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"x"}`), 0o600))

	done := make(chan tea.Msg, 1)
	go func() { done <- listen() }()
	select {
	case msg := <-done:
		ev, ok := msg.(pubsub.Event[watcher.Change])
		require.True(t, ok)
		require.Equal(t, path, ev.Payload.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event")
	}
}

func TestApp_EndToEnd(t *testing.T) {
	m, _, _ := createTestModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Q1")) && bytes.Contains(out, []byte("$19.98"))
	}, teatest.WithDuration(5*time.Second), teatest.WithCheckInterval(20*time.Millisecond))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlT})
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Your cart is empty."))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))

	final, ok := tm.FinalModel(t).(Model)
	require.True(t, ok)
	require.Equal(t, mode.ModeCart, final.Mode())
}
