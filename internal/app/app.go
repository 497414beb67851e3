// Package app contains the root application model.
package app

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/portal/internal/flags"
	"github.com/zjrosen/portal/internal/keys"
	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/mode"
	"github.com/zjrosen/portal/internal/mode/cart"
	"github.com/zjrosen/portal/internal/mode/history"
	"github.com/zjrosen/portal/internal/portal"
	"github.com/zjrosen/portal/internal/pubsub"
	"github.com/zjrosen/portal/internal/session"
	"github.com/zjrosen/portal/internal/ui/styles"
	"github.com/zjrosen/portal/internal/ui/toaster"
	"github.com/zjrosen/portal/internal/watcher"
)

// maxLogLines bounds the debug panel backlog.
const maxLogLines = 200

// Session is the signed-in context plus re-reading it from disk.
type Session interface {
	mode.Session
	Sync() error
}

// Options configures the root model.
type Options struct {
	Services mode.Services
	Session  Session

	// SessionFile is watched for logins and logouts from other terminals
	// when the session-watch flag is on.
	SessionFile string

	Debug bool
}

// Model is the root application state.
type Model struct {
	currentMode mode.AppMode
	history     history.Model
	cart        cart.Model

	services mode.Services
	session  Session

	width  int
	height int

	toaster toaster.Model

	debug     bool
	showLog   bool
	logLines  []string
	logCancel context.CancelFunc
	logListen *log.LogListener
	signedOut bool

	watcherHandle   *watcher.Watcher
	watcherCancel   context.CancelFunc
	watcherListener *pubsub.ContinuousListener[watcher.Change]
}

// sitesReloadedMsg follows a session sync.
type sitesReloadedMsg struct {
	sites []portal.Site
	err   error
}

type sessionSyncedMsg struct {
	err error
}

// New builds the root model. The session watcher is started here and
// stopped by Close.
func New(opts Options) Model {
	services := opts.Services
	if services.Session == nil {
		services.Session = opts.Session
	}

	m := Model{
		currentMode: mode.ModeHistory,
		history:     history.New(services),
		cart:        cart.New(services),
		services:    services,
		session:     opts.Session,
		toaster:     toaster.New(),
		debug:       opts.Debug,
	}

	if opts.Debug {
		ctx, cancel := context.WithCancel(context.Background())
		if l := log.NewListener(ctx); l != nil {
			m.logListen = l
			m.logCancel = cancel
		} else {
			cancel()
		}
	}

	if opts.SessionFile != "" && services.Flags.Enabled(flags.FlagSessionWatch) {
		w, err := watcher.New(watcher.DefaultConfig(opts.SessionFile))
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			log.Warn(log.CatWatcher, "Session watcher disabled", "error", err.Error())
			if w != nil {
				_ = w.Stop()
			}
		} else {
			ctx, cancel := context.WithCancel(context.Background())
			m.watcherHandle = w
			m.watcherCancel = cancel
			m.watcherListener = pubsub.NewContinuousListener(ctx, w.Broker())
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.history.Init()}
	if m.watcherListener != nil {
		cmds = append(cmds, m.watcherListener.Listen())
	}
	if m.logListen != nil {
		cmds = append(cmds, m.logListen.Listen())
	}
	return tea.Batch(cmds...)
}

// Mode reports the active mode.
func (m Model) Mode() mode.AppMode {
	return m.currentMode
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.history = m.history.SetSize(msg.Width, msg.Height)
		m.cart = m.cart.SetSize(msg.Width, msg.Height)
		m.toaster = m.toaster.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Global.Quit):
			m.history.Stop()
			return m, tea.Quit
		case key.Matches(msg, keys.Global.SwitchMode):
			return m.switchMode()
		case m.debug && key.Matches(msg, keys.Global.ToggleLog):
			m.showLog = !m.showLog
			return m, nil
		case m.signedOut:
			return m, nil
		}

	case log.LogEvent:
		m.logLines = append(m.logLines, msg.Payload)
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
		if m.logListen == nil {
			return m, nil
		}
		return m, m.logListen.Listen()

	case pubsub.Event[watcher.Change]:
		log.Debug(log.CatWatcher, "Session file changed", "removed", msg.Payload.Removed)
		cmds := []tea.Cmd{m.syncSession()}
		if m.watcherListener != nil {
			cmds = append(cmds, m.watcherListener.Listen())
		}
		return m, tea.Batch(cmds...)

	case sessionSyncedMsg:
		if errors.Is(msg.err, session.ErrSignedOut) {
			m.signedOut = true
			m.history.Stop()
			var cmd tea.Cmd
			m.toaster, cmd = m.toaster.Show("Signed out in another terminal", toaster.StyleWarn)
			return m, cmd
		}
		if msg.err != nil {
			log.ErrorErr(log.CatSession, "Session sync failed", msg.err)
			return m, nil
		}
		if m.signedOut {
			m.signedOut = false
			m.currentMode = mode.ModeHistory
			m.history = history.New(m.services).SetSize(m.width, m.height)
			return m, m.history.Init()
		}
		return m, m.reloadSites()

	case sitesReloadedMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			m.toaster, cmd = m.toaster.Show("Reloading accounts failed: "+msg.err.Error(), toaster.StyleError)
			return m, cmd
		}
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(history.SitesChangedMsg{Sites: msg.sites})
		return m, cmd

	case mode.ShowToastMsg:
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Show(msg.Message, msg.Style)
		return m, cmd

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentMode {
	case mode.ModeCart:
		m.cart, cmd = m.cart.Update(msg)
	default:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

func (m Model) syncSession() tea.Cmd {
	sess := m.session
	if sess == nil {
		return nil
	}
	return func() tea.Msg {
		return sessionSyncedMsg{err: sess.Sync()}
	}
}

func (m Model) reloadSites() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		sites, err := sess.ReloadSites(context.Background())
		return sitesReloadedMsg{sites: sites, err: err}
	}
}

// switchMode toggles between history and cart. History is rebuilt on
// return so the account is restored from the session store.
func (m Model) switchMode() (tea.Model, tea.Cmd) {
	switch m.currentMode {
	case mode.ModeHistory:
		log.Info(log.CatUI, "Switching mode", "from", "history", "to", "cart")
		m.history.Stop()
		m.currentMode = mode.ModeCart
		return m, func() tea.Msg { return cart.ReloadMsg{} }
	default:
		log.Info(log.CatUI, "Switching mode", "from", "cart", "to", "history")
		m.currentMode = mode.ModeHistory
		m.history = history.New(m.services).SetSize(m.width, m.height)
		return m, m.history.Init()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var view string
	switch m.currentMode {
	case mode.ModeCart:
		view = m.cart.View()
	default:
		view = m.history.View()
	}

	if m.signedOut {
		view = styles.TitleStyle.Render("Portal") + "\n\n" +
			styles.ErrorStyle.Render("Signed out.") + "\n" +
			styles.MutedStyle.Render("Run `portal login` in a terminal; this view reloads when the session returns.")
	}
	if m.debug && m.showLog {
		view = m.renderLog()
	}
	if m.toaster.Visible() {
		view = m.toaster.Overlay(view)
	}
	return view
}

func (m Model) renderLog() string {
	lines := m.logLines
	if limit := m.height - 4; limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	body := strings.Join(lines, "\n")
	if body == "" {
		body = styles.MutedStyle.Render("No log entries yet.")
	}
	return styles.TitleStyle.Render("Debug log") + "\n" + styles.PanelStyle.Render(body)
}

// Close releases the watcher and log subscriptions.
func (m *Model) Close() error {
	m.history.Stop()
	if m.logCancel != nil {
		m.logCancel()
	}
	if m.watcherCancel != nil {
		m.watcherCancel()
	}
	if m.watcherHandle != nil {
		return m.watcherHandle.Stop()
	}
	return nil
}
