// Package mode defines what the root model shares with its modes.
package mode

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/portal/internal/basket"
	"github.com/zjrosen/portal/internal/config"
	"github.com/zjrosen/portal/internal/flags"
	"github.com/zjrosen/portal/internal/listing"
	"github.com/zjrosen/portal/internal/mode/shared"
	"github.com/zjrosen/portal/internal/portal"
	"github.com/zjrosen/portal/internal/session"
	"github.com/zjrosen/portal/internal/ui/toaster"
)

// AppMode identifies the active mode.
type AppMode int

const (
	ModeHistory AppMode = iota
	ModeCart
)

func (m AppMode) String() string {
	if m == ModeCart {
		return "cart"
	}
	return "history"
}

// Backend is the part of the portal client the modes call.
type Backend interface {
	listing.Fetcher
	DownloadQuotePDF(ctx context.Context, quoteName string, w io.Writer) (int64, error)
}

// Session is the signed-in context as the modes see it.
type Session interface {
	User() portal.User
	Store() *session.Store
	Sites(ctx context.Context) ([]portal.Site, error)
	ReloadSites(ctx context.Context) ([]portal.Site, error)
}

// Services contains shared dependencies injected into modes.
type Services struct {
	Backend    Backend
	Session    Session
	Cart       *basket.Service
	Quote      *basket.Service
	Config     *config.Config
	ConfigPath string
	Flags      *flags.Registry
	Clipboard  shared.Clipboard
	Clock      shared.Clock

	// DownloadDir receives quote PDFs. Empty means the working directory.
	DownloadDir string
}

// ShowToastMsg asks the root model to show a toast.
type ShowToastMsg struct {
	Message string
	Style   toaster.Style
}

// Toast returns a command emitting ShowToastMsg.
func Toast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg { return ShowToastMsg{Message: message, Style: style} }
}
