// Package toaster provides a notification toast shown above the footer.
package toaster

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/portal/internal/ui/styles"
)

// Style determines the border color and icon of the toast.
type Style int

const (
	StyleSuccess Style = iota
	StyleError
	StyleInfo
	StyleWarn
)

// DefaultDuration is how long a toast stays up.
const DefaultDuration = 3 * time.Second

// Model holds the toaster state.
type Model struct {
	message string
	style   Style
	visible bool
	seq     int
	width   int
	height  int
}

func New() Model {
	return Model{}
}

// Show displays message and returns the command that hides it again.
// A newer toast keeps the older one's dismissal from hiding it.
func (m Model) Show(message string, style Style) (Model, tea.Cmd) {
	m.message = message
	m.style = style
	m.visible = true
	m.seq++
	return m, ScheduleDismiss(m.seq, DefaultDuration)
}

func (m Model) Hide() Model {
	m.visible = false
	m.message = ""
	return m
}

func (m Model) Visible() bool {
	return m.visible
}

func (m Model) Message() string {
	return m.message
}

func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Update handles DismissMsg for the current toast only.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.seq == m.seq {
		return m.Hide()
	}
	return m
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}

	style := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())

	var icon string
	switch m.style {
	case StyleError:
		style = style.BorderForeground(styles.ToastBorderErrorColor)
		icon = "✗ "
	case StyleInfo:
		style = style.BorderForeground(styles.ToastBorderInfoColor)
		icon = "i "
	case StyleWarn:
		style = style.BorderForeground(styles.ToastBorderWarnColor)
		icon = "! "
	default:
		style = style.BorderForeground(styles.ToastBorderSuccessColor)
		icon = "✓ "
	}
	return style.Render(icon + m.message)
}

// Overlay draws the toast centered over the bottom rows of bg.
func (m Model) Overlay(bg string) string {
	fg := m.View()
	if fg == "" {
		return bg
	}

	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")
	width := m.width
	if width <= 0 {
		width = lipgloss.Width(bg)
	}

	// One blank row between the toast and the bottom edge when there is room.
	start := len(bgLines) - len(fgLines) - 1
	if start < 0 {
		start = 0
	}
	for i, line := range fgLines {
		row := start + i
		placed := lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
		if row < len(bgLines) {
			bgLines[row] = placed
		} else {
			bgLines = append(bgLines, placed)
		}
	}
	return strings.Join(bgLines, "\n")
}

// DismissMsg hides the toast shown with the same sequence number.
type DismissMsg struct {
	seq int
}

// ScheduleDismiss returns a command that dismisses toast seq after d.
func ScheduleDismiss(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissMsg{seq: seq}
	})
}
