// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"}

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#54A0FF"}

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#C99A00", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#FF8787"}
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}

	ToastBorderSuccessColor = StatusSuccessColor
	ToastBorderErrorColor   = StatusErrorColor
	ToastBorderInfoColor    = StatusInfoColor
	ToastBorderWarnColor    = StatusWarningColor

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	SecondaryStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)

	// SelectionIndicatorStyle renders the ">" in front of the cursor row.
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	TabStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(TextMutedColor)

	ActiveTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).
			Foreground(TextPrimaryColor).
			Underline(true)

	// CurrentPageStyle marks the current page in the pagination window.
	CurrentPageStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(TextSecondaryColor)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderDefaultColor).
			Padding(0, 1)

	ConfirmStyle = lipgloss.NewStyle().Bold(true).Foreground(StatusWarningColor)
)

// StatusColor maps an order or quote status to a color.
func StatusColor(status string) lipgloss.AdaptiveColor {
	switch status {
	case "Shipped", "Delivered", "Completed", "Approved", "Accepted":
		return StatusSuccessColor
	case "Cancelled", "Canceled", "Rejected", "Expired":
		return StatusErrorColor
	case "Pending", "Processing", "In Review":
		return StatusWarningColor
	default:
		return TextSecondaryColor
	}
}

// Status renders status in its color.
func Status(status string) string {
	return lipgloss.NewStyle().Foreground(StatusColor(status)).Render(status)
}
