package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
)

const (
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorRed      lipgloss.Color = "#f38ba8"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext  lipgloss.Color = "#a6adc8"
	colorOverlay  lipgloss.Color = "#6c7086"
	colorSurface  lipgloss.Color = "#313244"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText).MarginBottom(1)
	cursorStyle   = lipgloss.NewStyle().Background(colorSurface).Foreground(colorText)
	rowStyle      = lipgloss.NewStyle().Foreground(colorSubtext)
	priceStyle    = lipgloss.NewStyle().Foreground(colorBlue)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorOverlay)
	errorStyle    = lipgloss.NewStyle().Foreground(colorRed)
	statusBar     = lipgloss.NewStyle().Foreground(colorSubtext).MarginTop(1)
	detailBox     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorLavender).Padding(0, 1)
	sectionHeader = lipgloss.NewStyle().Bold(true).Foreground(colorLavender).MarginTop(1)
)

var badgeBase = lipgloss.NewStyle().Padding(0, 1).Bold(true)

// statusBadge renders a listing status with the color of its style.
func statusBadge(s listing.Status) string {
	var st lipgloss.Style
	switch s.Style() {
	case listing.StyleOK:
		st = badgeBase.Foreground(colorGreen)
	case listing.StyleWarning:
		st = badgeBase.Foreground(colorYellow)
	default:
		st = badgeBase.Foreground(colorOverlay)
	}
	return st.Render(s.Label())
}
