package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha subset, true-color hex values.
const (
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext  lipgloss.Color = "#a6adc8"
	colorOverlay  lipgloss.Color = "#7f849c"
	colorSurface  lipgloss.Color = "#313244"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorRed      lipgloss.Color = "#f38ba8"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
	labelStyle   = lipgloss.NewStyle().Foreground(colorOverlay)
	valueStyle   = lipgloss.NewStyle().Foreground(colorText)
	okStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	errStyle     = lipgloss.NewStyle().Foreground(colorRed)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	accentStyle  = lipgloss.NewStyle().Foreground(colorBlue)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorSubtext)
	sentStyle    = lipgloss.NewStyle().Foreground(colorRed)
	recvStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	cursorStyle  = lipgloss.NewStyle().Foreground(colorTeal).Bold(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface).Padding(0, 1)
	focusedPanel = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorLavender).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(colorOverlay)
)
