// Package ui styles contains shared styling definitions.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Violet
	ColorSuccess = lipgloss.Color("#10B981") // Emerald
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#626262") // Gray
	ColorText    = lipgloss.Color("#FAFAFA") // White
	ColorSubtle  = lipgloss.Color("#A1A1AA") // Zinc
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)
)

// Step row styles, keyed by step status
var stepStyles = map[stepStatus]lipgloss.Style{
	stepPending: lipgloss.NewStyle().Foreground(ColorMuted),
	stepRunning: lipgloss.NewStyle().Foreground(ColorWarning),
	stepDone:    lipgloss.NewStyle().Foreground(ColorSuccess),
	stepFailed:  lipgloss.NewStyle().Foreground(ColorError),
}
