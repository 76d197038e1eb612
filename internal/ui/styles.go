package ui

import "github.com/charmbracelet/lipgloss"

// Palette.
const (
	colorAccent = lipgloss.Color("#2E9E5B")
	colorLight  = lipgloss.Color("#7BD88F")
	colorMuted  = lipgloss.Color("#6B7280")
	colorText   = lipgloss.Color("#FFFFFF")
	colorError  = lipgloss.Color("#FF4757")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(colorText)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorLight).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)
)
