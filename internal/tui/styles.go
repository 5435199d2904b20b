package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	title       lipgloss.Style
	statusOK    lipgloss.Style
	statusBad   lipgloss.Style
	userLabel   lipgloss.Style
	agentLabel  lipgloss.Style
	systemLabel lipgloss.Style
	content     lipgloss.Style
	errorBanner lipgloss.Style
	activity    lipgloss.Style
	inputPanel  lipgloss.Style
	helpText    lipgloss.Style
	spinner     lipgloss.Style
}

func newTheme() theme {
	green := lipgloss.Color("#05ffa1")
	blue := lipgloss.Color("#01cdfe")
	pink := lipgloss.Color("#ff71ce")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return theme{
		title:       lipgloss.NewStyle().Foreground(blue).Bold(true),
		statusOK:    lipgloss.NewStyle().Foreground(green).Bold(true),
		statusBad:   lipgloss.NewStyle().Foreground(pink).Bold(true),
		userLabel:   lipgloss.NewStyle().Foreground(green).Bold(true),
		agentLabel:  lipgloss.NewStyle().Foreground(blue).Bold(true),
		systemLabel: lipgloss.NewStyle().Foreground(muted).Bold(true),
		content:     lipgloss.NewStyle().Foreground(text),
		errorBanner: lipgloss.NewStyle().Foreground(pink).Bold(true),
		activity:    lipgloss.NewStyle().Foreground(muted).Italic(true),
		inputPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(green).
			Padding(0, 1),
		helpText: lipgloss.NewStyle().Foreground(muted),
		spinner:  lipgloss.NewStyle().Foreground(green),
	}
}
