package ui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("63"))

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	ErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)
