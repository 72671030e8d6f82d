package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const (
	boxChecked   = "☑"
	boxUnchecked = "☐"
)
