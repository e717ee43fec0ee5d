// Package ui holds terminal styles shared by the CLI help and chat output.
package ui

import "github.com/charmbracelet/lipgloss"

// Basic ANSI colors only, so the output follows the terminal theme.
var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	AnswerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	SourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	RefusalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)
