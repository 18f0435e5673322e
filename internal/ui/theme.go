package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used for each message level.
type Theme struct {
	Info  lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
	Help  lipgloss.Style
	Input lipgloss.Style
}

// DefaultTheme mirrors the classic terminal palette: green info, yellow
// warnings, red errors, cyan help and grey prompts.
func DefaultTheme() Theme {
	return Theme{
		Info:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Help:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Input: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// PlainTheme renders every level without styling.
func PlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{Info: plain, Warn: plain, Error: plain, Help: plain, Input: plain}
}
