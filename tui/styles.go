package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles the model renders with.
type Theme struct {
	Title  lipgloss.Style
	Status lipgloss.Style
	Dim    lipgloss.Style
	Prompt lipgloss.Style
	Cancel lipgloss.Style
	Done   lipgloss.Style
	Box    lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Title:  lipgloss.NewStyle().Bold(true),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Dim:    lipgloss.NewStyle().Faint(true),
		Prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		Cancel: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Done:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
	}
}
