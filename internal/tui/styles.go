package tui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title    lipgloss.Style
	Prompt   lipgloss.Style
	Progress lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Done     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0EA5E9")),
		Prompt:   lipgloss.NewStyle().Bold(true),
		Progress: lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		Done:     lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true),
	}
}
