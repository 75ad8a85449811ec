package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/canonsim/internal/ui"
)

var (
	panelStyle      lipgloss.Style
	titleStyle      lipgloss.Style
	labelStyle      lipgloss.Style
	focusedStyle    lipgloss.Style
	errorStyle      lipgloss.Style
	successStyle    lipgloss.Style
	dimStyle        lipgloss.Style
	barStyle        lipgloss.Style
	footerKeyStyle  lipgloss.Style
	footerDescStyle lipgloss.Style
)

func init() {
	initStyles()
}

// initStyles rebuilds the styles from the active ui theme. Entry points call
// it again once the theme has been chosen from flags.
func initStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Foreground(t.Text).
		Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	labelStyle = lipgloss.NewStyle().Foreground(t.Text)
	focusedStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	errorStyle = lipgloss.NewStyle().Foreground(t.Error)
	successStyle = lipgloss.NewStyle().Foreground(t.Success)
	dimStyle = lipgloss.NewStyle().Foreground(t.Dim)
	barStyle = lipgloss.NewStyle().Foreground(t.Warning)
	footerKeyStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	footerDescStyle = lipgloss.NewStyle().Foreground(t.Dim)
}
