package rag2f

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"
	"github.com/rag2f/rag2f/pkg/logging"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle      = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	// ErrorStyle renders fatal errors on stderr.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func heading(s string) string {
	return headingStyle.Render(s)
}

// disableColor turns off every styled writer: lipgloss, pterm and the
// console log.
func disableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
	pterm.DisableStyling()
	logging.NoColor = true
}

// renderTable draws rows with a header line.
func renderTable(header []string, rows [][]string) (string, error) {
	data := append(pterm.TableData{header}, rows...)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}
