// Package console renders the run banners printed around a plumbing pass.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const width = 80

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("6")).
			Width(width - 2).
			Align(lipgloss.Center)

	successStyle = headerStyle.
			Foreground(lipgloss.Color("2")).
			BorderForeground(lipgloss.Color("2"))

	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))

	// Check marks used by `config check`.
	OK   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("✓")
	Warn = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render("⚠")
	Fail = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("✗")
)

// Header prints a boxed, centered title.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w, headerStyle.Render(title))
}

// Separator prints a full-width rule between PRs.
func Separator(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, separatorStyle.Render(strings.Repeat("=", width)))
}

// SuccessBox prints a boxed, centered completion message.
func SuccessBox(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, successStyle.Render(title))
}

// Check prints one line of a self-check report.
func Check(w io.Writer, mark, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}
