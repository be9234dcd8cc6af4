package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette
// - Default (white/black): Primary text
// - Accent (soft purple #A78BFA): Highlights, identifiers
// - Muted (gray): Secondary info, locators
// - No colored success/error/warning - use unicode symbols only

var (
	// Accent style for field names and identifiers
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted style for secondary info and hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)
)

// styled reports whether stdout is a terminal; plain output otherwise.
var styled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func render(style lipgloss.Style, s string) string {
	if !styled {
		return s
	}
	return style.Render(s)
}

// Header returns a styled section header.
func Header(msg string) string {
	return render(Bold, msg)
}

// Identifier returns an accent-styled identifier (field name, slug, path).
func Identifier(s string) string {
	return render(Accent, s)
}

// Hint returns muted hint text.
func Hint(msg string) string {
	return render(Muted, msg)
}
