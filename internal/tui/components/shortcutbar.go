package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// ShortcutDef defines a single keyboard shortcut.
type ShortcutDef struct {
	Key  string
	Desc string
}

// ShortcutBar displays contextual keyboard shortcuts.
type ShortcutBar struct {
	shortcuts []ShortcutDef
	width     int
	centered  bool
}

// NewShortcutBar creates a new ShortcutBar with the given shortcuts.
func NewShortcutBar(shortcuts ...ShortcutDef) *ShortcutBar {
	return &ShortcutBar{shortcuts: shortcuts}
}

// SetShortcuts replaces all shortcuts.
func (s *ShortcutBar) SetShortcuts(shortcuts ...ShortcutDef) {
	s.shortcuts = shortcuts
}

// SetWidth sets the bar width for alignment.
func (s *ShortcutBar) SetWidth(width int) {
	s.width = width
}

// SetCentered controls whether the bar content is centered.
func (s *ShortcutBar) SetCentered(centered bool) {
	s.centered = centered
}

// View renders the shortcut bar.
func (s *ShortcutBar) View() string {
	if len(s.shortcuts) == 0 {
		return ""
	}

	parts := make([]string, 0, len(s.shortcuts))
	for _, sc := range s.shortcuts {
		parts = append(parts, styles.KeyStyle.Render(sc.Key)+styles.HelpStyle.Render(":"+sc.Desc))
	}
	sep := lipgloss.NewStyle().Foreground(styles.Muted).Render(" │ ")
	content := strings.Join(parts, sep)

	if s.centered && s.width > 0 {
		return lipgloss.NewStyle().
			Width(s.width).
			Align(lipgloss.Center).
			Render(content)
	}
	return content
}

// Shortcut sets for each TUI phase.
var (
	// LoginShortcuts are shown on the login form.
	LoginShortcuts = []ShortcutDef{
		{"Tab", "next field"},
		{"Enter", "log in"},
		{"Ctrl+C", "quit"},
	}

	// SourcesShortcuts are shown while the source list has focus.
	SourcesShortcuts = []ShortcutDef{
		{"↑↓", "select"},
		{"Enter", "search"},
		{"l", "load all"},
		{"Tab", "series"},
		{"L", "logout"},
		{"?", "help"},
		{"q", "quit"},
	}

	// SeriesShortcuts are shown while the series table has focus.
	SeriesShortcuts = []ShortcutDef{
		{"↑↓", "select"},
		{"←→", "page"},
		{"/", "filter"},
		{"Enter", "details"},
		{"Tab", "sources"},
		{"?", "help"},
	}

	// FilterShortcuts are shown while the filter input is active.
	FilterShortcuts = []ShortcutDef{
		{"Enter", "apply"},
		{"Esc", "clear"},
	}

	// DetailShortcuts are shown in the series detail view.
	DetailShortcuts = []ShortcutDef{
		{"↑↓", "scroll"},
		{"Esc", "back"},
		{"q", "quit"},
	}

	// LoadingShortcuts are shown while a load is running.
	LoadingShortcuts = []ShortcutDef{
		{"Esc", "cancel"},
		{"Ctrl+C", "quit"},
	}
)
