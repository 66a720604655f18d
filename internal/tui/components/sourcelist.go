package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/sourcecheck/internal/source"
	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// SourceState marks how far a source has been explored.
type SourceState int

const (
	SourceStateIdle SourceState = iota
	SourceStateSearched
	SourceStateLoaded
)

// SourceListItem is one row of the source list.
type SourceListItem struct {
	Source source.Source
	State  SourceState
}

// SourceList is a scrollable list of catalog sources.
type SourceList struct {
	items       []SourceListItem
	selected    int
	height      int
	width       int
	scrollStart int
	focused     bool
}

// NewSourceList creates a new SourceList component.
func NewSourceList() *SourceList {
	return &SourceList{
		height:  10,
		focused: true,
	}
}

// SetSources replaces the list contents, keeping the selection on the
// same source ID when it is still present.
func (l *SourceList) SetSources(sources []source.Source) {
	prev := ""
	if item := l.SelectedItem(); item != nil {
		prev = item.Source.ID
	}

	l.items = make([]SourceListItem, len(sources))
	for i, s := range sources {
		l.items[i] = SourceListItem{Source: s}
	}

	l.selected = 0
	for i, item := range l.items {
		if item.Source.ID == prev {
			l.selected = i
			break
		}
	}
	l.updateScroll()
}

// Len returns the number of sources.
func (l *SourceList) Len() int {
	return len(l.items)
}

// MarkStates updates the markers: searchedID gets the searched marker and
// loadedID the loaded marker. Empty IDs match nothing.
func (l *SourceList) MarkStates(searchedID, loadedID string) {
	for i := range l.items {
		id := l.items[i].Source.ID
		switch {
		case loadedID != "" && id == loadedID:
			l.items[i].State = SourceStateLoaded
		case searchedID != "" && id == searchedID:
			l.items[i].State = SourceStateSearched
		default:
			l.items[i].State = SourceStateIdle
		}
	}
}

// SetSize sets both width and height.
func (l *SourceList) SetSize(width, height int) {
	l.width = width
	l.height = max(height, 1)
	l.updateScroll()
}

// SetFocused sets whether the list is focused.
func (l *SourceList) SetFocused(focused bool) {
	l.focused = focused
}

// Focused reports whether the list has focus.
func (l *SourceList) Focused() bool {
	return l.focused
}

// Selected returns the selected index.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedItem returns the selected item, or nil if the list is empty.
func (l *SourceList) SelectedItem() *SourceListItem {
	if len(l.items) == 0 || l.selected < 0 || l.selected >= len(l.items) {
		return nil
	}
	return &l.items[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
		l.updateScroll()
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
		l.updateScroll()
	}
}

// GoToTop moves selection to the first item.
func (l *SourceList) GoToTop() {
	l.selected = 0
	l.updateScroll()
}

// GoToBottom moves selection to the last item.
func (l *SourceList) GoToBottom() {
	if len(l.items) > 0 {
		l.selected = len(l.items) - 1
		l.updateScroll()
	}
}

func (l *SourceList) updateScroll() {
	if l.selected < l.scrollStart {
		l.scrollStart = l.selected
	}
	if l.selected >= l.scrollStart+l.height {
		l.scrollStart = l.selected - l.height + 1
	}
	if l.scrollStart < 0 {
		l.scrollStart = 0
	}
}

// Update handles keyboard navigation.
func (l *SourceList) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.GoToTop()
		case "end", "G":
			l.GoToBottom()
		}
	}
	return nil
}

// View renders the list.
func (l *SourceList) View() string {
	if len(l.items) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.Muted).
			Italic(true).
			Padding(1, 2).
			Render("No sources available")
	}

	end := min(l.scrollStart+l.height, len(l.items))
	lines := make([]string, 0, end-l.scrollStart+2)
	if l.scrollStart > 0 {
		lines = append(lines, "  ↑ more above")
	}
	for i := l.scrollStart; i < end; i++ {
		lines = append(lines, l.renderItem(l.items[i], i == l.selected))
	}
	if end < len(l.items) {
		lines = append(lines, fmt.Sprintf("  ↓ %d more", len(l.items)-end))
	}
	return strings.Join(lines, "\n")
}

func (l *SourceList) renderItem(item SourceListItem, selected bool) string {
	cursor := " "
	lineStyle := lipgloss.NewStyle()
	if selected {
		cursor = lipgloss.NewStyle().
			Foreground(styles.Secondary).
			Bold(true).
			Render("▶")
		if l.focused {
			lineStyle = lineStyle.Background(styles.Background).Bold(true)
		}
	}

	idStyle := lipgloss.NewStyle().
		Foreground(styles.MutedLight).
		Width(10)
	nameStyle := lipgloss.NewStyle().
		Foreground(styles.Foreground)

	nameWidth := 0
	if l.width > 0 {
		nameWidth = l.width - 16
	}
	line := fmt.Sprintf("%s %s %s %s", cursor, stateIcon(item.State),
		idStyle.Render(truncate(item.Source.ID, 9)),
		nameStyle.Render(truncate(item.Source.Name, nameWidth)))

	if l.width > 0 {
		lineStyle = lineStyle.Width(l.width)
	}
	return lineStyle.Render(line)
}

func stateIcon(s SourceState) string {
	switch s {
	case SourceStateLoaded:
		return styles.SourceLoaded
	case SourceStateSearched:
		return styles.SourceSearched
	default:
		return styles.SourceIdle
	}
}

// truncate shortens s to maxLen runes. A non-positive maxLen leaves s as is.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
