package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/sourcecheck/internal/summary"
	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// Progress shows how many series of a source have been fetched.
type Progress struct {
	bar      progress.Model
	sourceID string
	done     int
	total    int
	width    int
	active   bool
}

// NewProgress creates a new Progress component.
func NewProgress() *Progress {
	bar := progress.New(
		progress.WithSolidFill(string(styles.Success)),
		progress.WithoutPercentage(),
	)
	bar.Width = 30
	return &Progress{bar: bar}
}

// Start resets the bar for a load of total series of sourceID.
func (p *Progress) Start(sourceID string, total int) {
	p.sourceID = sourceID
	p.done = 0
	p.total = total
	p.active = true
}

// SetProgress records done out of total processed series.
func (p *Progress) SetProgress(done, total int) {
	p.total = total
	p.done = min(done, total)
}

// Stop hides the bar.
func (p *Progress) Stop() {
	p.active = false
}

// Active reports whether a load is in progress.
func (p *Progress) Active() bool {
	return p.active
}

// Done returns the processed count.
func (p *Progress) Done() int {
	return p.done
}

// SetWidth sets the width for the progress bar.
func (p *Progress) SetWidth(width int) {
	p.width = width
	switch {
	case width > 100:
		p.bar.Width = 50
	case width > 60:
		p.bar.Width = 30
	default:
		p.bar.Width = 20
	}
}

// Percent returns the completion fraction in [0, 1].
func (p *Progress) Percent() float64 {
	if p.total <= 0 {
		return 0
	}
	return float64(p.done) / float64(p.total)
}

// View renders the progress bar.
func (p *Progress) View() string {
	if !p.active {
		return ""
	}

	countStyle := lipgloss.NewStyle().Foreground(styles.Secondary)
	count := countStyle.Render(fmt.Sprintf("%s/%s series (%d%%)",
		summary.FormatCount(p.done), summary.FormatCount(p.total), int(p.Percent()*100)))

	content := fmt.Sprintf("Loading %s: %s  %s", p.sourceID, p.bar.ViewAs(p.Percent()), count)

	containerStyle := lipgloss.NewStyle().Padding(0, 1)
	if p.width > 0 {
		containerStyle = containerStyle.Width(p.width)
	}
	return containerStyle.Render(content)
}
