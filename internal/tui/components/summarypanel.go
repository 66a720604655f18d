package components

import (
	"strings"

	"github.com/wexinc/sourcecheck/internal/store"
	"github.com/wexinc/sourcecheck/internal/summary"
	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// SummaryPanel shows the overview of the searched source.
type SummaryPanel struct {
	rows   []summary.Summary
	report *store.ChangeReport
	width  int
}

// NewSummaryPanel creates an empty SummaryPanel.
func NewSummaryPanel() *SummaryPanel {
	return &SummaryPanel{}
}

// SetSummary replaces the summary rows.
func (p *SummaryPanel) SetSummary(rows []summary.Summary) {
	p.rows = rows
}

// SetReport sets the change report of the latest snapshot, or nil.
func (p *SummaryPanel) SetReport(r *store.ChangeReport) {
	p.report = r
}

// Report returns the change report shown, if any.
func (p *SummaryPanel) Report() *store.ChangeReport {
	return p.report
}

// SetWidth sets the panel width.
func (p *SummaryPanel) SetWidth(width int) {
	p.width = width
}

// View renders the panel.
func (p *SummaryPanel) View() string {
	var b strings.Builder
	b.WriteString(styles.SectionTitleStyle.Render("Source Summary"))
	b.WriteString("\n")

	if len(p.rows) == 0 {
		b.WriteString(styles.MutedTextStyle.Render("Select a source and press Enter to search."))
		return p.box(b.String())
	}

	kv := func(label, value string) {
		b.WriteString(styles.LabelStyle.Render(label))
		b.WriteString(styles.ValueStyle.Render(value))
		b.WriteString("\n")
	}

	for _, row := range p.rows {
		kv("Source ID", row.SourceID)
		if row.SourceName != "" {
			kv("Source Name", row.SourceName)
		}
		kv("Total Series Found", summary.FormatCount(row.NumSeries))
		if row.Info != "" {
			b.WriteString(styles.WarningTextStyle.Render(row.Info))
			b.WriteString("\n")
		}
		if row.Stats != nil {
			kv("Oldest Update", row.Stats.MinDate)
			kv("Newest Update", row.Stats.MaxDate)
			kv("Active Series", summary.FormatCount(row.Stats.ActiveSeries))
		}
	}

	if p.report != nil {
		b.WriteString("\n")
		b.WriteString(styles.SectionTitleStyle.Render("Since Last Snapshot"))
		b.WriteString("\n")
		b.WriteString(styles.ValueStyle.Render(p.report.String()))
	}

	return p.box(strings.TrimRight(b.String(), "\n"))
}

func (p *SummaryPanel) box(content string) string {
	style := styles.BoxStyle
	if p.width > 0 {
		style = style.Width(max(p.width-2, 10))
	}
	return style.Render(content)
}
