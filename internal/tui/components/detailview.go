package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wexinc/sourcecheck/internal/summary"
	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// DetailView is a scrollable view of one series.
type DetailView struct {
	viewport viewport.Model
	detail   summary.Detail
	width    int
}

// NewDetailView creates an empty DetailView.
func NewDetailView() *DetailView {
	return &DetailView{viewport: viewport.New(80, 20)}
}

// SetDetail shows d and scrolls back to the top.
func (d *DetailView) SetDetail(detail summary.Detail) {
	d.detail = detail
	d.viewport.SetContent(d.render())
	d.viewport.GotoTop()
}

// Detail returns the series being shown.
func (d *DetailView) Detail() summary.Detail {
	return d.detail
}

// SetSize sets the viewport dimensions.
func (d *DetailView) SetSize(width, height int) {
	d.width = width
	d.viewport.Width = width
	d.viewport.Height = max(height, 3)
	d.viewport.SetContent(d.render())
}

// Update handles scrolling keys.
func (d *DetailView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return cmd
}

// View renders the viewport.
func (d *DetailView) View() string {
	return d.viewport.View()
}

func (d *DetailView) render() string {
	det := d.detail
	var b strings.Builder

	kv := func(label, value string) {
		b.WriteString("  ")
		b.WriteString(styles.LabelStyle.Render(label))
		b.WriteString(styles.ValueStyle.Render(value))
		b.WriteString("\n")
	}
	section := func(title string) {
		b.WriteString("\n")
		b.WriteString(styles.SectionTitleStyle.Render(title))
		b.WriteString("\n")
	}

	b.WriteString(styles.FormTitleStyle.Render("Details for: " + det.Name))
	b.WriteString("\n")

	section("Key Metrics")
	kv("Last Value", det.LastValue)
	kv("Last Update", det.LastUpdate)
	kv("Status", det.Status)

	section("Core Attributes")
	kv("Series ID", det.SeriesID)
	kv("Unit", det.Unit)
	kv("Frequency", det.Frequency)
	kv("Source", det.Source)
	kv("Date Range", det.StartDate+" to "+det.EndDate)
	kv("Observations", det.Observations)

	section("Indicator Path")
	if len(det.IndicatorPaths) == 0 {
		b.WriteString(styles.MutedTextStyle.Render("  No indicator path information available."))
		b.WriteString("\n")
	}
	for _, p := range det.IndicatorPaths {
		b.WriteString("  - " + p + "\n")
	}

	section("Geographical Information")
	if !det.HasGeo {
		b.WriteString(styles.MutedTextStyle.Render("  No geographical information available."))
		b.WriteString("\n")
	} else {
		kv("Country", det.Country)
		if len(det.Regions) > 0 {
			kv("Regions", strings.Join(det.Regions, ", "))
		}
	}

	section("Technical Flags")
	for _, f := range det.Flags {
		mark := styles.MutedTextStyle.Render("✗")
		if f.Value {
			mark = styles.SuccessTextStyle.Render("✓")
		}
		b.WriteString("  " + mark + " " + f.Name + "\n")
	}

	return b.String()
}
