package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/sourcecheck/internal/summary"
	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// DefaultGridPageSize is the number of rows per table page.
const DefaultGridPageSize = 50

// SeriesTable is a paginated grid of series rows.
type SeriesTable struct {
	table    table.Model
	rows     []summary.Row
	page     summary.Page
	pageSize int
	pageIdx  int
	width    int
	focused  bool
}

// NewSeriesTable creates a table showing pageSize rows per page.
func NewSeriesTable(pageSize int) *SeriesTable {
	if pageSize <= 0 {
		pageSize = DefaultGridPageSize
	}

	t := table.New(
		table.WithColumns(seriesColumns(100)),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.BorderColor).
		BorderBottom(true).
		Foreground(styles.Secondary).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.Foreground).
		Background(styles.Primary).
		Bold(false)
	t.SetStyles(s)

	st := &SeriesTable{table: t, pageSize: pageSize}
	st.refresh()
	return st
}

func seriesColumns(width int) []table.Column {
	id, status, freq, updated := 12, 10, 10, 19
	name := max(width-id-status-freq-updated-12, 20)
	return []table.Column{
		{Title: "Series ID", Width: id},
		{Title: "Name", Width: name},
		{Title: "Status", Width: status},
		{Title: "Frequency", Width: freq},
		{Title: "Last Update", Width: updated},
	}
}

// SetRows replaces all rows and returns to the first page.
func (s *SeriesTable) SetRows(rows []summary.Row) {
	s.rows = rows
	s.pageIdx = 0
	s.refresh()
}

// Rows returns all rows across pages.
func (s *SeriesTable) Rows() []summary.Row {
	return s.rows
}

// Page returns the visible page.
func (s *SeriesTable) Page() summary.Page {
	return s.page
}

// NextPage moves to the next page if there is one.
func (s *SeriesTable) NextPage() {
	if s.pageIdx < s.page.Count-1 {
		s.pageIdx++
		s.refresh()
	}
}

// PrevPage moves to the previous page if there is one.
func (s *SeriesTable) PrevPage() {
	if s.pageIdx > 0 {
		s.pageIdx--
		s.refresh()
	}
}

func (s *SeriesTable) refresh() {
	s.page = summary.Paginate(s.rows, s.pageIdx, s.pageSize)
	s.pageIdx = s.page.Index

	trs := make([]table.Row, len(s.page.Rows))
	for i, r := range s.page.Rows {
		trs[i] = table.Row{r.SeriesID, r.Name, r.Status, r.Frequency, r.LastUpdate}
	}
	s.table.SetRows(trs)
	s.table.SetCursor(0)
}

// SelectedRow returns the row under the cursor.
func (s *SeriesTable) SelectedRow() (summary.Row, bool) {
	i := s.table.Cursor()
	if i < 0 || i >= len(s.page.Rows) {
		return summary.Row{}, false
	}
	return s.page.Rows[i], true
}

// SetFocused sets whether the table receives key input.
func (s *SeriesTable) SetFocused(focused bool) {
	s.focused = focused
	if focused {
		s.table.Focus()
	} else {
		s.table.Blur()
	}
}

// Focused reports whether the table has focus.
func (s *SeriesTable) Focused() bool {
	return s.focused
}

// SetSize sets the table dimensions.
func (s *SeriesTable) SetSize(width, height int) {
	s.width = width
	s.table.SetColumns(seriesColumns(width))
	s.table.SetWidth(width)
	s.table.SetHeight(max(height-2, 3))
}

// Update handles cursor movement and paging.
func (s *SeriesTable) Update(msg tea.Msg) tea.Cmd {
	if !s.focused {
		return nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "right", "pgdown", "n":
			s.NextPage()
			return nil
		case "left", "pgup", "p":
			s.PrevPage()
			return nil
		}
	}
	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

// View renders the table and its page footer.
func (s *SeriesTable) View() string {
	if len(s.rows) == 0 {
		return styles.MutedTextStyle.Render("No series match the current filter.")
	}
	footer := styles.HelpStyle.Render(fmt.Sprintf("Page %d of %d │ %s series",
		s.page.Index+1, s.page.Count, summary.FormatCount(s.page.Total)))
	return s.table.View() + "\n" + footer
}
