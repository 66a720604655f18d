package components

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wexinc/sourcecheck/internal/summary"
)

func sampleRows(n int) []summary.Row {
	rows := make([]summary.Row, n)
	for i := range rows {
		rows[i] = summary.Row{
			SeriesID:   fmt.Sprint(1000 + i),
			Name:       fmt.Sprintf("Series %d", i),
			Status:     "Active",
			Frequency:  "Monthly",
			LastUpdate: summary.NotAvailable,
		}
	}
	return rows
}

func TestSeriesTablePaging(t *testing.T) {
	st := NewSeriesTable(4)
	st.SetRows(sampleRows(10))
	st.SetFocused(true)

	if p := st.Page(); p.Count != 3 || p.Index != 0 || len(p.Rows) != 4 {
		t.Fatalf("first page = %+v", p)
	}

	right := tea.KeyMsg{Type: tea.KeyRight}
	st.Update(right)
	st.Update(right)
	if p := st.Page(); p.Index != 2 || len(p.Rows) != 2 {
		t.Errorf("last page = index %d with %d rows", p.Index, len(p.Rows))
	}
	st.Update(right)
	if st.Page().Index != 2 {
		t.Error("paging past the end should stay on the last page")
	}

	st.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if st.Page().Index != 1 {
		t.Errorf("page = %d, want 1", st.Page().Index)
	}

	row, ok := st.SelectedRow()
	if !ok || row.SeriesID != "1004" {
		t.Errorf("SelectedRow() = %+v, %v", row, ok)
	}
	if !strings.Contains(st.View(), "Page 2 of 3") {
		t.Error("footer should show the page")
	}
}

func TestSeriesTableCursor(t *testing.T) {
	st := NewSeriesTable(5)
	st.SetRows(sampleRows(5))

	st.Update(tea.KeyMsg{Type: tea.KeyDown})
	if row, _ := st.SelectedRow(); row.SeriesID != "1000" {
		t.Error("unfocused table should ignore keys")
	}

	st.SetFocused(true)
	st.Update(tea.KeyMsg{Type: tea.KeyDown})
	if row, _ := st.SelectedRow(); row.SeriesID != "1001" {
		t.Errorf("selected = %s, want 1001", row.SeriesID)
	}

	st.SetRows(sampleRows(2))
	if row, _ := st.SelectedRow(); row.SeriesID != "1000" {
		t.Error("new rows should reset the cursor")
	}
}

func TestSeriesTableEmpty(t *testing.T) {
	st := NewSeriesTable(0)
	if _, ok := st.SelectedRow(); ok {
		t.Error("empty table has no selection")
	}
	if !strings.Contains(st.View(), "No series match") {
		t.Error("empty table should say so")
	}
	if st.pageSize != DefaultGridPageSize {
		t.Errorf("pageSize = %d, want default", st.pageSize)
	}
}
