package summary

import "github.com/wexinc/sourcecheck/internal/ceic"

// Row is one line of the series grid.
type Row struct {
	SeriesID   string `json:"series_id"   yaml:"series_id"`
	Name       string `json:"name"        yaml:"name"`
	Status     string `json:"status"      yaml:"status"`
	Frequency  string `json:"frequency"   yaml:"frequency"`
	LastUpdate string `json:"last_update" yaml:"last_update"`
}

// Rows converts metas into grid rows, keeping their order.
func Rows(metas []*ceic.SeriesMetadata) []Row {
	rows := make([]Row, 0, len(metas))
	for _, m := range metas {
		if m == nil {
			continue
		}
		row := Row{
			SeriesID:   orNA(m.ID),
			Name:       orNA(m.Name),
			Status:     m.StatusName(),
			Frequency:  m.FrequencyName(),
			LastUpdate: NotAvailable,
		}
		if m.LastUpdateTime != nil {
			row.LastUpdate = formatDate(*m.LastUpdateTime, DateTimeLayout)
		}
		rows = append(rows, row)
	}
	return rows
}

// Page is a window onto a slice of rows.
type Page struct {
	Rows  []Row
	Index int // zero-based page number after clamping
	Count int // number of pages, at least 1
	Total int // number of rows across all pages
}

// Paginate returns the rows of page index (zero-based) with size rows per
// page. Out-of-range indexes are clamped.
func Paginate(rows []Row, index, size int) Page {
	if size <= 0 {
		size = len(rows)
		if size == 0 {
			size = 1
		}
	}
	count := (len(rows) + size - 1) / size
	if count == 0 {
		count = 1
	}
	index = max(0, min(index, count-1))

	start := index * size
	end := min(start+size, len(rows))
	return Page{
		Rows:  rows[start:end],
		Index: index,
		Count: count,
		Total: len(rows),
	}
}
