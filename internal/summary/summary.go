// Package summary turns raw series metadata into the statistics, grid rows
// and detail views shown to the user.
package summary

import (
	"strings"
	"time"

	"github.com/wexinc/sourcecheck/internal/ceic"
)

// NotAvailable is shown wherever a value is missing.
const NotAvailable = "N/A"

// NoSeriesInfo is the note attached to a summary when a search returned nothing.
const NoSeriesInfo = "No series found or API error."

// Date layouts used for display.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	MinuteLayout   = "2006-01-02 15:04"
)

// Stats summarizes a fully loaded source.
type Stats struct {
	MinDate         string `json:"min_date"         yaml:"min_date"`
	MaxDate         string `json:"max_date"         yaml:"max_date"`
	ActiveSeries    int    `json:"active_series"    yaml:"active_series"`
	ProcessedSeries int    `json:"processed_series" yaml:"processed_series"`
}

// Summary is the one-row overview of a searched source.
type Summary struct {
	SourceID   string `json:"source_id"            yaml:"source_id"`
	SourceName string `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	NumSeries  int    `json:"num_series"           yaml:"num_series"`
	Info       string `json:"info,omitempty"       yaml:"info,omitempty"`
	Stats      *Stats `json:"stats,omitempty"      yaml:"stats,omitempty"`
}

// FromFirstPage builds a summary from the first page of a source search.
func FromFirstPage(page *ceic.SearchPage, sourceID string) Summary {
	if page == nil || (page.Total == 0 && len(page.Items) == 0) {
		return Summary{SourceID: sourceID, NumSeries: 0, Info: NoSeriesInfo}
	}
	return Summary{SourceID: sourceID, NumSeries: page.Total}
}

// WithStats returns a copy of s carrying stats, with NumSeries forced to total.
func (s Summary) WithStats(stats Stats, total int) Summary {
	s.Stats = &stats
	s.NumSeries = total
	return s
}

// ComputeStats derives update-date bounds and counts from metas.
func ComputeStats(metas []*ceic.SeriesMetadata) Stats {
	if len(metas) == 0 {
		return Stats{MinDate: NotAvailable, MaxDate: NotAvailable}
	}

	var minT, maxT time.Time
	active := 0
	for _, m := range metas {
		if m == nil {
			continue
		}
		if m.LastUpdateTime != nil && !m.LastUpdateTime.IsZero() {
			t := *m.LastUpdateTime
			if minT.IsZero() || t.Before(minT) {
				minT = t
			}
			if maxT.IsZero() || t.After(maxT) {
				maxT = t
			}
		}
		if m.Status != nil && m.Status.Name == "Active" {
			active++
		}
	}

	return Stats{
		MinDate:         formatDate(minT, DateLayout),
		MaxDate:         formatDate(maxT, DateLayout),
		ActiveSeries:    active,
		ProcessedSeries: len(metas),
	}
}

// Filter keeps the series whose name or ID contains keyword, ignoring case.
// An empty keyword keeps everything.
func Filter(metas []*ceic.SeriesMetadata, keyword string) []*ceic.SeriesMetadata {
	if keyword == "" {
		return metas
	}
	kw := strings.ToLower(keyword)
	var out []*ceic.SeriesMetadata
	for _, m := range metas {
		if m == nil {
			continue
		}
		if strings.Contains(strings.ToLower(m.Name), kw) || strings.Contains(strings.ToLower(m.ID), kw) {
			out = append(out, m)
		}
	}
	return out
}

// Find returns the series with the given ID.
func Find(metas []*ceic.SeriesMetadata, id string) (*ceic.SeriesMetadata, bool) {
	for _, m := range metas {
		if m != nil && m.ID == id {
			return m, true
		}
	}
	return nil, false
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.Format(layout)
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
