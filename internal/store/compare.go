package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// StatusChange records a series whose status changed between snapshots.
type StatusChange struct {
	SeriesID string `json:"series_id" yaml:"series_id"`
	Name     string `json:"name"      yaml:"name"`
	From     string `json:"from"      yaml:"from"`
	To       string `json:"to"        yaml:"to"`
}

// ChangeReport lists the differences between two snapshots of a source.
type ChangeReport struct {
	SourceID      string         `json:"source_id"               yaml:"source_id"`
	From          string         `json:"from,omitempty"          yaml:"from,omitempty"`
	To            string         `json:"to"                      yaml:"to"`
	Baseline      bool           `json:"baseline"                yaml:"baseline"`
	Added         []SeriesRecord `json:"added,omitempty"         yaml:"added,omitempty"`
	Removed       []SeriesRecord `json:"removed,omitempty"       yaml:"removed,omitempty"`
	Updated       []SeriesRecord `json:"updated,omitempty"       yaml:"updated,omitempty"`
	StatusChanged []StatusChange `json:"status_changed,omitempty" yaml:"status_changed,omitempty"`
}

// Empty reports whether nothing changed.
func (r ChangeReport) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Updated) == 0 && len(r.StatusChanged) == 0
}

// String renders a one-line summary.
func (r ChangeReport) String() string {
	if r.Baseline {
		return fmt.Sprintf("baseline snapshot for %s (%d series)", r.SourceID, len(r.Added))
	}
	if r.Empty() {
		return fmt.Sprintf("no changes for %s", r.SourceID)
	}
	parts := []string{
		fmt.Sprintf("%d added", len(r.Added)),
		fmt.Sprintf("%d removed", len(r.Removed)),
		fmt.Sprintf("%d updated", len(r.Updated)),
		fmt.Sprintf("%d status changes", len(r.StatusChanged)),
	}
	return fmt.Sprintf("%s: %s", r.SourceID, strings.Join(parts, ", "))
}

// Compare reports how next differs from prev. A nil prev produces a baseline
// report with every series added. Results are sorted by series ID.
func Compare(prev, next *Snapshot) ChangeReport {
	report := ChangeReport{}
	if next == nil {
		return report
	}
	report.SourceID = next.SourceID
	report.To = next.ID

	if prev == nil {
		report.Baseline = true
		report.Added = sortedRecords(next.Series)
		return report
	}
	report.From = prev.ID

	old := make(map[string]SeriesRecord, len(prev.Series))
	for _, rec := range prev.Series {
		old[rec.SeriesID] = rec
	}
	seen := make(map[string]bool, len(next.Series))

	for _, rec := range next.Series {
		seen[rec.SeriesID] = true
		before, ok := old[rec.SeriesID]
		if !ok {
			report.Added = append(report.Added, rec)
			continue
		}
		if before.Status != rec.Status {
			report.StatusChanged = append(report.StatusChanged, StatusChange{
				SeriesID: rec.SeriesID,
				Name:     rec.Name,
				From:     before.Status,
				To:       rec.Status,
			})
		}
		if before.Name != rec.Name || before.Frequency != rec.Frequency || !sameTime(before.LastUpdate, rec.LastUpdate) {
			report.Updated = append(report.Updated, rec)
		}
	}
	for _, rec := range prev.Series {
		if !seen[rec.SeriesID] {
			report.Removed = append(report.Removed, rec)
		}
	}

	report.Added = sortedRecords(report.Added)
	report.Removed = sortedRecords(report.Removed)
	report.Updated = sortedRecords(report.Updated)
	sort.Slice(report.StatusChanged, func(i, j int) bool {
		return report.StatusChanged[i].SeriesID < report.StatusChanged[j].SeriesID
	})
	return report
}

func sortedRecords(recs []SeriesRecord) []SeriesRecord {
	if len(recs) == 0 {
		return nil
	}
	out := append([]SeriesRecord(nil), recs...)
	sort.Slice(out, func(i, j int) bool { return out[i].SeriesID < out[j].SeriesID })
	return out
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// SaveAndCompare stores a new snapshot of sourceID and compares it with the
// one taken before it.
func (s *Store) SaveAndCompare(ctx context.Context, sourceID, sourceName string, series []SeriesRecord) (ChangeReport, error) {
	next, err := s.SaveSnapshot(ctx, sourceID, sourceName, series)
	if err != nil {
		return ChangeReport{}, err
	}
	prev, err := s.PreviousSnapshot(ctx, sourceID, next.ID)
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return ChangeReport{}, err
	}
	return Compare(prev, next), nil
}
