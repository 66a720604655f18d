// Package store persists snapshots of a source's series metadata in SQLite
// so later runs can report what changed.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wexinc/sourcecheck/internal/ceic"
	"github.com/wexinc/sourcecheck/internal/logging"
	"github.com/wexinc/sourcecheck/internal/store/migrations"
)

// ErrNoSnapshot is returned when a source has no (earlier) snapshot.
var ErrNoSnapshot = errors.New("no snapshot")

// SeriesRecord is the stored view of one series.
type SeriesRecord struct {
	SeriesID   string     `json:"series_id"             yaml:"series_id"`
	Name       string     `json:"name"                  yaml:"name"`
	Status     string     `json:"status"                yaml:"status"`
	Frequency  string     `json:"frequency"             yaml:"frequency"`
	LastUpdate *time.Time `json:"last_update,omitempty" yaml:"last_update,omitempty"`
}

// Snapshot is a source's series at a point in time.
type Snapshot struct {
	ID         string         `json:"id"          yaml:"id"`
	SourceID   string         `json:"source_id"   yaml:"source_id"`
	SourceName string         `json:"source_name" yaml:"source_name"`
	TakenAt    time.Time      `json:"taken_at"    yaml:"taken_at"`
	Series     []SeriesRecord `json:"series"      yaml:"series"`
}

// SnapshotInfo describes a snapshot without its series.
type SnapshotInfo struct {
	ID          string    `json:"id"           yaml:"id"`
	SourceID    string    `json:"source_id"    yaml:"source_id"`
	SourceName  string    `json:"source_name"  yaml:"source_name"`
	TakenAt     time.Time `json:"taken_at"     yaml:"taken_at"`
	SeriesCount int       `json:"series_count" yaml:"series_count"`
}

// RecordsFrom converts loaded metadata into records.
func RecordsFrom(metas []*ceic.SeriesMetadata) []SeriesRecord {
	out := make([]SeriesRecord, 0, len(metas))
	for _, m := range metas {
		if m == nil {
			continue
		}
		rec := SeriesRecord{
			SeriesID:  m.ID,
			Name:      m.Name,
			Status:    ceic.NameOf(m.Status, ""),
			Frequency: ceic.NameOf(m.Frequency, ""),
		}
		if m.LastUpdateTime != nil {
			t := m.LastUpdateTime.UTC()
			rec.LastUpdate = &t
		}
		out = append(out, rec)
	}
	return out
}

// Store persists snapshots in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := clean + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logging.Debug("snapshot store opened", "path", clean)
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot stores series for a source and returns the new snapshot.
// A series ID listed more than once is stored once, with its last values.
func (s *Store) SaveSnapshot(ctx context.Context, sourceID, sourceName string, series []SeriesRecord) (*Snapshot, error) {
	if strings.TrimSpace(sourceID) == "" {
		return nil, fmt.Errorf("source id is required")
	}

	snap := &Snapshot{
		ID:         uuid.NewString(),
		SourceID:   sourceID,
		SourceName: sourceName,
		TakenAt:    s.now().UTC().Truncate(time.Millisecond),
		Series:     uniqueSeries(series),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, source_id, source_name, taken_at, series_count) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.SourceID, snap.SourceName, snap.TakenAt.UnixMilli(), len(snap.Series)); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_series (snapshot_id, series_id, name, status, frequency, last_update)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare series insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range snap.Series {
		var last sql.NullInt64
		if rec.LastUpdate != nil {
			last = sql.NullInt64{Int64: rec.LastUpdate.UnixMilli(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, snap.ID, rec.SeriesID, rec.Name, rec.Status, rec.Frequency, last); err != nil {
			return nil, fmt.Errorf("insert series %s: %w", rec.SeriesID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}

	logging.Info("snapshot saved", "snapshot_id", snap.ID, "source_id", sourceID, "series", len(snap.Series))
	return snap, nil
}

// uniqueSeries copies series keeping the first position and the last values
// of every series ID.
func uniqueSeries(series []SeriesRecord) []SeriesRecord {
	out := make([]SeriesRecord, 0, len(series))
	seen := make(map[string]int, len(series))
	for _, rec := range series {
		if i, ok := seen[rec.SeriesID]; ok {
			out[i] = rec
			continue
		}
		seen[rec.SeriesID] = len(out)
		out = append(out, rec)
	}
	return out
}

// LatestSnapshot returns the most recent snapshot of sourceID.
func (s *Store) LatestSnapshot(ctx context.Context, sourceID string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_id, source_name, taken_at FROM snapshots
		WHERE source_id = ?
		ORDER BY taken_at DESC, rowid DESC
		LIMIT 1`, sourceID)
	return s.loadSnapshot(ctx, row)
}

// PreviousSnapshot returns the snapshot of sourceID taken just before beforeID.
func (s *Store) PreviousSnapshot(ctx context.Context, sourceID, beforeID string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.source_id, s.source_name, s.taken_at FROM snapshots s
		JOIN snapshots ref ON ref.id = ?
		WHERE s.source_id = ?
		  AND (s.taken_at < ref.taken_at OR (s.taken_at = ref.taken_at AND s.rowid < ref.rowid))
		ORDER BY s.taken_at DESC, s.rowid DESC
		LIMIT 1`, beforeID, sourceID)
	return s.loadSnapshot(ctx, row)
}

// GetSnapshot returns the snapshot with the given ID.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_id, source_name, taken_at FROM snapshots WHERE id = ?`, id)
	return s.loadSnapshot(ctx, row)
}

// ListSnapshots returns the snapshots of sourceID, newest first.
func (s *Store) ListSnapshots(ctx context.Context, sourceID string) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, source_name, taken_at, series_count FROM snapshots
		WHERE source_id = ?
		ORDER BY taken_at DESC, rowid DESC`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var taken int64
		if err := rows.Scan(&info.ID, &info.SourceID, &info.SourceName, &taken, &info.SeriesCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		info.TakenAt = time.UnixMilli(taken).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *Store) loadSnapshot(ctx context.Context, row *sql.Row) (*Snapshot, error) {
	var snap Snapshot
	var taken int64
	if err := row.Scan(&snap.ID, &snap.SourceID, &snap.SourceName, &taken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap.TakenAt = time.UnixMilli(taken).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT series_id, name, status, frequency, last_update FROM snapshot_series
		WHERE snapshot_id = ?
		ORDER BY series_id`, snap.ID)
	if err != nil {
		return nil, fmt.Errorf("read snapshot series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec SeriesRecord
		var last sql.NullInt64
		if err := rows.Scan(&rec.SeriesID, &rec.Name, &rec.Status, &rec.Frequency, &last); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		if last.Valid {
			t := time.UnixMilli(last.Int64).UTC()
			rec.LastUpdate = &t
		}
		snap.Series = append(snap.Series, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &snap, nil
}
