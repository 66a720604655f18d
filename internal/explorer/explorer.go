// Package explorer implements the explorer workflows on top of a session:
// authentication, searching a source and loading all of its series.
package explorer

import (
	"context"
	"errors"

	"github.com/wexinc/sourcecheck/internal/ceic"
	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/logging"
	"github.com/wexinc/sourcecheck/internal/session"
	"github.com/wexinc/sourcecheck/internal/store"
	"github.com/wexinc/sourcecheck/internal/summary"
)

// DefaultWarnThreshold is the series count above which a load must be confirmed.
const DefaultWarnThreshold = 500

// ErrConfirmationRequired is returned by HandleLoadRequest when the pending
// load is above the warning threshold and was not confirmed.
var ErrConfirmationRequired = errors.New("loading this many series requires confirmation")

// SnapshotRecorder persists loaded series and reports what changed.
// *store.Store implements it.
type SnapshotRecorder interface {
	SaveAndCompare(ctx context.Context, sourceID, sourceName string, series []store.SeriesRecord) (store.ChangeReport, error)
}

// Options configures an Explorer.
type Options struct {
	API           ceic.Options
	WarnThreshold int
	// Snapshots, when set, receives every successful full load.
	Snapshots SnapshotRecorder
}

// Explorer runs explorer workflows against one session.
type Explorer struct {
	session   *session.Manager
	api       ceic.Options
	threshold int
	snapshots SnapshotRecorder
}

// New creates an Explorer bound to sess.
func New(sess *session.Manager, opts Options) *Explorer {
	if opts.WarnThreshold < 0 {
		opts.WarnThreshold = DefaultWarnThreshold
	}
	return &Explorer{
		session:   sess,
		api:       opts.API,
		threshold: opts.WarnThreshold,
		snapshots: opts.Snapshots,
	}
}

// Session returns the session the explorer works on.
func (e *Explorer) Session() *session.Manager {
	return e.session
}

// WarnThreshold returns the confirmation threshold.
func (e *Explorer) WarnThreshold() int {
	return e.threshold
}

func (e *Explorer) log(ctx context.Context) *logging.Logger {
	ctx = logging.WithSessionID(ctx, e.session.ID())
	return logging.Global().WithContext(ctx)
}

// Authenticate logs in and stores the client in the session. On failure
// the session is cleared.
func (e *Explorer) Authenticate(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return apperrors.MissingCredentials()
	}

	client, err := ceic.Login(ctx, e.api, username, password)
	if err != nil {
		e.log(ctx).Error("authentication failed", "username", username, "error", err)
		e.session.Clear()
		return err
	}

	e.session.SetClient(client)
	e.log(ctx).Info("user authenticated", "username", username)
	return nil
}

// Logout drops the client and all search state.
func (e *Explorer) Logout(ctx context.Context) {
	if c := e.session.Client(); c != nil {
		c.Logout()
	}
	e.log(ctx).Info("user logged out")
	e.session.Clear()
}

// SearchSource replaces the current results with a summary of sourceID.
func (e *Explorer) SearchSource(ctx context.Context, sourceID, sourceName string) (summary.Summary, error) {
	client := e.session.Client()
	if client == nil {
		return summary.Summary{}, apperrors.ClientNotInitialized()
	}

	e.session.ClearSearchResults()
	log := e.log(logging.WithSourceID(ctx, sourceID))

	page, err := client.FirstPage(ctx, sourceID)
	if err != nil {
		log.Error("search failed", "error", err)
		e.session.ClearSearchResults()
		return summary.Summary{}, err
	}

	sum := summary.FromFirstPage(page, sourceID)
	sum.SourceName = sourceName
	e.session.SetSummary([]summary.Summary{sum})
	log.Info("initial search complete", "num_series", sum.NumSeries)
	return sum, nil
}

// LoadResult describes a completed full load.
type LoadResult struct {
	SourceID string
	Stats    summary.Stats
	// Report is set when a snapshot was recorded.
	Report *store.ChangeReport
}

// LoadAllSeries fetches every series of sourceID, computes statistics,
// merges them into the summary and stores the series in the session.
// On error the loaded series are cleared.
func (e *Explorer) LoadAllSeries(ctx context.Context, sourceID string, total int, progress ceic.ProgressFunc) (LoadResult, error) {
	client := e.session.Client()
	if client == nil {
		return LoadResult{}, apperrors.ClientNotInitialized()
	}
	log := e.log(logging.WithSourceID(ctx, sourceID))

	metas, err := client.FetchAll(ctx, sourceID, total, progress)
	if err != nil {
		log.Error("failed to load all series", "error", err)
		e.session.ClearSeriesDetails()
		return LoadResult{}, err
	}

	stats := summary.ComputeStats(metas)
	rows := e.session.Summary()
	sourceName := ""
	merged := false
	for i := range rows {
		if rows[i].SourceID == sourceID {
			sourceName = rows[i].SourceName
			rows[i] = rows[i].WithStats(stats, total)
			merged = true
		}
	}
	if !merged {
		rows = append(rows, summary.Summary{SourceID: sourceID}.WithStats(stats, total))
	}
	e.session.SetSummary(rows)
	e.session.SetSeriesDetails(metas, sourceID)
	log.Info("loaded all series", "count", len(metas))

	result := LoadResult{SourceID: sourceID, Stats: stats}
	if e.snapshots != nil {
		report, err := e.snapshots.SaveAndCompare(ctx, sourceID, sourceName, store.RecordsFrom(metas))
		if err != nil {
			log.Warn("failed to record snapshot", "error", err)
		} else {
			log.Info("snapshot recorded", "changes", report.String())
			result.Report = &report
		}
	}
	return result, nil
}

// Decision is the outcome of inspecting the pending load request.
type Decision int

const (
	// NoRequest means nothing is pending.
	NoRequest Decision = iota
	// AlreadyLoaded means the series of the requested source are loaded.
	AlreadyLoaded
	// NeedsConfirmation means the request is above the threshold.
	NeedsConfirmation
	// ReadyToLoad means the request can proceed.
	ReadyToLoad
)

// Decide inspects the pending load request without acting on it.
// An already loaded request is dropped.
func (e *Explorer) Decide(confirmed bool) (session.LoadRequest, Decision) {
	req, ok := e.session.PendingLoad()
	if !ok {
		return req, NoRequest
	}
	if e.session.DetailsLoadedFor(req.SourceID) {
		e.session.ClearLoadRequest()
		return req, AlreadyLoaded
	}
	if !confirmed && e.session.NeedsConfirmation(e.threshold) {
		return req, NeedsConfirmation
	}
	return req, ReadyToLoad
}

// HandleLoadRequest acts on the pending load request. It returns
// (nil, nil) when there is nothing to do and ErrConfirmationRequired when
// the request must be confirmed first.
func (e *Explorer) HandleLoadRequest(ctx context.Context, confirmed bool, progress ceic.ProgressFunc) (*LoadResult, error) {
	req, decision := e.Decide(confirmed)
	switch decision {
	case NoRequest, AlreadyLoaded:
		return nil, nil
	case NeedsConfirmation:
		return nil, ErrConfirmationRequired
	}

	result, err := e.LoadAllSeries(ctx, req.SourceID, req.Count, progress)
	e.session.ClearLoadRequest()
	if err != nil {
		return nil, err
	}
	return &result, nil
}
