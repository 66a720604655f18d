package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wexinc/sourcecheck/internal/ceic"
	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/session"
	"github.com/wexinc/sourcecheck/internal/store"
	"github.com/wexinc/sourcecheck/internal/summary"
)

// newAPI serves a CEIC-like API with n series for every source.
// Searches for source "BROKEN" fail with a 400.
func newAPI(t *testing.T, n int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var searches atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"data":{"session":"tok"}}`)
		case "/search":
			searches.Add(1)
			if r.URL.Query().Get("source") == "BROKEN" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			page := ceic.SearchPage{Total: n}
			for i := offset; i < offset+limit && i < n; i++ {
				status := "Active"
				if i%2 == 1 {
					status = "Discontinued"
				}
				updated := time.Date(2020+i%5, 1, 1, 0, 0, 0, 0, time.UTC)
				page.Items = append(page.Items, ceic.SearchItem{Metadata: &ceic.SeriesMetadata{
					ID:             strconv.Itoa(i),
					Name:           fmt.Sprintf("Series %d", i),
					Status:         &ceic.Named{Name: status},
					LastUpdateTime: &updated,
				}})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": page})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &searches
}

func newExplorer(t *testing.T, srv *httptest.Server, threshold int, rec SnapshotRecorder) *Explorer {
	t.Helper()
	return New(session.New(), Options{
		API: ceic.Options{
			BaseURL:         srv.URL,
			HTTPClient:      srv.Client(),
			PageSize:        4,
			Concurrency:     2,
			MaxRetries:      1,
			InitialInterval: time.Millisecond,
		},
		WarnThreshold: threshold,
		Snapshots:     rec,
	})
}

func loggedIn(t *testing.T, e *Explorer) {
	t.Helper()
	if err := e.Authenticate(context.Background(), "analyst", "secret"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	srv, _ := newAPI(t, 0)
	e := newExplorer(t, srv, 500, nil)
	ctx := context.Background()

	if err := e.Authenticate(ctx, "", "secret"); !apperrors.Is(err, apperrors.ErrAuth) {
		t.Errorf("empty username: got %v", err)
	}

	if err := e.Authenticate(ctx, "analyst", "wrong"); !apperrors.Is(err, apperrors.ErrAuth) {
		t.Errorf("bad password: got %v", err)
	}
	if e.Session().LoggedIn() {
		t.Error("failed login must leave the session logged out")
	}

	loggedIn(t, e)
	if !e.Session().LoggedIn() {
		t.Error("expected logged in session")
	}

	e.Logout(ctx)
	if e.Session().LoggedIn() {
		t.Error("expected logged out after Logout")
	}
}

func TestSearchSource(t *testing.T) {
	srv, _ := newAPI(t, 10)
	e := newExplorer(t, srv, 500, nil)
	ctx := context.Background()

	if _, err := e.SearchSource(ctx, "S1", "One"); !apperrors.Is(err, apperrors.ErrSession) {
		t.Fatalf("expected ClientNotInitialized, got %v", err)
	}

	loggedIn(t, e)
	e.Session().SetSeriesDetails([]*ceic.SeriesMetadata{{ID: "old"}}, "S0")

	sum, err := e.SearchSource(ctx, "S1", "One")
	if err != nil {
		t.Fatalf("SearchSource() error = %v", err)
	}
	if sum.NumSeries != 10 || sum.SourceName != "One" || sum.Info != "" {
		t.Errorf("summary = %+v", sum)
	}
	if e.Session().DetailsLoadedFor("S0") {
		t.Error("a new search must clear previous details")
	}
	if rows := e.Session().Summary(); len(rows) != 1 || rows[0].SourceID != "S1" {
		t.Errorf("session summary = %+v", rows)
	}
}

func TestSearchSource_NoSeries(t *testing.T) {
	srv, _ := newAPI(t, 0)
	e := newExplorer(t, srv, 500, nil)
	loggedIn(t, e)

	sum, err := e.SearchSource(context.Background(), "S1", "One")
	if err != nil {
		t.Fatal(err)
	}
	if sum.NumSeries != 0 || sum.Info != summary.NoSeriesInfo {
		t.Errorf("summary = %+v", sum)
	}
}

func TestSearchSource_ErrorClearsResults(t *testing.T) {
	srv, _ := newAPI(t, 3)
	e := newExplorer(t, srv, 500, nil)
	loggedIn(t, e)

	if _, err := e.SearchSource(context.Background(), "S1", "One"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SearchSource(context.Background(), "BROKEN", "Broken"); err == nil {
		t.Fatal("expected search error")
	}
	if len(e.Session().Summary()) != 0 {
		t.Error("failed search must clear results")
	}
}

func TestLoadAllSeries(t *testing.T) {
	srv, _ := newAPI(t, 10)
	e := newExplorer(t, srv, 500, nil)
	ctx := context.Background()
	loggedIn(t, e)

	if _, err := e.SearchSource(ctx, "S1", "One"); err != nil {
		t.Fatal(err)
	}
	e.Session().SetFilter("stale")

	var last atomic.Int64
	result, err := e.LoadAllSeries(ctx, "S1", 10, func(done, total int) { last.Store(int64(done)) })
	if err != nil {
		t.Fatalf("LoadAllSeries() error = %v", err)
	}
	if last.Load() != 10 {
		t.Errorf("final progress = %d, want 10", last.Load())
	}

	want := summary.Stats{MinDate: "2020-01-01", MaxDate: "2024-01-01", ActiveSeries: 5, ProcessedSeries: 10}
	if result.Stats != want {
		t.Errorf("Stats = %+v, want %+v", result.Stats, want)
	}
	if result.Report != nil {
		t.Error("no snapshot recorder configured, expected no report")
	}

	rows := e.Session().Summary()
	if len(rows) != 1 || rows[0].Stats == nil || rows[0].NumSeries != 10 || rows[0].SourceName != "One" {
		t.Errorf("summary not merged: %+v", rows)
	}
	if !e.Session().DetailsLoadedFor("S1") || len(e.Session().SeriesDetails()) != 10 {
		t.Error("details not stored")
	}
	if e.Session().Filter() != "" {
		t.Error("loading must clear the filter")
	}
}

func TestLoadAllSeries_Errors(t *testing.T) {
	srv, _ := newAPI(t, 10)
	e := newExplorer(t, srv, 500, nil)
	ctx := context.Background()

	if _, err := e.LoadAllSeries(ctx, "S1", 10, nil); !apperrors.Is(err, apperrors.ErrSession) {
		t.Fatalf("expected ClientNotInitialized, got %v", err)
	}

	loggedIn(t, e)
	e.Session().SetSeriesDetails([]*ceic.SeriesMetadata{{ID: "x"}}, "S1")
	if _, err := e.LoadAllSeries(ctx, "BROKEN", 10, nil); err == nil {
		t.Fatal("expected load error")
	}
	if e.Session().SeriesDetails() != nil {
		t.Error("failed load must clear details")
	}
}

type fakeRecorder struct {
	calls  int
	source string
	name   string
	count  int
	err    error
}

func (f *fakeRecorder) SaveAndCompare(_ context.Context, sourceID, sourceName string, series []store.SeriesRecord) (store.ChangeReport, error) {
	f.calls++
	f.source, f.name, f.count = sourceID, sourceName, len(series)
	if f.err != nil {
		return store.ChangeReport{}, f.err
	}
	return store.ChangeReport{SourceID: sourceID, Baseline: true, Added: series}, nil
}

func TestLoadAllSeries_RecordsSnapshot(t *testing.T) {
	srv, _ := newAPI(t, 6)
	rec := &fakeRecorder{}
	e := newExplorer(t, srv, 500, rec)
	ctx := context.Background()
	loggedIn(t, e)
	if _, err := e.SearchSource(ctx, "S1", "One"); err != nil {
		t.Fatal(err)
	}

	result, err := e.LoadAllSeries(ctx, "S1", 6, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rec.calls != 1 || rec.source != "S1" || rec.name != "One" || rec.count != 6 {
		t.Errorf("recorder saw %+v", rec)
	}
	if result.Report == nil || !result.Report.Baseline {
		t.Errorf("Report = %+v", result.Report)
	}

	rec.err = errors.New("disk full")
	result, err = e.LoadAllSeries(ctx, "S1", 6, nil)
	if err != nil {
		t.Fatalf("snapshot failures must not fail the load: %v", err)
	}
	if result.Report != nil {
		t.Error("expected no report when recording fails")
	}
}

func TestHandleLoadRequest(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		threshold  int
		confirmed  bool
		preloaded  bool
		noRequest  bool
		wantErr    error
		wantLoaded bool
		wantKept   bool
	}{
		{name: "no request", noRequest: true},
		{name: "already loaded", count: 8, threshold: 500, preloaded: true},
		{name: "below threshold", count: 8, threshold: 500, wantLoaded: true},
		{name: "at threshold", count: 8, threshold: 8, wantLoaded: true},
		{name: "above threshold", count: 8, threshold: 5, wantErr: ErrConfirmationRequired, wantKept: true},
		{name: "above threshold confirmed", count: 8, threshold: 5, confirmed: true, wantLoaded: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, searches := newAPI(t, 8)
			e := newExplorer(t, srv, tt.threshold, nil)
			loggedIn(t, e)
			sess := e.Session()

			if tt.preloaded {
				sess.SetSeriesDetails([]*ceic.SeriesMetadata{{ID: "p"}}, "S1")
			}
			if !tt.noRequest {
				sess.RequestLoad("S1", tt.count)
			}

			result, err := e.HandleLoadRequest(context.Background(), tt.confirmed, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if (result != nil) != tt.wantLoaded {
				t.Fatalf("result = %+v, wantLoaded %v", result, tt.wantLoaded)
			}
			if tt.wantLoaded && len(sess.SeriesDetails()) != 8 {
				t.Errorf("loaded %d series, want 8", len(sess.SeriesDetails()))
			}
			if !tt.wantLoaded && searches.Load() != 0 {
				t.Errorf("expected no API calls, got %d", searches.Load())
			}
			if _, pending := sess.PendingLoad(); pending != tt.wantKept {
				t.Errorf("pending request kept = %v, want %v", pending, tt.wantKept)
			}
		})
	}
}

func TestNew_NegativeThresholdUsesDefault(t *testing.T) {
	e := New(session.New(), Options{WarnThreshold: -1})
	if e.WarnThreshold() != DefaultWarnThreshold {
		t.Errorf("WarnThreshold() = %d", e.WarnThreshold())
	}
}
