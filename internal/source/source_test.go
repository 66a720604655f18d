package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/wexinc/sourcecheck/internal/errors"
)

const sampleCatalog = `{"data": [
	{"id": "1001", "name": "National Bureau of Statistics"},
	{"id": "1002", "name": "Central Bank"},
	{"id": "1003", "name": "Ministry of Finance"}
]}`

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "sources.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleCatalog)

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if cat.Path() != path {
		t.Errorf("Path() = %q", cat.Path())
	}
	want := []string{"National Bureau of Statistics", "Central Bank", "Ministry of Finance"}
	if diff := cmp.Diff(want, cat.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if cat.Len() != 3 {
		t.Errorf("Len() = %d", cat.Len())
	}
}

func TestLoadCatalog_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCatalog(filepath.Join(dir, "missing.json"))
	if !apperrors.Is(err, apperrors.ErrSource) {
		t.Errorf("missing file: expected ErrSource, got %v", err)
	}

	path := writeCatalog(t, dir, "{not json")
	_, err = LoadCatalog(path)
	if !apperrors.Is(err, apperrors.ErrSource) {
		t.Errorf("bad JSON: expected ErrSource, got %v", err)
	}
}

func TestLoadCatalog_EmptyData(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), `{"other": 1}`)

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if cat.Len() != 0 || len(cat.Names()) != 0 {
		t.Errorf("expected empty catalog, got %v", cat.All())
	}
}

func TestCatalog_Lookups(t *testing.T) {
	cat := NewCatalog([]Source{
		{ID: "1", Name: "Alpha"},
		{ID: "2", Name: "Beta"},
		{ID: "3", Name: "Alpha"},
	})

	if s, ok := cat.ByName("Alpha"); !ok || s.ID != "1" {
		t.Errorf("ByName(Alpha) = %+v, %v; want first match", s, ok)
	}
	if s, ok := cat.ByID("2"); !ok || s.Name != "Beta" {
		t.Errorf("ByID(2) = %+v, %v", s, ok)
	}
	if _, ok := cat.ByID("9"); ok {
		t.Error("ByID(9) should miss")
	}

	tests := []struct {
		ref    string
		wantID string
	}{
		{"2", "2"},
		{"Beta", "2"},
		{"beta", "2"},
	}
	for _, tt := range tests {
		s, err := cat.Resolve(tt.ref)
		if err != nil || s.ID != tt.wantID {
			t.Errorf("Resolve(%q) = %+v, %v; want ID %s", tt.ref, s, err, tt.wantID)
		}
	}
	if _, err := cat.Resolve("gamma"); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Resolve(gamma) error = %v, want ErrNotFound", err)
	}

	all := cat.All()
	all[0].Name = "mutated"
	if cat.All()[0].Name != "Alpha" {
		t.Error("All() must return a copy")
	}
}

func TestCache(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleCatalog)
	cache := NewCache()

	first, err := cache.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("expected cached catalog to be reused")
	}
	if cache.Loads() != 1 {
		t.Errorf("Loads() = %d, want 1", cache.Loads())
	}

	cache.Invalidate(path)
	if _, err := cache.Get(path); err != nil {
		t.Fatal(err)
	}
	if cache.Loads() != 2 {
		t.Errorf("Loads() = %d after invalidate, want 2", cache.Loads())
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.json")
	cache := NewCache()

	if _, err := cache.Get(path); err == nil {
		t.Fatal("expected error for missing file")
	}

	writeCatalog(t, dir, sampleCatalog)
	cat, err := cache.Get(path)
	if err != nil {
		t.Fatalf("Get() after create error = %v", err)
	}
	if cat.Len() != 3 {
		t.Errorf("Len() = %d", cat.Len())
	}
}

func TestWatcher_InvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, sampleCatalog)

	cache := NewCache()
	if _, err := cache.Get(path); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 1)
	w, err := NewWatcher(path, cache, func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	writeCatalog(t, dir, `{"data": [{"id": "9", "name": "Only"}]}`)

	select {
	case p := <-changed:
		if p != path {
			t.Errorf("onChange path = %q, want %q", p, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}

	cat, err := cache.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Only"}, cat.Names()); diff != "" {
		t.Errorf("reloaded catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcher_CloseWithoutStart(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "sources.json"), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
