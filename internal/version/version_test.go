package version

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewInfo(t *testing.T) {
	info := NewInfo("1.0.0", "abc123", "2026-01-01")

	if info.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", info.Version, "1.0.0")
	}
	if info.Commit != "abc123" {
		t.Errorf("Commit = %q, want %q", info.Commit, "abc123")
	}
	if info.GoVer == "" || info.OS == "" || info.Arch == "" {
		t.Errorf("runtime fields not populated: %+v", info)
	}
}

func TestInfoString(t *testing.T) {
	info := NewInfo("1.0.0", "abc123", "2026-01-01")

	want := "sourcecheck 1.0.0 (commit: abc123, built: 2026-01-01)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if full := info.FullString(); !strings.Contains(full, "Commit:   abc123") {
		t.Errorf("FullString() = %q, missing commit line", full)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.1", "1.0.0", 1},
		{"1.0.0", "1.0.1", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.10.0", "1.2.0", 1},
		{"v1.0.0", "1.0.0", 0},
		{"1.0.0-rc1", "1.0.0", 0},
		{"1.0.0", "dev", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := CompareVersions(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		version string
		want    [3]int
	}{
		{"1.2.3", [3]int{1, 2, 3}},
		{"1.0", [3]int{1, 0, 0}},
		{"1", [3]int{1, 0, 0}},
		{"1.2.3-rc1", [3]int{1, 2, 3}},
		{"invalid", [3]int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := parseVersion(tt.version); got != tt.want {
				t.Errorf("parseVersion(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestIsDevBuild(t *testing.T) {
	for v, want := range map[string]bool{"dev": true, "": true, "1.2.0": false, "v0.1.0": false} {
		if got := IsDevBuild(v); got != want {
			t.Errorf("IsDevBuild(%q) = %v, want %v", v, got, want)
		}
	}
}

func newReleaseServer(t *testing.T, status int, tag string) *Checker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/test/repo/releases/latest" {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			http.Error(w, "rate limited", status)
			return
		}
		_ = json.NewEncoder(w).Encode(Release{TagName: tag, HTMLURL: "https://example.com/" + tag})
	}))
	t.Cleanup(srv.Close)
	return &Checker{HTTPClient: srv.Client(), APIBase: srv.URL, Repo: "test/repo"}
}

func TestChecker_CheckForUpdate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		tag     string
		current string
		want    string
		wantErr bool
	}{
		{name: "newer release", status: http.StatusOK, tag: "v2.0.0", current: "1.0.0", want: "v2.0.0"},
		{name: "up to date", status: http.StatusOK, tag: "v1.0.0", current: "1.0.0"},
		{name: "older release", status: http.StatusOK, tag: "v0.9.0", current: "v1.0.0"},
		{name: "api error", status: http.StatusForbidden, current: "1.0.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := newReleaseServer(t, tt.status, tt.tag)
			release, err := checker.CheckForUpdate(context.Background(), tt.current)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckForUpdate() error = %v, wantErr %v", err, tt.wantErr)
			}
			got := ""
			if release != nil {
				got = release.TagName
			}
			if got != tt.want {
				t.Errorf("CheckForUpdate() = %q, want %q", got, tt.want)
			}
		})
	}
}
