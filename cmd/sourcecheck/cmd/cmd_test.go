package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wexinc/sourcecheck/internal/ceic"
	"github.com/wexinc/sourcecheck/internal/config"
	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/explorer"
	"github.com/wexinc/sourcecheck/internal/source"
	"github.com/wexinc/sourcecheck/internal/version"
)

const testCatalog = `{"data": [
  {"id": "S1", "name": "Alpha Bureau"},
  {"id": "BROKEN", "name": "Broken Source"}
]}`

// newAPI serves a CEIC-like API with n series for every source. Searches
// for source "BROKEN" fail with a 400.
func newAPI(t *testing.T, n int) *httptest.Server {
	t.Helper()
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
			q := r.URL.Query()
			if q.Get("source") == "BROKEN" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			limit, _ := strconv.Atoi(q.Get("limit"))
			offset, _ := strconv.Atoi(q.Get("offset"))
			keyword := q.Get("keyword")

			page := ceic.SearchPage{Total: n}
			if keyword != "" {
				page.Total = 0
				if i, err := strconv.Atoi(keyword); err == nil && i >= 0 && i < n {
					page.Total = 1
					page.Items = append(page.Items, item(i))
				}
			} else {
				for i := offset; i < offset+limit && i < n; i++ {
					page.Items = append(page.Items, item(i))
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": page})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func item(i int) ceic.SearchItem {
	status := "Active"
	if i%2 == 1 {
		status = "Discontinued"
	}
	updated := time.Date(2020+i%5, 1, 1, 0, 0, 0, 0, time.UTC)
	return ceic.SearchItem{Metadata: &ceic.SeriesMetadata{
		ID:             strconv.Itoa(i),
		Name:           fmt.Sprintf("Series %d", i),
		Status:         &ceic.Named{Name: status},
		Frequency:      &ceic.Named{Name: "Monthly"},
		LastUpdateTime: &updated,
	}}
}

// setupEnv moves into a fresh directory with a catalog and points the
// configuration at srv through the environment. It returns the directory.
func setupEnv(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, "sources.json"), []byte(testCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SOURCECHECK_LOGGING_DIR", filepath.Join(dir, "logs"))
	t.Setenv("SOURCECHECK_STORE_PATH", filepath.Join(dir, "snapshots.db"))
	t.Setenv("SOURCECHECK_API_USERNAME", "analyst")
	t.Setenv("SOURCECHECK_API_PASSWORD", "secret")
	t.Setenv("SOURCECHECK_API_PAGE_SIZE", "4")
	t.Setenv("SOURCECHECK_API_MAX_RETRIES", "1")
	if srv != nil {
		t.Setenv("SOURCECHECK_API_BASE_URL", srv.URL)
	}
	return dir
}

// resetFlags restores every flag of c and its subcommands to its default.
// Cobra commands keep parsed flag values between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := Root()
	resetFlags(root)
	root.Version = "test"
	root.SetVersionTemplate("sourcecheck {{.Version}}\n")

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	setupEnv(t, nil)

	tests := []struct {
		name       string
		args       []string
		wantErr    bool
		wantOutput string
	}{
		{name: "help flag", args: []string{"--help"}, wantOutput: "Available Commands:"},
		{name: "version flag", args: []string{"--version"}, wantOutput: "sourcecheck test"},
		{name: "unknown command", args: []string{"unknown"}, wantErr: true},
		{name: "check needs a source", args: []string{"check"}, wantErr: true},
		{name: "bad output format", args: []string{"sources", "--output", "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantOutput != "" && !strings.Contains(out, tt.wantOutput) {
				t.Errorf("output = %q, want to contain %q", out, tt.wantOutput)
			}
		})
	}
}

func TestSourcesCommand(t *testing.T) {
	dir := setupEnv(t, nil)

	out, err := execute(t, "sources")
	if err != nil {
		t.Fatalf("sources error = %v", err)
	}
	for _, want := range []string{"S1", "Alpha Bureau", "BROKEN", "2 sources in sources.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "sources", "--output", "json")
	if err != nil {
		t.Fatalf("sources --output json error = %v", err)
	}
	var got []source.Source
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	want := []source.Source{{ID: "S1", Name: "Alpha Bureau"}, {ID: "BROKEN", Name: "Broken Source"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}

	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(other, []byte(`{"data":[{"id":"X9","name":"Other"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "sources", "--file", other)
	if err != nil {
		t.Fatalf("sources --file error = %v", err)
	}
	if !strings.Contains(out, "X9") || strings.Contains(out, "Alpha Bureau") {
		t.Errorf("--file was not used:\n%s", out)
	}

	_, err = execute(t, "sources", "--file", filepath.Join(dir, "missing.json"))
	if !apperrors.Is(err, apperrors.ErrSource) {
		t.Errorf("missing catalog error = %v, want ErrSource", err)
	}
}

func TestCheckCommand(t *testing.T) {
	srv := newAPI(t, 12)
	setupEnv(t, srv)

	tests := []struct {
		name      string
		args      []string
		env       map[string]string
		wantErr   error
		wantLines []string
		notWant   []string
	}{
		{
			name:      "summary only",
			args:      []string{"check", "S1"},
			wantLines: []string{"Source ID:            S1", "Source Name:          Alpha Bureau", "Total Series Found:   12"},
			notWant:   []string{"Active Series"},
		},
		{
			name:      "by name",
			args:      []string{"check", "alpha bureau"},
			wantLines: []string{"Source ID:            S1"},
		},
		{
			name:      "load",
			args:      []string{"check", "S1", "--load"},
			wantLines: []string{"Oldest Update:        2020-01-01", "Newest Update:        2024-01-01", "Active Series:        6"},
		},
		{
			name:    "load above threshold",
			args:    []string{"check", "S1", "--load"},
			env:     map[string]string{"SOURCECHECK_EXPLORER_WARN_THRESHOLD": "10"},
			wantErr: explorer.ErrConfirmationRequired,
		},
		{
			name:      "load above threshold confirmed",
			args:      []string{"check", "S1", "--load", "--yes"},
			env:       map[string]string{"SOURCECHECK_EXPLORER_WARN_THRESHOLD": "10"},
			wantLines: []string{"Active Series:        6"},
		},
		{
			name:      "filter",
			args:      []string{"check", "S1", "--load", "--filter", "series 1"},
			wantLines: []string{`3 series match "series 1"`, "Series 10", "Series 11"},
		},
		{
			name:    "unknown source",
			args:    []string{"check", "NOPE"},
			wantErr: apperrors.ErrNotFound,
		},
		{
			name:    "api error",
			args:    []string{"check", "BROKEN"},
			wantErr: apperrors.ErrAPI,
		},
		{
			name:    "bad credentials",
			args:    []string{"check", "S1"},
			env:     map[string]string{"SOURCECHECK_API_PASSWORD": "wrong"},
			wantErr: apperrors.ErrAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			out, err := execute(t, tt.args...)
			if tt.wantErr != nil {
				if !apperrors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v\n%s", err, out)
			}
			for _, want := range tt.wantLines {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(out, bad) {
					t.Errorf("output unexpectedly contains %q:\n%s", bad, out)
				}
			}
		})
	}
}

func TestCheckCommand_FlagDependencies(t *testing.T) {
	setupEnv(t, nil)

	for _, args := range [][]string{
		{"check", "S1", "--filter", "gdp"},
		{"check", "S1", "--snapshot"},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestCheckCommand_JSON(t *testing.T) {
	srv := newAPI(t, 12)
	setupEnv(t, srv)

	out, err := execute(t, "check", "S1", "--load", "--filter", "series 1", "--output", "json")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if strings.Contains(out, "Loading S1") {
		t.Error("progress must not be mixed into JSON output")
	}

	var report checkReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if report.Summary.Stats == nil || report.Summary.Stats.ActiveSeries != 6 {
		t.Errorf("stats = %+v, want 6 active series", report.Summary.Stats)
	}
	var ids []string
	for _, row := range report.Series {
		ids = append(ids, row.SeriesID)
	}
	if diff := cmp.Diff([]string{"1", "10", "11"}, ids); diff != "" {
		t.Errorf("filtered series mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotHistory(t *testing.T) {
	srv := newAPI(t, 6)
	setupEnv(t, srv)

	out, err := execute(t, "history", "S1")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "No snapshots recorded for S1") {
		t.Errorf("empty history output = %q", out)
	}

	out, err = execute(t, "check", "S1", "--load", "--snapshot")
	if err != nil {
		t.Fatalf("first check error = %v", err)
	}
	if !strings.Contains(out, "baseline snapshot for S1 (6 series)") {
		t.Errorf("first check output = %q", out)
	}

	out, err = execute(t, "check", "S1", "--load", "--snapshot")
	if err != nil {
		t.Fatalf("second check error = %v", err)
	}
	if !strings.Contains(out, "no changes for S1") {
		t.Errorf("second check output = %q", out)
	}

	out, err = execute(t, "history", "S1", "--output", "json")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	var infos []struct {
		ID          string `json:"id"`
		SeriesCount int    `json:"series_count"`
	}
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(infos) != 2 || infos[0].SeriesCount != 6 {
		t.Fatalf("history = %+v, want 2 snapshots of 6 series", infos)
	}

	out, err = execute(t, "history", "S1", "--diff", "latest")
	if err != nil {
		t.Fatalf("history --diff latest error = %v", err)
	}
	if !strings.Contains(out, "no changes for S1") {
		t.Errorf("diff latest output = %q", out)
	}

	out, err = execute(t, "history", "S1", "--diff", infos[1].ID)
	if err != nil {
		t.Fatalf("history --diff <oldest> error = %v", err)
	}
	if !strings.Contains(out, "Added (6)") {
		t.Errorf("diff oldest output = %q", out)
	}

	if _, err := execute(t, "history", "S1", "--diff", "does-not-exist"); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("unknown snapshot error = %v, want ErrNotFound", err)
	}
}

func TestSeriesCommand(t *testing.T) {
	srv := newAPI(t, 12)
	setupEnv(t, srv)

	out, err := execute(t, "series", "S1", "3")
	if err != nil {
		t.Fatalf("series error = %v", err)
	}
	for _, want := range []string{"Details for: Series 3", "Series ID:    3", "Discontinued"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "series", "S1", "3", "--output", "yaml")
	if err != nil {
		t.Fatalf("series --output yaml error = %v", err)
	}
	if !strings.Contains(out, "name: Series 3") {
		t.Errorf("yaml output = %q", out)
	}

	_, err = execute(t, "series", "S1", "999")
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing series error = %v, want ErrNotFound", err)
	}
}

func TestManifestValidateCommand(t *testing.T) {
	testdata, err := filepath.Abs(filepath.Join("..", "..", "..", "internal", "manifest", "testdata", "requirements.txt"))
	if err != nil {
		t.Fatal(err)
	}
	dir := setupEnv(t, nil)

	out, err := execute(t, "manifest", "validate", testdata)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "is well-formed") || !strings.Contains(out, "downloads.ceicdata.com") {
		t.Errorf("output = %q", out)
	}

	bad := filepath.Join(dir, "requirements.txt")
	if err := os.WriteFile(bad, []byte("pandas>=2.0\nstreamlit==1.35.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = execute(t, "manifest", "validate")
	if !apperrors.Is(err, apperrors.ErrManifest) {
		t.Errorf("malformed manifest error = %v, want ErrManifest", err)
	}

	_, err = execute(t, "manifest", "validate", filepath.Join(dir, "missing.txt"))
	if err == nil {
		t.Error("expected an error for a missing manifest")
	}
}

func TestManifestValidateCommand_Require(t *testing.T) {
	testdata, err := filepath.Abs(filepath.Join("..", "..", "..", "internal", "manifest", "testdata", "requirements.txt"))
	if err != nil {
		t.Fatal(err)
	}
	setupEnv(t, nil)

	out, err := execute(t, "manifest", "validate", testdata, "--require", "CEIC-API-Client", "--require", "pandas")
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	for _, want := range []string{"ceic_api_client==2.8.5 (line 8)", "pandas==2.2.2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, err = execute(t, "manifest", "validate", testdata, "--require", "numpy,pandas,scipy")
	if !apperrors.Is(err, apperrors.ErrManifest) {
		t.Fatalf("missing requirement error = %v, want ErrManifest", err)
	}
	if !strings.Contains(err.Error(), "numpy, scipy") {
		t.Errorf("error = %q, want the missing packages", err.Error())
	}
}

func TestExitCode(t *testing.T) {
	dir := setupEnv(t, nil)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()

	tests := []struct {
		name string
		env  string
		args []string
		want int
	}{
		{"missing catalog", "", []string{"sources", "--file", filepath.Join(dir, "missing.json")}, 2},
		{"missing config file", "", []string{"sources", "--config", filepath.Join(dir, "missing.yaml")}, 2},
		{"invalid config value", "ftp://nowhere", []string{"sources"}, 2},
		{"unknown source", "", []string{"check", "NOPE"}, 1},
		{"network failure", closed.URL, []string{"check", "S1"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("SOURCECHECK_API_BASE_URL", tt.env)
			}
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := exitCode(err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", err, got, tt.want)
			}
		})
	}
}

func TestInitCommand(t *testing.T) {
	dir := setupEnv(t, nil)
	path := filepath.Join(dir, config.DefaultConfigPath)

	out, err := execute(t, "init")
	if err != nil {
		t.Fatalf("init error = %v", err)
	}
	if !strings.Contains(out, "Created") {
		t.Errorf("output = %q", out)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Explorer.WarnThreshold != config.DefaultWarnThreshold {
		t.Errorf("WarnThreshold = %d, want %d", cfg.Explorer.WarnThreshold, config.DefaultWarnThreshold)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "secret") {
		t.Error("credentials must not be written")
	}

	if _, err := execute(t, "init"); err == nil {
		t.Error("init over an existing config should fail without --force")
	}
	if _, err := execute(t, "init", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	setupEnv(t, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(version.Release{TagName: "v9.0.0", HTMLURL: "https://example.com/v9"})
	}))
	defer srv.Close()

	orig := newChecker
	newChecker = func() *version.Checker {
		return &version.Checker{HTTPClient: srv.Client(), APIBase: srv.URL, Repo: "test/repo"}
	}
	defer func() { newChecker = orig }()

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "sourcecheck "+Version) || strings.Contains(out, "Checking for updates") {
		t.Errorf("version output = %q", out)
	}

	out, err = execute(t, "version", "--check")
	if err != nil {
		t.Fatalf("version --check error = %v", err)
	}
	if !strings.Contains(out, "v9.0.0") || !strings.Contains(out, "https://example.com/v9") {
		t.Errorf("version --check output = %q", out)
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf, "S1")
	p.Report(4, 12)
	p.Report(4, 12)
	p.Report(12, 12)
	p.Finish()

	want := "\rLoading S1: 4/12 series\rLoading S1: 12/12 series\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("progress output mismatch (-want +got):\n%s", diff)
	}

	var nilPrinter *progressPrinter
	nilPrinter.Report(1, 2)
	nilPrinter.Finish()
}
