// Package version reports build information and checks for newer releases.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Repo is the repository releases are published under.
const Repo = "wexinc/sourcecheck"

// DefaultAPIBase is the GitHub API root used for release lookups.
const DefaultAPIBase = "https://api.github.com"

// Info contains build information about the binary.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	GoVer   string `json:"go_version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// NewInfo creates an Info from the ldflags build variables.
func NewInfo(version, commit, date string) *Info {
	return &Info{
		Version: version,
		Commit:  commit,
		Date:    date,
		GoVer:   runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// String returns the one-line version string.
func (i *Info) String() string {
	return fmt.Sprintf("sourcecheck %s (commit: %s, built: %s)", i.Version, i.Commit, i.Date)
}

// FullString returns the multi-line version report.
func (i *Info) FullString() string {
	return fmt.Sprintf(`sourcecheck %s
  Commit:   %s
  Built:    %s
  Go:       %s
  OS/Arch:  %s/%s`, i.Version, i.Commit, i.Date, i.GoVer, i.OS, i.Arch)
}

// Release is the subset of a GitHub release we read.
type Release struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	PublishedAt string `json:"published_at"`
	HTMLURL     string `json:"html_url"`
}

// Checker looks up the latest published release.
type Checker struct {
	HTTPClient *http.Client
	APIBase    string
	Repo       string
}

// NewChecker creates a checker against the public GitHub API.
func NewChecker() *Checker {
	return &Checker{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		APIBase:    DefaultAPIBase,
		Repo:       Repo,
	}
}

// LatestRelease fetches the latest release.
func (c *Checker) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimSuffix(c.APIBase, "/"), c.Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "sourcecheck-version-checker")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("release lookup returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	return &release, nil
}

// CheckForUpdate returns the latest release when it is newer than current,
// and nil when current is up to date.
func (c *Checker) CheckForUpdate(ctx context.Context, current string) (*Release, error) {
	release, err := c.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}
	if CompareVersions(release.TagName, current) > 0 {
		return release, nil
	}
	return nil, nil
}

// CompareVersions compares two semantic versions, ignoring a leading "v"
// and any pre-release suffix. It returns 1, 0 or -1.
func CompareVersions(a, b string) int {
	av, bv := parseVersion(a), parseVersion(b)
	for i := range av {
		switch {
		case av[i] > bv[i]:
			return 1
		case av[i] < bv[i]:
			return -1
		}
	}
	return 0
}

// IsDevBuild reports whether v is an unreleased local build.
func IsDevBuild(v string) bool {
	return v == "" || v == "dev" || parseVersion(v) == [3]int{}
}

func parseVersion(v string) [3]int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	parts := strings.Split(v, ".")
	var result [3]int
	for i := 0; i < 3 && i < len(parts); i++ {
		part, _, _ := strings.Cut(parts[i], "-")
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		result[i] = n
	}
	return result
}
