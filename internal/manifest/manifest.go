// Package manifest parses and validates pinned dependency manifests in the
// requirements format: one name==version pin per line, optional package
// index directives, blank lines and # comments.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/logging"
)

// Requirement is one pinned package.
type Requirement struct {
	Name    string   `json:"name"             yaml:"name"`
	Extras  []string `json:"extras,omitempty" yaml:"extras,omitempty"`
	Version string   `json:"version"          yaml:"version"`
	Line    int      `json:"line"             yaml:"line"`
}

// NormalizedName returns the comparable form of the package name.
func (r Requirement) NormalizedName() string {
	return NormalizeName(r.Name)
}

// String renders the pin as it would appear in a manifest.
func (r Requirement) String() string {
	if len(r.Extras) > 0 {
		return fmt.Sprintf("%s[%s]==%s", r.Name, strings.Join(r.Extras, ","), r.Version)
	}
	return r.Name + "==" + r.Version
}

// Manifest is a parsed manifest.
type Manifest struct {
	IndexURL       string        `json:"index_url,omitempty"        yaml:"index_url,omitempty"`
	ExtraIndexURLs []string      `json:"extra_index_urls,omitempty" yaml:"extra_index_urls,omitempty"`
	Requirements   []Requirement `json:"requirements"               yaml:"requirements"`
}

// Lookup returns the requirement for name, compared in normalized form.
func (m *Manifest) Lookup(name string) (Requirement, bool) {
	n := NormalizeName(name)
	for _, r := range m.Requirements {
		if r.NormalizedName() == n {
			return r, true
		}
	}
	return Requirement{}, false
}

// LineError describes a malformed manifest line.
type LineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Errors collects every problem found in a manifest.
type Errors []*LineError

func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d manifest errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

var (
	pinPattern = regexp.MustCompile(
		`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)` + // name
			`(?:\[([^\]]*)\])?` + // extras
			`\s*==\s*` +
			`([A-Za-z0-9][A-Za-z0-9.*+!_-]*)$`) // version
	extraPattern   = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	separatorRun   = regexp.MustCompile(`[-_.]+`)
	otherOperators = []string{">=", "<=", "~=", "!=", "===", ">", "<"}
)

// NormalizeName lowercases name and collapses runs of "-", "_" and "." to "-".
func NormalizeName(name string) string {
	return separatorRun.ReplaceAllString(strings.ToLower(name), "-")
}

// Parse reads a manifest. It always returns the successfully parsed parts;
// the error, when non-nil, is an Errors listing every malformed line.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	var errs Errors
	indexLine := 0
	seen := make(map[string]int)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "-") {
			name, value, err := parseDirective(line)
			if err != "" {
				errs = append(errs, &LineError{Line: lineNo, Text: raw, Reason: err})
				continue
			}
			if reason := checkIndexURL(value); reason != "" {
				errs = append(errs, &LineError{Line: lineNo, Text: raw, Reason: reason})
				continue
			}
			switch name {
			case "index-url":
				if indexLine != 0 {
					errs = append(errs, &LineError{
						Line:   lineNo,
						Text:   raw,
						Reason: fmt.Sprintf("index URL already set on line %d", indexLine),
					})
					continue
				}
				m.IndexURL = value
				indexLine = lineNo
			case "extra-index-url":
				m.ExtraIndexURLs = append(m.ExtraIndexURLs, value)
			}
			continue
		}

		req, reason := parsePin(line)
		if reason != "" {
			errs = append(errs, &LineError{Line: lineNo, Text: raw, Reason: reason})
			continue
		}
		req.Line = lineNo

		key := req.NormalizedName()
		if first, dup := seen[key]; dup {
			errs = append(errs, &LineError{
				Line:   lineNo,
				Text:   raw,
				Reason: fmt.Sprintf("package %s already pinned on line %d", req.Name, first),
			})
			continue
		}
		seen[key] = lineNo
		m.Requirements = append(m.Requirements, req)
	}
	if err := scanner.Err(); err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}

	if len(errs) > 0 {
		return m, errs
	}
	return m, nil
}

// ParseFile parses the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrManifest, "cannot open manifest").WithDetails("path", path)
	}
	defer f.Close()
	return Parse(f)
}

// ValidateFile parses path and reports problems as a single ManifestInvalid
// error wrapping the line errors.
func ValidateFile(path string) (*Manifest, error) {
	m, err := ParseFile(path)
	if err == nil {
		logging.Info("manifest is well-formed", "path", path, "requirements", len(m.Requirements))
		return m, nil
	}

	var errs Errors
	if apperrors.As(err, &errs) {
		logging.Warn("manifest is malformed", "path", path, "problems", len(errs))
		return m, apperrors.ManifestInvalid(path, len(errs), errs)
	}
	return m, err
}

// stripComment removes a whole-line comment or a trailing comment that is
// preceded by whitespace.
func stripComment(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return ""
	}
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}

// parseDirective recognises --index-url/-i and --extra-index-url in both the
// "flag value" and "flag=value" forms. It returns the canonical directive
// name, its value, or a reason the line is malformed.
func parseDirective(line string) (name, value, reason string) {
	flag, rest, hasEq := strings.Cut(line, "=")
	if !hasEq || strings.ContainsAny(flag, " \t") {
		fields := strings.Fields(line)
		flag = fields[0]
		switch len(fields) {
		case 1:
			rest = ""
		case 2:
			rest = fields[1]
		default:
			return "", "", "directive takes exactly one value"
		}
	} else if strings.ContainsAny(strings.TrimSpace(rest), " \t") {
		return "", "", "directive takes exactly one value"
	}

	switch flag {
	case "--index-url", "-i":
		name = "index-url"
	case "--extra-index-url":
		name = "extra-index-url"
	default:
		return "", "", fmt.Sprintf("unsupported option %s", flag)
	}

	value = strings.TrimSpace(rest)
	if value == "" {
		return "", "", fmt.Sprintf("%s requires a URL", flag)
	}
	return name, value, ""
}

func checkIndexURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "index URL does not parse"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "index URL must use http or https"
	}
	if u.Host == "" {
		return "index URL must be absolute"
	}
	return ""
}

func parsePin(line string) (Requirement, string) {
	match := pinPattern.FindStringSubmatch(line)
	if match == nil {
		return Requirement{}, pinProblem(line)
	}

	req := Requirement{Name: match[1], Version: match[3]}
	if match[2] != "" || strings.Contains(line, "[]") {
		for _, extra := range strings.Split(match[2], ",") {
			extra = strings.TrimSpace(extra)
			if !extraPattern.MatchString(extra) {
				return Requirement{}, fmt.Sprintf("malformed extra %q", extra)
			}
			req.Extras = append(req.Extras, extra)
		}
	}
	return req, ""
}

func pinProblem(line string) string {
	if strings.Contains(line, ";") {
		return "environment markers are not allowed"
	}
	if !strings.Contains(line, "==") || strings.Contains(line, "===") {
		for _, op := range otherOperators {
			if strings.Contains(line, op) {
				return fmt.Sprintf("only exact == pins are allowed, found %s", op)
			}
		}
		return "missing ==version pin"
	}
	name, version, _ := strings.Cut(line, "==")
	if strings.TrimSpace(version) == "" {
		return "empty version"
	}
	if strings.ContainsAny(strings.TrimSpace(version), " \t,") || strings.Contains(version, "==") {
		return "version must be a single value"
	}
	if strings.TrimSpace(name) == "" {
		return "empty package name"
	}
	return "malformed package name or version"
}
