// Package errors provides error types for sourcecheck.
// This file contains sources catalog and manifest errors.
package errors

import "fmt"

// SourcesFileNotFound creates an error for a missing sources catalog.
func SourcesFileNotFound(path string, cause error) *AppError {
	return &AppError{
		Kind:    ErrSource,
		Message: fmt.Sprintf("the source definition file %q was not found", path),
		Cause:   cause,
		Details: map[string]string{
			"path": path,
		},
		Suggestion: `Create the catalog or point to an existing one:
  sourcecheck --sources /path/to/sources.json

The file must look like:
  {"data": [{"id": "1234", "name": "Source name"}]}`,
	}
}

// SourcesFileInvalid creates an error for a catalog that is not valid JSON.
func SourcesFileInvalid(path string, cause error) *AppError {
	return &AppError{
		Kind:    ErrSource,
		Message: fmt.Sprintf("could not decode JSON from %q", path),
		Cause:   cause,
		Details: map[string]string{
			"path": path,
		},
		Suggestion: "Please check its format.",
	}
}

// SourceNotFound creates an error for an ID or name missing from the catalog.
func SourceNotFound(ref string) *AppError {
	return &AppError{
		Kind:       ErrNotFound,
		Message:    fmt.Sprintf("source %q is not in the catalog", ref),
		Suggestion: "List the known sources with: sourcecheck sources",
	}
}

// SeriesNotFound creates an error for a series ID missing from a loaded source.
func SeriesNotFound(seriesID, sourceID string) *AppError {
	return &AppError{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("series %q not found in source %q", seriesID, sourceID),
		Details: map[string]string{
			"series": seriesID,
			"source": sourceID,
		},
	}
}

// ManifestInvalid creates an error summarizing manifest problems.
func ManifestInvalid(path string, problems int, cause error) *AppError {
	return &AppError{
		Kind:    ErrManifest,
		Message: fmt.Sprintf("%s is not a well-formed manifest (%d problem(s))", path, problems),
		Cause:   cause,
		Details: map[string]string{
			"path": path,
		},
		Suggestion: "Every non-comment line must be a pin such as streamlit==1.35.0 or an --index-url directive.",
	}
}
