// Package source loads the catalog of CEIC data sources from sources.json.
package source

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"

	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/logging"
)

// Source is a data publisher known to CEIC.
type Source struct {
	ID   string `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// catalogFile is the on-disk layout of sources.json.
type catalogFile struct {
	Data []Source `json:"data"`
}

// Catalog is an ordered list of sources.
type Catalog struct {
	path    string
	sources []Source
}

// NewCatalog builds a catalog from sources, keeping their order.
func NewCatalog(sources []Source) *Catalog {
	return &Catalog{sources: append([]Source(nil), sources...)}
}

// LoadCatalog reads the catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Error("sources file not found", "path", path)
			return nil, apperrors.SourcesFileNotFound(path, err)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrSource, "failed to read "+path)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		logging.Error("sources file is not valid JSON", "path", path, "error", err)
		return nil, apperrors.SourcesFileInvalid(path, err)
	}

	logging.Info("loaded sources", "path", path, "count", len(file.Data))
	return &Catalog{path: path, sources: file.Data}, nil
}

// Path returns the file the catalog was loaded from, if any.
func (c *Catalog) Path() string {
	return c.path
}

// Len returns the number of sources.
func (c *Catalog) Len() int {
	return len(c.sources)
}

// All returns a copy of the sources in file order.
func (c *Catalog) All() []Source {
	return append([]Source(nil), c.sources...)
}

// Names returns the source names in file order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name
	}
	return names
}

// ByName returns the first source with the given name.
func (c *Catalog) ByName(name string) (Source, bool) {
	for _, s := range c.sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// ByID returns the source with the given ID.
func (c *Catalog) ByID(id string) (Source, bool) {
	for _, s := range c.sources {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

// Resolve finds a source by ID, then by exact name, then by
// case-insensitive name.
func (c *Catalog) Resolve(ref string) (Source, error) {
	if s, ok := c.ByID(ref); ok {
		return s, nil
	}
	if s, ok := c.ByName(ref); ok {
		return s, nil
	}
	for _, s := range c.sources {
		if strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}
	return Source{}, apperrors.SourceNotFound(ref)
}
