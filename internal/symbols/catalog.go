// ABOUTME: Immutable catalog of symbolic icon names loaded from a TOML file
// ABOUTME: Missing or malformed files produce the degraded empty catalog

package symbols

import (
	"errors"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/BurntSushi/toml"
)

// Catalog maps symbolic icon names to their presentation class.
// A Catalog is never modified after construction.
type Catalog struct {
	entries map[string]string
}

// file is the on-disk TOML layout:
//
//	[symbols]
//	build = "ionicon-build"
type file struct {
	Symbols map[string]string `toml:"symbols"`
}

// Empty returns the degraded catalog that knows no names.
func Empty() *Catalog {
	return &Catalog{entries: map[string]string{}}
}

// New builds a catalog from the given entries. The map is copied.
func New(entries map[string]string) *Catalog {
	c := &Catalog{entries: make(map[string]string, len(entries))}
	for name, class := range entries {
		if name == "" {
			continue
		}
		c.entries[name] = class
	}
	return c
}

// Load reads a catalog from path. An empty path, a missing file, or a file that
// fails to decode all yield the empty catalog; only the latter is logged as a warning.
func Load(path string, logger *slog.Logger) *Catalog {
	if path == "" {
		return Empty()
	}

	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("symbol catalog not found, symbol names are not validated", "path", path)
		} else {
			logger.Warn("failed to load symbol catalog, symbol names are not validated", "path", path, "error", err)
		}
		return Empty()
	}

	c := New(f.Symbols)
	logger.Info("symbol catalog loaded", "path", path, "symbols", c.Len())
	return c
}

// Lookup returns the presentation class for name.
func (c *Catalog) Lookup(name string) (string, bool) {
	class, ok := c.entries[name]
	return class, ok
}

// Len returns the number of known names.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Degraded reports whether the catalog is empty, in which case names cannot be validated.
func (c *Catalog) Degraded() bool {
	return len(c.entries) == 0
}

// Names returns all known names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
