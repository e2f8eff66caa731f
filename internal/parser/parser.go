// Package parser loads tabular files into datasets, choosing a loader by
// file extension.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

// Loader reads one family of tabular formats.
type Loader interface {
	CanLoad(filename string) bool
	Load(r io.Reader, name string, opt Options) (*dataset.Dataset, error)
}

// Options are passed through to the selected loader.
type Options struct {
	// CSV controls delimited-text ingestion and numeric inference for all
	// formats.
	CSV dataset.Options
	// SheetName selects a workbook sheet by name.
	SheetName string
	// SheetIndex selects a workbook sheet by 1-based position when SheetName
	// is empty; 0 means the first sheet.
	SheetIndex int
}

// DefaultOptions returns loader defaults.
func DefaultOptions() Options {
	return Options{CSV: dataset.DefaultOptions()}
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no loader handles a file name.
var ErrUnsupported = errors.New("unsupported file format")

// ParseFile opens path and loads it with the loader registered for its
// extension. The dataset is named after the file's base name.
func ParseFile(path string, opt Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Parse(filepath.Base(path), f, opt)
}

// Parse loads r using the loader registered for name's extension.
func Parse(name string, r io.Reader, opt Options) (*dataset.Dataset, error) {
	for _, l := range registry {
		if l.CanLoad(name) {
			return l.Load(r, name, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
}

// Supported reports whether some loader handles name.
func Supported(name string) bool {
	for _, l := range registry {
		if l.CanLoad(name) {
			return true
		}
	}
	return false
}

// Extensions lists the accepted file extensions, e.g. for an upload form.
func Extensions() []string {
	return []string{".csv", ".tsv", ".txt", ".xlsx"}
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
