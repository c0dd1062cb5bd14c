// Package parser turns OSM documents (XML, compressed XML or PBF) into
// element collections.
package parser

import (
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

// Format is an input file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatXMLGzip
	FormatXMLBzip2
	FormatPBF
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatXMLGzip:
		return "xml+gzip"
	case FormatXMLBzip2:
		return "xml+bzip2"
	case FormatPBF:
		return "pbf"
	default:
		return "unknown"
	}
}

// DetectFormat picks the format from the file name.
func DetectFormat(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".pbf"):
		return FormatPBF
	case strings.HasSuffix(name, ".osm.gz"), strings.HasSuffix(name, ".xml.gz"):
		return FormatXMLGzip
	case strings.HasSuffix(name, ".osm.bz2"), strings.HasSuffix(name, ".xml.bz2"):
		return FormatXMLBzip2
	case strings.HasSuffix(name, ".osm"), strings.HasSuffix(name, ".xml"):
		return FormatXML
	}
	return FormatUnknown
}

// ParseFile opens path and parses it according to its extension. procs is
// the number of PBF decoder goroutines; values below 1 use every CPU.
func ParseFile(ctx context.Context, path string, procs int) (*element.Collection, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unsupported input file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	switch format {
	case FormatPBF:
		if procs < 1 {
			procs = runtime.NumCPU()
		}
		return ParsePBF(ctx, reader, procs)
	case FormatXMLGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case FormatXMLBzip2:
		reader = bzip2.NewReader(f)
	}

	return ParseXML(ctx, reader)
}

// ListCandidateFiles returns the regular files in dir that ParseFile can
// read, sorted by name.
func ListCandidateFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if DetectFormat(entry.Name()) == FormatUnknown {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
