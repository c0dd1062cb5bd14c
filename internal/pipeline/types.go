package pipeline

import (
	"time"

	"github.com/wegman-software/osm2sql-go/internal/store"
)

// ImportStats summarizes one import run.
type ImportStats struct {
	File      string
	Format    string
	Bytes     int64
	Nodes     int
	Ways      int
	Relations int

	ParseDuration time.Duration
	LoadDuration  time.Duration

	// Per-table loader counters, in schema order.
	Tables []store.TableStats
}

// Rows returns the rows bound over all tables.
func (s *ImportStats) Rows() int64 {
	var n int64
	for _, t := range s.Tables {
		n += t.Rows
	}
	return n
}

// Statements returns the insert statements issued over all tables.
func (s *ImportStats) Statements() int64 {
	var n int64
	for _, t := range s.Tables {
		n += t.Statements
	}
	return n
}

// ExportStats summarizes one export.
type ExportStats struct {
	Format    string
	Nodes     int
	Ways      int
	Relations int
	Features  int // GeoJSON only
	Skipped   int // GeoJSON features dropped by the style
	Duration  time.Duration
}

// VerifyReport is the result of comparing a file against the store.
type VerifyReport struct {
	File        string
	Nodes       int
	Ways        int
	Relations   int
	Differences []string
}

// OK reports whether the store matches the file.
func (r *VerifyReport) OK() bool {
	return len(r.Differences) == 0
}
