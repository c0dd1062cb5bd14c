package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wegman-software/osm2sql-go/internal/logger"
	"github.com/wegman-software/osm2sql-go/internal/parser"
	"github.com/wegman-software/osm2sql-go/internal/store"
)

// Importer parses an OSM file and loads it into a store.
type Importer struct {
	store        *store.Store
	dropExisting bool

	// Workers is the number of PBF decoder goroutines. Zero uses every CPU.
	Workers int
}

// NewImporter creates an importer writing to s. With dropExisting the
// tables are dropped and recreated before loading.
func NewImporter(s *store.Store, dropExisting bool) *Importer {
	return &Importer{store: s, dropExisting: dropExisting}
}

// Run imports path. Rows already present are left untouched, so running
// the same file twice is harmless.
func (im *Importer) Run(ctx context.Context, path string) (*ImportStats, error) {
	log := logger.Get()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input file: %w", err)
	}
	stats := &ImportStats{
		File:   path,
		Format: parser.DetectFormat(path).String(),
		Bytes:  info.Size(),
	}

	log.Info("Parsing input",
		zap.String("file", path),
		zap.String("format", stats.Format),
		zap.String("size", FormatBytes(stats.Bytes)))

	start := time.Now()
	c, err := parser.ParseFile(ctx, path, im.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	stats.ParseDuration = time.Since(start)
	stats.Nodes, stats.Ways, stats.Relations = c.Counts()

	log.Info("Parse complete",
		zap.Int("nodes", stats.Nodes),
		zap.Int("ways", stats.Ways),
		zap.Int("relations", stats.Relations),
		zap.String("duration", FormatDuration(stats.ParseDuration)))

	if im.dropExisting {
		if err := im.store.DropSchema(ctx); err != nil {
			return nil, err
		}
	}
	if err := im.store.CreateSchema(ctx); err != nil {
		return nil, err
	}

	start = time.Now()
	if err := im.store.Load(ctx, c); err != nil {
		return nil, err
	}
	stats.LoadDuration = time.Since(start)
	stats.Tables = im.store.Stats()

	for _, t := range stats.Tables {
		if t.Statements == 0 {
			continue
		}
		log.Info("Table loaded",
			zap.String("table", t.Table),
			zap.Int64("rows", t.Rows),
			zap.Int64("statements", t.Statements))
	}

	log.Info("Import complete",
		zap.Int64("rows", stats.Rows()),
		zap.Int64("statements", stats.Statements()),
		zap.String("duration", FormatDuration(stats.LoadDuration)),
		zap.String("throughput", FormatThroughput(Throughput(stats.Rows(), stats.LoadDuration))))

	return stats, nil
}
