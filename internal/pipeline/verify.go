package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wegman-software/osm2sql-go/internal/element"
	"github.com/wegman-software/osm2sql-go/internal/logger"
	"github.com/wegman-software/osm2sql-go/internal/parser"
	"github.com/wegman-software/osm2sql-go/internal/store"
)

// maxLoggedDifferences bounds the differences written to the log.
const maxLoggedDifferences = 20

// Verify parses path and compares it with the entities stored in s.
func Verify(ctx context.Context, s *store.Store, path string) (*VerifyReport, error) {
	log := logger.Get()

	want, err := parser.ParseFile(ctx, path, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	got, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{File: path, Differences: element.Compare(want, got)}
	report.Nodes, report.Ways, report.Relations = want.Counts()

	for i, d := range report.Differences {
		if i == maxLoggedDifferences {
			log.Warn("More differences omitted", zap.Int("remaining", len(report.Differences)-i))
			break
		}
		log.Warn("Difference", zap.String("detail", d))
	}
	log.Info("Verification complete",
		zap.String("file", path),
		zap.Int("nodes", report.Nodes),
		zap.Int("ways", report.Ways),
		zap.Int("relations", report.Relations),
		zap.Int("differences", len(report.Differences)))

	return report, nil
}
