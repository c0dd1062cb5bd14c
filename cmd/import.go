package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm2sql-go/internal/logger"
	"github.com/wegman-software/osm2sql-go/internal/metrics"
	"github.com/wegman-software/osm2sql-go/internal/pipeline"
)

var dropExisting bool

var importCmd = &cobra.Command{
	Use:   "import <input.osm|input.osm.gz|input.osm.bz2|input.osm.pbf>",
	Short: "Parse an OSM file and load it into the store",
	Long: `Parse an OSM file and load its nodes, ways and relations into the store:

  1. Parse the whole file into memory (XML, gzip/bzip2 XML or PBF)
  2. Create the tables if they do not exist
  3. Insert parents first, then tags, node references and members, in
     chunks that stay under the bind parameter limit of the backend

Rows that already exist are skipped, so importing the same file again is a
no-op. System metrics are logged every --metrics-interval while loading.`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&dropExisting, "drop-existing", false, "Drop existing tables before loading")
}

func runImport(cmd *cobra.Command, args []string) {
	input := args[0]
	log := logger.Get()

	ctx, stop := commandContext()
	defer stop()

	s := openStore(ctx)
	defer s.Close()

	log.Info("Starting osm2sql-go import",
		zap.String("input", input),
		zap.String("backend", cfg.Backend),
		zap.Int("max_params", s.Dialect().MaxParams),
		zap.Int("max_rows", cfg.MaxRows),
		zap.Int("workers", cfg.Workers),
		zap.Bool("drop_existing", dropExisting))

	totalStart := time.Now()

	importer := pipeline.NewImporter(s, dropExisting)
	importer.Workers = cfg.Workers
	collector := metrics.NewCollector(cfg.MetricsInterval, log, s)

	g, gctx := errgroup.WithContext(ctx)
	importCtx, cancelMetrics := context.WithCancel(gctx)
	defer cancelMetrics()

	var stats *pipeline.ImportStats
	g.Go(func() error {
		return collector.Start(importCtx)
	})
	g.Go(func() error {
		defer cancelMetrics()
		var err error
		stats, err = importer.Run(importCtx, input)
		return err
	})

	if err := g.Wait(); err != nil {
		exitWithError("import failed", err)
	}

	log.Info("Done",
		zap.String("input", stats.File),
		zap.Int("nodes", stats.Nodes),
		zap.Int("ways", stats.Ways),
		zap.Int("relations", stats.Relations),
		zap.Duration("total_time", time.Since(totalStart).Round(time.Millisecond)))
}
