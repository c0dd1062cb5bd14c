package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm2sql-go/internal/logger"
	"github.com/wegman-software/osm2sql-go/internal/pipeline"
	"github.com/wegman-software/osm2sql-go/internal/style"
)

var (
	exportFormat string
	exportOutput string
	styleFile    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored entities as OSM XML or GeoJSON",
	Long: `Read every stored node, way and relation with its tags, node references
and members, and write them out.

  --format osm      OSM XML document that can be imported again
  --format geojson  FeatureCollection of tagged nodes and ways; a style file
                    (--style) restricts the features per geometry type`,
	Args: cobra.NoArgs,
	Run:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "osm", "Output format: osm or geojson")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringVarP(&styleFile, "style", "S", "", "Style YAML file for GeoJSON tag filtering")
}

func runExport(cmd *cobra.Command, args []string) {
	log := logger.Get()

	if exportFormat != "osm" && exportFormat != "geojson" {
		exitWithError("invalid export format", fmt.Errorf("unknown format %q (want osm or geojson)", exportFormat))
	}
	if styleFile == "" {
		styleFile = cfg.StyleFile
	}

	var filter *style.Filter
	if styleFile != "" {
		styleCfg, err := style.LoadConfig(styleFile)
		if err != nil {
			exitWithError("failed to load style", err)
		}
		filter = style.NewFilter(styleCfg)
		log.Info("Using style", zap.String("style", styleFile))
	}

	ctx, stop := commandContext()
	defer stop()

	s := openStore(ctx)
	defer s.Close()

	var out io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			exitWithError("failed to create output file", err)
		}
		defer f.Close()
		out = f
	}
	bw := bufio.NewWriter(out)

	exporter := pipeline.NewExporter(s)
	var err error
	switch exportFormat {
	case "osm":
		_, err = exporter.WriteOSM(ctx, bw)
	case "geojson":
		_, err = exporter.WriteGeoJSON(ctx, bw, filter)
	}
	if err != nil {
		exitWithError("export failed", err)
	}
	if err := bw.Flush(); err != nil {
		exitWithError("failed to write output", err)
	}
}
