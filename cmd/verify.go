package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm2sql-go/internal/logger"
	"github.com/wegman-software/osm2sql-go/internal/pipeline"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <input-file>",
	Short: "Compare an OSM file with the stored entities",
	Long: `Parse an OSM file, fetch every stored entity and report each entity that
is missing, unexpected or different. Exits with status 1 on any difference.`,
	Args: cobra.ExactArgs(1),
	Run:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) {
	log := logger.Get()

	ctx, stop := commandContext()
	defer stop()

	s := openStore(ctx)
	defer s.Close()

	report, err := pipeline.Verify(ctx, s, args[0])
	if err != nil {
		exitWithError("verify failed", err)
	}

	if !report.OK() {
		exitWithError("store does not match input",
			fmt.Errorf("%d differences", len(report.Differences)))
	}

	log.Info("Store matches input",
		zap.String("file", report.File),
		zap.Int("nodes", report.Nodes),
		zap.Int("ways", report.Ways),
		zap.Int("relations", report.Relations))
}
