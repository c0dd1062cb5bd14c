package cmd

import (
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm2sql-go/internal/logger"
	"github.com/wegman-software/osm2sql-go/internal/store"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create or drop the OSM tables",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the OSM tables and indexes if they do not exist",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := commandContext()
		defer stop()

		s := openStore(ctx)
		defer s.Close()

		if err := s.CreateSchema(ctx); err != nil {
			exitWithError("failed to create schema", err)
		}
		logger.Get().Info("Schema created", zap.Strings("tables", store.TableNames()))
	},
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the OSM tables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := commandContext()
		defer stop()

		s := openStore(ctx)
		defer s.Close()

		if err := s.DropSchema(ctx); err != nil {
			exitWithError("failed to drop schema", err)
		}
		logger.Get().Info("Schema dropped", zap.Strings("tables", store.TableNames()))
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaCreateCmd)
	schemaCmd.AddCommand(schemaDropCmd)
}
