package cmd

import (
	"os"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm2sql-go/internal/config"
	"github.com/wegman-software/osm2sql-go/internal/logger"
)

var (
	cfg        = config.DefaultConfig()
	configFile string
)

// configFlags are the persistent flags mirrored in the YAML config. When set
// on the command line they win over the file.
var configFlags = []string{
	"backend", "db-path", "db-host", "db-port", "db-name", "db-user",
	"db-password", "db-schema", "max-params", "max-rows", "workers",
	"verbose", "log-file", "metrics-interval",
}

var rootCmd = &cobra.Command{
	Use:   "osm2sql-go",
	Short: "Load OSM data into a relational database and read it back",
	Long: `osm2sql-go parses OSM XML or PBF files and loads nodes, ways and
relations with their tags, node references and members into SQLite or
PostgreSQL.

Inserts are batched so that no statement exceeds the bind parameter limit of
the backend, and loading the same file twice leaves the tables unchanged.
Stored entities can be exported again as OSM XML or GeoJSON, or verified
against the source file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := applyConfigFile(cmd); err != nil {
			logger.Init(logger.Options{})
			exitWithError("failed to load config", err)
		}

		logger.Init(logger.Options{
			Debug:   cfg.Verbose,
			LogFile: cfg.LogFile,
		})
	},
}

func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (flags override its values)")

	// Store selection
	rootCmd.PersistentFlags().StringVar(&cfg.Backend, "backend", cfg.Backend, "Store backend: sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database file")

	// Database flags (persistent so they're available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "PostgreSQL host")
	rootCmd.PersistentFlags().IntVar(&cfg.DBPort, "db-port", cfg.DBPort, "PostgreSQL port")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBName, "db-name", "d", cfg.DBName, "PostgreSQL database name")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBUser, "db-user", "U", cfg.DBUser, "PostgreSQL user")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBPassword, "db-password", "W", cfg.DBPassword, "PostgreSQL password")
	rootCmd.PersistentFlags().StringVar(&cfg.DBSchema, "db-schema", cfg.DBSchema, "PostgreSQL schema")

	// Loader flags
	rootCmd.PersistentFlags().IntVar(&cfg.MaxParams, "max-params", cfg.MaxParams, "Bind parameters per statement (0 = backend limit)")
	rootCmd.PersistentFlags().IntVar(&cfg.MaxRows, "max-rows", cfg.MaxRows, "Maximum rows per INSERT statement")
	rootCmd.PersistentFlags().IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of PBF decoder goroutines")

	// Logging and metrics flags
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Path to log file for persistent logging (JSON format)")
	rootCmd.PersistentFlags().DurationVar(&cfg.MetricsInterval, "metrics-interval", cfg.MetricsInterval, "Interval for system metrics logging (e.g., 10s, 1m)")
}

// applyConfigFile loads --config into cfg and re-applies the flags given on
// the command line.
func applyConfigFile(cmd *cobra.Command) error {
	if configFile == "" {
		return nil
	}

	flags := cmd.Flags()
	changed := make(map[string]string)
	for _, name := range configFlags {
		if flags.Changed(name) {
			changed[name] = flags.Lookup(name).Value.String()
		}
	}

	loaded, err := config.LoadFile(configFile)
	if err != nil {
		return err
	}
	*cfg = *loaded

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	logger.Sync()
	os.Exit(1)
}
