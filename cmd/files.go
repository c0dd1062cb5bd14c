package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm2sql-go/internal/parser"
)

var filesCmd = &cobra.Command{
	Use:   "files [dir]",
	Short: "List the input files in a data directory",
	Long: `List the OSM input files of a directory, sorted by name, with the input
format detected from each extension. Defaults to the configured data_dir.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runFiles,
}

func init() {
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) {
	dir := cfg.DataDir
	if len(args) == 1 {
		dir = args[0]
	}

	files, err := parser.ListCandidateFiles(dir)
	if err != nil {
		exitWithError("failed to list files", err)
	}
	for _, f := range files {
		fmt.Fprintf(os.Stdout, "%-10s %s\n", parser.DetectFormat(f), f)
	}
}
