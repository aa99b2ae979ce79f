package main

import (
	"github.com/matsen/citextract/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from source data",
	Long: `Rebuild the SQLite query database from the JSONL source file.

Use this after pulling changes from git or if the database becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status      string `json:"status"`
	Extractions int    `json:"extractions"`
	Citations   int    `json:"citations"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := requireStore()

	db, err := openStoreDB(root)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	if _, err := db.RebuildFromJSONL(config.ExtractionsPath(root)); err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v", err)
	}

	n, c, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting rows: %v", err)
	}

	if humanOutput {
		outputHuman("Rebuilt query database with %d extraction%s and %d citation%s\n", n, plural(n), c, plural(c))
	} else {
		outputJSON(RebuildResult{
			Status:      "rebuilt",
			Extractions: n,
			Citations:   c,
		})
	}
	return nil
}
