package main

import (
	"github.com/matsen/citextract/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a citx store",
	Long: `Initialize a citx store in the current directory (or CITX_ROOT).

Creates:
  .citx/
  ├── extractions.jsonl   # Saved extractions, one JSON object per line
  └── cache/              # SQLite query database (rebuildable, gitignore it)`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := workingRoot()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if config.IsStore(root) {
		exitWithError(ExitError, "directory already contains a citx store")
	}

	if err := config.InitStore(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Initialized citx store in %s\n", root)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}
	return nil
}
