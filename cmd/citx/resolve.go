package main

import (
	"os"

	"github.com/matsen/citextract/internal/config"
	"github.com/matsen/citextract/internal/conflict"
	"github.com/matsen/citextract/internal/storage"
	"github.com/spf13/cobra"
)

var resolveDryRun bool

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "Show the resolution without writing")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve git merge conflicts in extractions.jsonl",
	Long: `Resolve git merge conflicts in .citx/extractions.jsonl.

Extractions appended on both branches are all kept. A record that appears
on both sides (same id, or same document with the same citations) is kept
once, preferring the newer extraction. The query database is rebuilt
afterwards.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

// ResolveResult is the response for the resolve command.
type ResolveResult struct {
	Status      string              `json:"status"`
	Conflicts   int                 `json:"conflicts"`
	Extractions int                 `json:"extractions"`
	Decisions   []conflict.Decision `json:"decisions"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	root := requireStore()
	path := config.ExtractionsPath(root)

	f, err := os.Open(path)
	if err != nil {
		exitWithError(ExitDataError, "opening extractions file: %v", err)
	}
	parsed, err := conflict.Parse(f)
	f.Close()
	if err != nil {
		exitWithError(ExitDataError, "parsing %s: %v", path, err)
	}

	if !parsed.HasConflicts() {
		if humanOutput {
			outputHuman("No conflicts in %s\n", path)
		} else {
			outputJSON(ResolveResult{Status: "clean", Decisions: []conflict.Decision{}})
		}
		return nil
	}

	exts, decisions := conflict.Resolve(parsed)
	result := ResolveResult{
		Status:      "resolved",
		Conflicts:   len(parsed.Regions()),
		Extractions: len(exts),
		Decisions:   decisions,
	}

	if resolveDryRun {
		result.Status = "dry_run"
	} else {
		if err := storage.WriteAll(path, exts); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		db, err := openStoreDB(root)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		defer db.Close()
		if _, err := db.RebuildFromJSONL(path); err != nil {
			exitWithError(ExitDataError, "rebuilding database: %v", err)
		}
	}

	if humanOutput {
		for _, d := range decisions {
			outputHuman("%-12s %s  %s (%s)\n", d.Action, d.ID, truncateString(d.Source, SourceMaxLen), d.Reason)
		}
		verb := "Resolved"
		if resolveDryRun {
			verb = "Would resolve"
		}
		outputHuman("%s %d conflict%s, %d extraction%s\n", verb, result.Conflicts, plural(result.Conflicts),
			result.Extractions, plural(result.Extractions))
		return nil
	}

	outputJSON(result)
	return nil
}
