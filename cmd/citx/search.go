package main

import (
	"strings"

	"github.com/matsen/citextract/internal/storage"
	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", DefaultListLimit, "Maximum number of results")
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over saved citations",
	Long: `Search the text of saved citations.

Plain words are matched as terms (all must appear); queries containing
punctuation are matched as a phrase.

Examples:
  citx search felsenstein
  citx search "Syst Biol" -n 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	root := requireStore()
	query := strings.Join(args, " ")

	db, err := openStoreDB(root)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	hits, err := db.Search(query, searchLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if hits == nil {
		hits = []storage.CitationHit{}
	}

	if humanOutput {
		if len(hits) == 0 {
			outputHuman("No citations match %q\n", query)
			return nil
		}
		for i, h := range hits {
			outputHuman("%d. %s\n", i+1, truncateString(h.Text, CitationMaxLen))
			outputHuman("   %s #%d (%s)\n", truncateString(h.Source, SourceMaxLen), h.Position+1, h.ExtractionID)
		}
		return nil
	}

	outputJSON(hits)
	return nil
}
