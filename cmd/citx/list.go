package main

import (
	"time"

	"github.com/spf13/cobra"
)

var listLimit int

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", DefaultListLimit, "Maximum number of extractions (0 for all)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved extractions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// ListItem summarizes one saved extraction.
type ListItem struct {
	ID                  string    `json:"id"`
	Source              string    `json:"source"`
	ExtractedAt         time.Time `json:"extracted_at"`
	HasReferenceSection bool      `json:"has_reference_section"`
	Citations           int       `json:"citations"`
}

func runList(cmd *cobra.Command, args []string) error {
	root := requireStore()

	db, err := openStoreDB(root)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	exts, err := db.ListAll(listLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	items := make([]ListItem, 0, len(exts))
	for _, e := range exts {
		items = append(items, ListItem{
			ID:                  e.ID,
			Source:              e.Source,
			ExtractedAt:         e.ExtractedAt,
			HasReferenceSection: e.HasReferenceSection,
			Citations:           len(e.Citations),
		})
	}

	if humanOutput {
		if len(items) == 0 {
			outputHuman("No saved extractions\n")
			return nil
		}
		for _, it := range items {
			outputHuman("%s  %s  %4d  %s\n", it.ID, it.ExtractedAt.Local().Format("2006-01-02 15:04"),
				it.Citations, truncateString(it.Source, SourceMaxLen))
		}
		return nil
	}

	outputJSON(items)
	return nil
}
