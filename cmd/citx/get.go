package main

import (
	"fmt"
	"strings"

	"github.com/matsen/citextract/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a saved extraction by ID",
	Long: `Get a single saved extraction, with all of its citations, by ID.

Example:
  citx get 01J9ZK6W8Q3V5T2XGQ7N4B1M0C`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	root := requireStore()

	id := args[0]
	e, err := lookupExtraction(root, id)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if e == nil {
		exitWithError(ExitError, "extraction not found: %s", id)
	}

	if humanOutput {
		printExtractionDetail(*e)
	} else {
		outputJSON(e)
	}
	return nil
}

func printExtractionDetail(e storage.Extraction) {
	fmt.Println(e.ID)
	fmt.Println(strings.Repeat("═", 70))
	fmt.Println()

	fmt.Printf("Source:     %s\n", e.Source)
	fmt.Printf("Extracted:  %s\n", e.ExtractedAt.Local().Format("2006-01-02 15:04:05"))
	if e.Model != "" {
		fmt.Printf("Model:      %s\n", e.Model)
	}
	fmt.Printf("SHA-256:    %s\n", e.SHA256)

	if !e.HasReferenceSection {
		fmt.Println()
		fmt.Println("No reference section found.")
		return
	}

	fmt.Println()
	fmt.Printf("Citations (%d, from %d characters):\n", len(e.Citations), e.ReferenceLength)
	for i, c := range e.Citations {
		fmt.Printf("  [%d] %s\n", i+1, lineBreaks.Replace(c))
	}
}
