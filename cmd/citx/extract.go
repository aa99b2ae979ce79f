package main

import (
	"fmt"
	"os"

	"github.com/matsen/citextract/internal/extract"
	"github.com/matsen/citextract/internal/section"
	"github.com/matsen/citextract/internal/storage"
	"github.com/spf13/cobra"
)

var (
	extractSave  bool
	extractDebug bool
)

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "Save the result to the .citx store")
	extractCmd.Flags().BoolVar(&extractDebug, "debug", false, "Include the section split and per-character tags")
	extractCmd.Flags().Int("threshold", section.DefaultThreshold, "Minimum characters after a reference heading")
}

var extractCmd = &cobra.Command{
	Use:   "extract <file|->",
	Short: "Extract citations from a document",
	Long: `Extract citations from the reference section of a document.

The input may be a plain-text file, a PDF, or "-" for standard input.
A document without a reference section yields an empty citation list.

Examples:
  citx extract paper.pdf
  pdftotext paper.pdf - | citx extract -
  citx extract paper.txt --save --human`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// ExtractResult is the response for the extract command.
type ExtractResult struct {
	ID                  string            `json:"id,omitempty"`
	Source              string            `json:"source"`
	HasReferenceSection bool              `json:"has_reference_section"`
	Citations           []string          `json:"citations"`
	Updated             bool              `json:"updated,omitempty"`
	Debug               *extract.Analysis `json:"debug,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	source := args[0]

	var root string
	if extractSave {
		root = requireStore()
	}

	text, err := readInput(source, os.Stdin)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	e, err := newExtractor(current)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	rec, analysis, err := extractDocument(e, source, text, current.ModelPath)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	result := ExtractResult{
		Source:              source,
		HasReferenceSection: rec.HasReferenceSection,
		Citations:           rec.Citations,
	}
	if extractDebug {
		result.Debug = &analysis
	}

	if extractSave {
		saved := []storage.Extraction{rec}
		n, err := saveExtractions(root, saved)
		if err != nil {
			exitWithError(ExitError, "saving extraction: %v", err)
		}
		result.ID = saved[0].ID
		result.Updated = n > 0
	}

	if humanOutput {
		printExtractHuman(result)
	} else {
		outputJSON(result)
	}
	return nil
}

func printExtractHuman(r ExtractResult) {
	if !r.HasReferenceSection {
		outputHuman("%s: no reference section found\n", r.Source)
		return
	}
	outputHuman("%s: %d citation%s\n", r.Source, len(r.Citations), plural(len(r.Citations)))
	switch {
	case r.Updated:
		outputHuman("Replaced earlier extraction %s\n", r.ID)
	case r.ID != "":
		outputHuman("Saved as %s\n", r.ID)
	}
	for i, c := range r.Citations {
		fmt.Printf("%3d. %s\n", i+1, c)
	}
	if r.Debug != nil {
		fmt.Printf("\nSplit at rune %d after %d search%s\n", r.Debug.Split.SplitPoint,
			r.Debug.Split.Iterations, pluralES(r.Debug.Split.Iterations))
		fmt.Printf("Tags: %s\n", r.Debug.Tags)
	}
}
