package main

import (
	"os"
	"unicode/utf8"

	"github.com/matsen/citextract/internal/section"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().Int("threshold", section.DefaultThreshold, "Minimum characters after a reference heading")
}

var splitCmd = &cobra.Command{
	Use:   "split <file|->",
	Short: "Locate the reference section without running the model",
	Long: `Locate the reference section of a document.

Reports whether a section was found, where it starts, and the text on
either side of the split. No model is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

// SplitResult is the response for the split command.
type SplitResult struct {
	Source string `json:"source"`
	section.Result
}

func runSplit(cmd *cobra.Command, args []string) error {
	text, err := readInput(args[0], os.Stdin)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	res := section.New(current.Threshold).Split(text)

	if humanOutput {
		if !res.HasSection {
			outputHuman("%s: no reference section found (%d search%s)\n", args[0], res.Iterations, pluralES(res.Iterations))
			return nil
		}
		outputHuman("%s: reference section at rune %d (%d search%s)\n", args[0], res.SplitPoint, res.Iterations, pluralES(res.Iterations))
		outputHuman("Body: %d runes, references: %d runes\n\n",
			utf8.RuneCountInString(res.Body), utf8.RuneCountInString(res.Reference))
		outputHuman("%s\n", res.Reference)
		return nil
	}

	outputJSON(SplitResult{Source: args[0], Result: res})
	return nil
}

// pluralES returns "es" unless n is 1.
func pluralES(n int) string {
	if n == 1 {
		return ""
	}
	return "es"
}
