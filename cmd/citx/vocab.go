package main

import (
	"strconv"

	"github.com/matsen/citextract/internal/vocab"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(vocabCmd)
}

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Print the character vocabulary",
	Long: `Print every model input id with its character class and the
characters folded into it. Ids 0-3 are reserved.`,
	Args: cobra.NoArgs,
	RunE: runVocab,
}

// VocabEntry is one row of the vocab command output.
type VocabEntry struct {
	ID      int    `json:"id"`
	Class   string `json:"class"`
	Members string `json:"members,omitempty"`
}

var reservedNames = map[int]string{
	vocab.PadID:     "<pad>",
	vocab.UnknownID: "<unk>",
	vocab.StartID:   "<start>",
	vocab.EndID:     "<end>",
}

// vocabEntries lists the reserved ids followed by every class in id order.
func vocabEntries(v *vocab.Vocabulary) []VocabEntry {
	entries := make([]VocabEntry, 0, v.Size())
	for id := 0; id < vocab.NumReserved; id++ {
		entries = append(entries, VocabEntry{ID: id, Class: reservedNames[id]})
	}
	for _, c := range v.Classes() {
		entries = append(entries, VocabEntry{ID: v.ID(c), Class: c.String(), Members: vocab.Members(c)})
	}
	return entries
}

func runVocab(cmd *cobra.Command, args []string) error {
	entries := vocabEntries(vocab.New())

	if humanOutput {
		for _, e := range entries {
			outputHuman("%3d  %-8s %s\n", e.ID, strconv.Quote(e.Class), strconv.Quote(e.Members))
		}
		return nil
	}

	outputJSON(entries)
	return nil
}
