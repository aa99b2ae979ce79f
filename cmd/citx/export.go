package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matsen/citextract/internal/config"
	"github.com/matsen/citextract/internal/storage"
	"github.com/spf13/cobra"
)

var exportText bool

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolVar(&exportText, "text", false, "Write citations only, one per line")
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export saved extractions",
	Long: `Export saved extractions as JSONL, to a file or to standard output.

With --text, only the citation strings are written, one per line, with
line breaks inside a citation replaced by spaces.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

// ExportResult is the response when exporting to a file.
type ExportResult struct {
	Status      string `json:"status"`
	Path        string `json:"path"`
	Extractions int    `json:"extractions"`
}

func runExport(cmd *cobra.Command, args []string) error {
	root := requireStore()

	exts, err := storage.ReadAll(config.ExtractionsPath(root))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if len(args) == 0 {
		if exportText {
			if err := writeCitations(os.Stdout, exts); err != nil {
				exitWithError(ExitError, "writing output: %v", err)
			}
			return nil
		}
		for _, e := range exts {
			outputJSONCompact(e)
		}
		return nil
	}

	path := args[0]
	if exportText {
		err = writeCitationText(path, exts)
	} else {
		err = storage.WriteAll(path, exts)
	}
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Exported %d extraction%s to %s\n", len(exts), plural(len(exts)), path)
	} else {
		outputJSON(ExportResult{Status: "exported", Path: path, Extractions: len(exts)})
	}
	return nil
}

// writeCitationText writes every citation of exts to path, one per line.
func writeCitationText(path string, exts []storage.Extraction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := writeCitations(f, exts); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// lineBreaks flattens citations that span lines in the source document.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// writeCitations writes every citation of exts to w, one per line.
func writeCitations(w io.Writer, exts []storage.Extraction) error {
	bw := bufio.NewWriter(w)
	for _, e := range exts {
		for _, c := range e.Citations {
			if _, err := fmt.Fprintln(bw, lineBreaks.Replace(c)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
