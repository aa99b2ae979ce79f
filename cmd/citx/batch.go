package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/citextract/internal/extract"
	"github.com/matsen/citextract/internal/section"
	"github.com/matsen/citextract/internal/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchSave bool

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "Save results to the .citx store")
	batchCmd.Flags().Int("workers", 0, "Number of documents processed concurrently (default: number of CPUs)")
	batchCmd.Flags().Int("threshold", section.DefaultThreshold, "Minimum characters after a reference heading")
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract citations from every document in a directory",
	Long: `Extract citations from every .txt and .pdf file under a directory.

Documents are processed concurrently with a single shared model. A
document that cannot be read is reported and skipped; the rest of the
batch continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// BatchItem is the outcome for one document.
type BatchItem struct {
	ID                  string   `json:"id,omitempty"`
	Source              string   `json:"source"`
	HasReferenceSection bool     `json:"has_reference_section"`
	Citations           []string `json:"citations"`
	Error               string   `json:"error,omitempty"`

	record *storage.Extraction
}

// BatchResult is the response for the batch command.
type BatchResult struct {
	Documents   int         `json:"documents"`
	WithSection int         `json:"with_reference_section"`
	Citations   int         `json:"citations"`
	Failed      int         `json:"failed"`
	Updated     int         `json:"updated,omitempty"`
	Items       []BatchItem `json:"items"`
}

// batchExtensions are the file types picked up by collectDocuments.
var batchExtensions = map[string]bool{".txt": true, ".pdf": true}

// collectDocuments returns the .txt and .pdf files under dir, sorted.
func collectDocuments(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if batchExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// extractAll runs the extractor over paths with at most workers documents
// in flight. Unreadable documents are recorded in their item; a tagger
// failure stops the batch.
func extractAll(ctx context.Context, e *extract.Extractor, paths []string, workers int, modelPath string) ([]BatchItem, error) {
	items := make([]BatchItem, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			items[i] = BatchItem{Source: path, Citations: []string{}}

			text, err := readInput(path, nil)
			if err != nil {
				slog.Warn("skipping document", "path", path, "error", err)
				items[i].Error = err.Error()
				return nil
			}

			rec, _, err := extractDocument(e, path, text, modelPath)
			if err != nil {
				return err
			}
			slog.Debug("document done", "path", path, "citations", len(rec.Citations))
			items[i].HasReferenceSection = rec.HasReferenceSection
			items[i].Citations = rec.Citations
			items[i].record = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// summarize totals the batch items.
func summarize(items []BatchItem) BatchResult {
	res := BatchResult{Documents: len(items), Items: items}
	for _, it := range items {
		if it.Error != "" {
			res.Failed++
			continue
		}
		if it.HasReferenceSection {
			res.WithSection++
		}
		res.Citations += len(it.Citations)
	}
	return res
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	var root string
	if batchSave {
		root = requireStore()
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		exitWithError(ExitDataError, "not a directory: %s", dir)
	}

	paths, err := collectDocuments(dir)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	e, err := newExtractor(current)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	items, err := extractAll(cmd.Context(), e, paths, current.Workers, current.ModelPath)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	var updated int
	if batchSave {
		var recs []storage.Extraction
		var owners []int
		for i := range items {
			if items[i].record != nil {
				recs = append(recs, *items[i].record)
				owners = append(owners, i)
			}
		}
		updated, err = saveExtractions(root, recs)
		if err != nil {
			exitWithError(ExitError, "saving extractions: %v", err)
		}
		for j, i := range owners {
			items[i].ID = recs[j].ID
		}
	}

	res := summarize(items)
	res.Updated = updated
	if humanOutput {
		for _, it := range res.Items {
			switch {
			case it.Error != "":
				outputHuman("FAIL  %s: %s\n", truncateString(it.Source, SourceMaxLen), it.Error)
			case !it.HasReferenceSection:
				outputHuman("none  %s\n", truncateString(it.Source, SourceMaxLen))
			default:
				outputHuman("%4d  %s\n", len(it.Citations), truncateString(it.Source, SourceMaxLen))
			}
		}
		outputHuman("\n%d document%s, %d with references, %d citation%s, %d failed\n",
			res.Documents, plural(res.Documents), res.WithSection, res.Citations, plural(res.Citations), res.Failed)
		if res.Updated > 0 {
			outputHuman("%d earlier extraction%s replaced\n", res.Updated, plural(res.Updated))
		}
		return nil
	}

	outputJSON(res)
	return nil
}
