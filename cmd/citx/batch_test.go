package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matsen/citextract/internal/extract"
	"github.com/matsen/citextract/internal/label"
	"github.com/matsen/citextract/internal/pdf/pdftest"
	"github.com/matsen/citextract/internal/section"
	"github.com/matsen/citextract/internal/vocab"
)

// wholeSpanTagger tags every character except the padding Inside, so each
// reference section comes back as a single citation.
type wholeSpanTagger struct {
	err error
}

func (s wholeSpanTagger) Tag(ids []int) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	probs := make([][]float32, len(ids))
	for i := range probs {
		probs[i] = make([]float32, label.NumTags)
		if i == 0 || i == len(ids)-1 {
			probs[i][label.Outside] = 1
		} else {
			probs[i][label.Inside] = 1
		}
	}
	return probs, nil
}

func newTestExtractor(t wholeSpanTagger) *extract.Extractor {
	return extract.New(vocab.New(), section.Default(), t)
}

const referencesTail = "References\n[1] A. Author. A long enough title for the threshold. Journal of Tests 1, 2001.\n" +
	"[2] B. Author. Another title. Proceedings of Examples 2, 2002.\n"

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollectDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.txt":            "b",
		"a.PDF":            "a",
		"notes.md":         "skip",
		"sub/c.txt":        "c",
		".hidden/d.txt":    "skip",
		"sub/deeper/e.pdf": "e",
	})

	got, err := collectDocuments(dir)
	if err != nil {
		t.Fatalf("collectDocuments() error = %v", err)
	}
	for i := range got {
		got[i], _ = filepath.Rel(dir, got[i])
	}
	want := []string{"a.PDF", "b.txt", filepath.Join("sub", "c.txt"), filepath.Join("sub", "deeper", "e.pdf")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collectDocuments() mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectDocuments_MissingDir(t *testing.T) {
	if _, err := collectDocuments(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("collectDocuments() expected error")
	}
}

func TestExtractAll(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"with.txt":    "Body of the paper.\n" + referencesTail,
		"without.txt": "A note that never cites anything.",
		"broken.pdf":  "%PDF-1.4\nnot really a pdf",
	})
	paths, err := collectDocuments(dir)
	if err != nil {
		t.Fatal(err)
	}

	items, err := extractAll(context.Background(), newTestExtractor(wholeSpanTagger{}), paths, 2, "/m/model.safetensors")
	if err != nil {
		t.Fatalf("extractAll() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("extractAll() returned %d items, want 3", len(items))
	}

	byName := make(map[string]BatchItem)
	for _, it := range items {
		byName[filepath.Base(it.Source)] = it
	}

	broken := byName["broken.pdf"]
	if broken.Error == "" || broken.record != nil {
		t.Errorf("broken.pdf item = %+v, want error and no record", broken)
	}

	with := byName["with.txt"]
	if !with.HasReferenceSection {
		t.Fatalf("with.txt item = %+v, want reference section", with)
	}
	if diff := cmp.Diff([]string{referencesTail}, with.Citations); diff != "" {
		t.Errorf("with.txt citations mismatch (-want +got):\n%s", diff)
	}
	if with.record == nil || with.record.Model != "model.safetensors" || with.record.ReferenceLength != len([]rune(referencesTail)) {
		t.Errorf("with.txt record = %+v", with.record)
	}

	without := byName["without.txt"]
	if without.HasReferenceSection || without.Citations == nil || len(without.Citations) != 0 {
		t.Errorf("without.txt item = %+v, want no section and empty citations", without)
	}

	res := summarize(items)
	want := BatchResult{Documents: 3, WithSection: 1, Citations: 1, Failed: 1, Items: items}
	if res.Documents != want.Documents || res.WithSection != want.WithSection ||
		res.Citations != want.Citations || res.Failed != want.Failed {
		t.Errorf("summarize() = %+v, want %+v", res, want)
	}
}

func TestExtractAll_PDF(t *testing.T) {
	dir := t.TempDir()
	refLines := []string{
		"References",
		"[1] A. Author. A long enough title for the threshold. Journal of Tests 1, 2001.",
		"[2] B. Author. Another title. Proceedings of Examples 2, 2002.",
	}
	pages := [][]string{{"A Study", "Body of the paper."}, refLines}
	if err := os.WriteFile(filepath.Join(dir, "paper.pdf"), pdftest.Build(pages...), 0644); err != nil {
		t.Fatal(err)
	}
	paths, err := collectDocuments(dir)
	if err != nil {
		t.Fatal(err)
	}

	items, err := extractAll(context.Background(), newTestExtractor(wholeSpanTagger{}), paths, 1, "")
	if err != nil {
		t.Fatalf("extractAll() error = %v", err)
	}
	if len(items) != 1 || items[0].Error != "" {
		t.Fatalf("extractAll() = %+v, want one successful item", items)
	}
	if !items[0].HasReferenceSection {
		t.Fatalf("paper.pdf item = %+v, want reference section", items[0])
	}
	want := []string{pdftest.Text(refLines)[1:]}
	if diff := cmp.Diff(want, items[0].Citations); diff != "" {
		t.Errorf("paper.pdf citations mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractAll_TaggerFailureStopsBatch(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"one.txt": "Body.\n" + referencesTail,
		"two.txt": "Body.\n" + referencesTail,
	})
	paths, _ := collectDocuments(dir)

	boom := errors.New("backend failure")
	_, err := extractAll(context.Background(), newTestExtractor(wholeSpanTagger{err: boom}), paths, 1, "")
	if !errors.Is(err, boom) {
		t.Errorf("extractAll() error = %v, want %v", err, boom)
	}
}

func TestExtractAll_Empty(t *testing.T) {
	items, err := extractAll(context.Background(), newTestExtractor(wholeSpanTagger{}), nil, 4, "")
	if err != nil || len(items) != 0 {
		t.Errorf("extractAll(nil) = %v, %v, want empty", items, err)
	}
	if res := summarize(items); res.Documents != 0 || res.Failed != 0 {
		t.Errorf("summarize(nil) = %+v", res)
	}
}
