package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/matsen/citextract/internal/pdf/pdftest"
)

func TestReadInput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.txt")
	want := "Body.\nReferences\n[1] Ä. Author. Tïtle.\n"
	if err := os.WriteFile(path, []byte(want), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := readInput(path, nil)
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if got != want {
		t.Errorf("readInput() = %q, want %q", got, want)
	}
}

func TestReadInput_PDF(t *testing.T) {
	pages := [][]string{
		{"Body of the paper."},
		{"References", "[1] A. Author. Title. 2001."},
	}
	data := pdftest.Build(pages...)
	want := pdftest.Text(pages...)

	dir := t.TempDir()
	for _, name := range []string{"paper.pdf", "PAPER.PDF", "no-extension"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		got, err := readInput(path, nil)
		if err != nil {
			t.Fatalf("readInput(%s) error = %v", name, err)
		}
		if got != want {
			t.Errorf("readInput(%s) = %q, want %q", name, got, want)
		}
	}

	got, err := readInput(stdinSource, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("readInput(stdin) error = %v", err)
	}
	if got != want {
		t.Errorf("readInput(stdin) = %q, want %q", got, want)
	}
}

func TestReadInput_MisnamedPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := readInput(path, nil)
	if err == nil || !strings.Contains(err.Error(), "extracting text") {
		t.Errorf("readInput() error = %v, want PDF extraction error", err)
	}
}

func TestReadInput_Stdin(t *testing.T) {
	got, err := readInput(stdinSource, strings.NewReader("from stdin"))
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if got != "from stdin" {
		t.Errorf("readInput() = %q, want %q", got, "from stdin")
	}
}

func TestReadInput_InvalidUTF8(t *testing.T) {
	got, err := readInput(stdinSource, strings.NewReader("ok \xff\xfe end"))
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if !utf8.ValidString(got) {
		t.Errorf("readInput() = %q is not valid UTF-8", got)
	}
	if !strings.HasPrefix(got, "ok ") || !strings.HasSuffix(got, " end") {
		t.Errorf("readInput() = %q lost surrounding text", got)
	}
}

func TestReadInput_BrokenPDF(t *testing.T) {
	_, err := readInput(stdinSource, strings.NewReader("%PDF-1.4\ngarbage"))
	if err == nil || !strings.Contains(err.Error(), "extracting text") {
		t.Errorf("readInput() error = %v, want PDF extraction error", err)
	}
}

func TestReadInput_Missing(t *testing.T) {
	if _, err := readInput(filepath.Join(t.TempDir(), "nope.txt"), nil); err == nil {
		t.Error("readInput() expected error for missing file")
	}
}
