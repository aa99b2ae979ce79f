package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/matsen/citextract/internal/pdf"
)

// stdinSource is the argument that selects standard input.
const stdinSource = "-"

// readInput reads a document from path, or from stdin when path is "-".
// Files named .pdf, and any other input that starts with the PDF header,
// are converted to text.
func readInput(path string, stdin io.Reader) (string, error) {
	if path != stdinSource && strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := pdf.ExtractText(path)
		if err != nil {
			return "", fmt.Errorf("extracting text from %s: %w", path, err)
		}
		return text, nil
	}

	var data []byte
	var err error
	if path == stdinSource {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	if pdf.IsPDF(data) {
		text, err := pdf.ExtractTextBytes(data)
		if err != nil {
			return "", fmt.Errorf("extracting text from %s: %w", path, err)
		}
		return text, nil
	}

	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
	}
	return string(data), nil
}
