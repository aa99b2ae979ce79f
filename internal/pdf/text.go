// Package pdf recovers plain text from PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// magic is the header every PDF file starts with.
var magic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// ExtractText extracts the text of every page of a PDF file, one page per
// block, separated by newlines.
func ExtractText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", filePath, err)
	}

	return pageText(r), nil
}

// ExtractTextBytes extracts the text of a PDF held in memory.
func ExtractTextBytes(data []byte) (string, error) {
	return ExtractTextReader(bytes.NewReader(data), int64(len(data)))
}

// ExtractTextReader extracts text from a PDF reader.
func ExtractTextReader(r io.ReaderAt, size int64) (string, error) {
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}
	return pageText(pdfReader), nil
}

// pageText concatenates page text. Pages whose content cannot be decoded
// are skipped.
func pageText(r *pdf.Reader) string {
	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Debug("skipping undecodable PDF page", "page", i, "error", err)
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String()
}
