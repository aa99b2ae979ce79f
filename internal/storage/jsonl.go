// Package storage persists extraction results in JSONL and SQLite formats.
//
// The JSONL file is the source of truth; the SQLite database is a
// rebuildable query layer with full-text search over citations.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines.
// Extraction records carry whole citation lists, so lines can be long.
const MaxJSONLLineCapacity = 4 * 1024 * 1024

// ReadAll reads all extractions from a JSONL file.
func ReadAll(path string) ([]Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file means no extractions yet
		}
		return nil, fmt.Errorf("opening extractions file: %w", err)
	}
	defer f.Close()

	var exts []Extraction
	scanner := bufio.NewScanner(f)

	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e Extraction
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		exts = append(exts, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading extractions file: %w", err)
	}

	return exts, nil
}

// Append adds an extraction to the end of a JSONL file.
func Append(path string, e Extraction) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening extractions file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding extraction: %w", err)
	}

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing extraction: %w", err)
	}

	return nil
}

// WriteAll writes all extractions to a JSONL file, replacing existing
// content.
func WriteAll(path string, exts []Extraction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating extractions file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, e := range exts {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding extraction %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing extraction %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing extractions file: %w", err)
	}
	return nil
}

// FindByID searches for an extraction by ID.
func FindByID(exts []Extraction, id string) (int, bool) {
	for i, e := range exts {
		if e.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindBySHA returns the most recent extraction of a document with the given
// content hash.
func FindBySHA(exts []Extraction, sha string) (int, bool) {
	if sha == "" {
		return -1, false
	}
	for i := len(exts) - 1; i >= 0; i-- {
		if exts[i].SHA256 == sha {
			return i, true
		}
	}
	return -1, false
}
