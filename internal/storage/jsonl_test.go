package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testExtractions() []Extraction {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := NewExtraction("papers/a.pdf", "body a", at)
	a.HasReferenceSection = true
	a.ReferenceLength = 420
	a.Citations = []string{"[1] A. Smith. Title One. 2001.", "[2] B. Jones. Title Two. 2002."}

	b := NewExtraction("papers/b.txt", "body b", at.Add(time.Minute))
	b.Model = "refxtract.safetensors"

	return []Extraction{a, b}
}

func TestReadAll_NonExistentFile(t *testing.T) {
	exts, err := ReadAll("/nonexistent/path/extractions.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() error = %v (should return nil for nonexistent file)", err)
	}
	if len(exts) != 0 {
		t.Errorf("ReadAll() returned %v, want empty", exts)
	}
}

func TestReadAll_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.jsonl")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	exts, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(exts) != 0 {
		t.Errorf("ReadAll() returned %d extractions, want 0", len(exts))
	}
}

func TestReadAll_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.jsonl")
	content := `{"id":"01A","source":"a.txt","sha256":"x","extracted_at":"2024-05-01T12:00:00Z","has_reference_section":false,"reference_length":0,"citations":[]}

{"id":"01B","source":"b.txt","sha256":"y","extracted_at":"2024-05-01T12:01:00Z","has_reference_section":true,"reference_length":10,"citations":["c"]}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	exts, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(exts) != 2 {
		t.Fatalf("ReadAll() returned %d extractions, want 2", len(exts))
	}
	if exts[1].Source != "b.txt" || exts[1].Citations[0] != "c" {
		t.Errorf("second extraction = %+v", exts[1])
	}
}

func TestReadAll_InvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.jsonl")
	if err := os.WriteFile(path, []byte("{\"id\":\"ok\"}\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadAll(path)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("ReadAll() error = %v, want parse error on line 2", err)
	}
}

func TestWriteAll_ReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.jsonl")
	want := testExtractions()

	if err := WriteAll(path, want); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadAll() mismatch (-want +got):\n%s", diff)
	}
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.jsonl")
	exts := testExtractions()

	for _, e := range exts {
		if err := Append(path, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadAll() returned %d extractions, want 2", len(got))
	}
	if got[0].ID != exts[0].ID || got[1].ID != exts[1].ID {
		t.Errorf("Append() order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, exts[0].ID, exts[1].ID)
	}
}

func TestAppend_EmptyCitationsStayList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.jsonl")
	e := NewExtraction("x.txt", "no references here", time.Now())
	if err := Append(path, e); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"citations":[]`) {
		t.Errorf("encoded record = %s, want empty citation list", data)
	}
}

func TestFindByID(t *testing.T) {
	exts := testExtractions()

	if i, ok := FindByID(exts, exts[1].ID); !ok || i != 1 {
		t.Errorf("FindByID() = %d, %v, want 1, true", i, ok)
	}
	if _, ok := FindByID(exts, "missing"); ok {
		t.Error("FindByID(missing) found a record")
	}
}

func TestFindBySHA(t *testing.T) {
	exts := testExtractions()
	again := NewExtraction("copy/a.pdf", "body a", time.Now())
	exts = append(exts, again)

	i, ok := FindBySHA(exts, HashText("body a"))
	if !ok || i != 2 {
		t.Errorf("FindBySHA() = %d, %v, want latest match 2, true", i, ok)
	}
	if _, ok := FindBySHA(exts, ""); ok {
		t.Error("FindBySHA(\"\") found a record")
	}
}
