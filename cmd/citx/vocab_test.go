package main

import (
	"testing"

	"github.com/matsen/citextract/internal/vocab"
)

func TestVocabEntries(t *testing.T) {
	entries := vocabEntries(vocab.New())

	if len(entries) != 77 {
		t.Fatalf("len(entries) = %d, want 77", len(entries))
	}
	for i, e := range entries {
		if e.ID != i {
			t.Errorf("entries[%d].ID = %d, want consecutive ids", i, e.ID)
		}
	}

	tests := []struct {
		id      int
		class   string
		members string
	}{
		{0, "<pad>", ""},
		{1, "<unk>", ""},
		{3, "<end>", ""},
		{5, "\n", "\n\r"},
		{18, "0", "0123456789"},
		{20, "A", "A"},
	}
	for _, tt := range tests {
		e := entries[tt.id]
		if e.Class != tt.class || e.Members != tt.members {
			t.Errorf("entries[%d] = %+v, want class %q members %q", tt.id, e, tt.class, tt.members)
		}
	}
}
