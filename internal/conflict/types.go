// Package conflict resolves git merge conflicts in extractions.jsonl.
//
// Records are append-only and carry ULID ids, so most conflicts are two
// branches appending different extractions at the same place in the file.
// Those are resolved by keeping both sides. Records present on both sides
// are reduced to one.
package conflict

import (
	"fmt"

	"github.com/matsen/citextract/internal/storage"
)

// Region is a single git conflict region.
type Region struct {
	// Line numbers in the original file (1-indexed)
	StartLine int // Line of <<<<<<< marker
	EndLine   int // Line of >>>>>>> marker

	Ours   []storage.Extraction // HEAD side
	Theirs []storage.Extraction // Incoming side
}

// Segment is either one clean record or one conflict region, in file order.
type Segment struct {
	Record *storage.Extraction
	Region *Region
}

// ParseResult holds the contents of a possibly conflicted file.
type ParseResult struct {
	Segments []Segment
}

// HasConflicts reports whether any conflict region was found.
func (r *ParseResult) HasConflicts() bool {
	for _, s := range r.Segments {
		if s.Region != nil {
			return true
		}
	}
	return false
}

// Regions returns the conflict regions in file order.
func (r *ParseResult) Regions() []Region {
	var regions []Region
	for _, s := range r.Segments {
		if s.Region != nil {
			regions = append(regions, *s.Region)
		}
	}
	return regions
}

// ParseError reports malformed conflict markers or JSON.
type ParseError struct {
	Line    int    // 1-indexed
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Action is how one record of a conflict region was resolved.
type Action string

const (
	ActionKeepOurs   Action = "keep_ours"   // Same record on both sides, ours kept
	ActionKeepTheirs Action = "keep_theirs" // Same record on both sides, theirs kept
	ActionAddOurs    Action = "add_ours"    // Record only in ours
	ActionAddTheirs  Action = "add_theirs"  // Record only in theirs
)

// Decision records the resolution of one record.
type Decision struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Action    Action `json:"action"`
	MatchedBy string `json:"matched_by,omitempty"` // "id" or "content"
	Reason    string `json:"reason"`
}
