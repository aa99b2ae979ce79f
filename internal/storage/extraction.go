package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
)

// Extraction is the persisted result of extracting citations from one
// document.
type Extraction struct {
	ID                  string    `json:"id"`
	Source              string    `json:"source"`
	SHA256              string    `json:"sha256"`
	ExtractedAt         time.Time `json:"extracted_at"`
	HasReferenceSection bool      `json:"has_reference_section"`
	ReferenceLength     int       `json:"reference_length"`
	Model               string    `json:"model,omitempty"`
	Citations           []string  `json:"citations"`
}

// NewExtraction builds a record for text read from source. The id is a
// ULID so that records sort by extraction time.
func NewExtraction(source, text string, at time.Time) Extraction {
	return Extraction{
		ID:          ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		Source:      source,
		SHA256:      HashText(text),
		ExtractedAt: at.UTC(),
		Citations:   []string{},
	}
}

// HashText returns the hex SHA-256 digest of text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
