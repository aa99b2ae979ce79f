package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// CitationHit is one citation matched by a full-text search.
type CitationHit struct {
	ExtractionID string `json:"extraction_id"`
	Source       string `json:"source"`
	Position     int    `json:"position"`
	Text         string `json:"text"`
}

const selectExtractionFields = `id, source, sha256, extracted_at,
	has_reference_section, reference_length, model`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS extractions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			sha256 TEXT NOT NULL,
			extracted_at TEXT NOT NULL,
			has_reference_section INTEGER NOT NULL,
			reference_length INTEGER NOT NULL,
			model TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_extractions_sha ON extractions(sha256);

		CREATE TABLE IF NOT EXISTS citations (
			extraction_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (extraction_id, position)
		);

		-- Full-text search over citation text (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS citations_fts USING fts5(
			extraction_id UNINDEXED,
			position UNINDEXED,
			text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Insert adds an extraction and its citations. An existing record with the
// same id is replaced.
func (d *DB) Insert(e Extraction) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteExtraction(tx, e.ID); err != nil {
		return err
	}
	if err := insertExtraction(tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteExtraction(tx *sql.Tx, id string) error {
	for _, table := range []string{"citations", "citations_fts"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE extraction_id = ?", id); err != nil {
			return fmt.Errorf("clearing %s for %s: %w", table, id, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM extractions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting extraction %s: %w", id, err)
	}
	return nil
}

func insertExtraction(tx *sql.Tx, e Extraction) error {
	_, err := tx.Exec(`
		INSERT INTO extractions (`+selectExtractionFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Source, e.SHA256, e.ExtractedAt.UTC().Format(time.RFC3339Nano),
		e.HasReferenceSection, e.ReferenceLength, nullableStringValue(e.Model))
	if err != nil {
		return fmt.Errorf("inserting extraction %s: %w", e.ID, err)
	}

	for i, c := range e.Citations {
		if _, err := tx.Exec(`INSERT INTO citations (extraction_id, position, text) VALUES (?, ?, ?)`,
			e.ID, i, c); err != nil {
			return fmt.Errorf("inserting citation %d of %s: %w", i, e.ID, err)
		}
		if _, err := tx.Exec(`INSERT INTO citations_fts (extraction_id, position, text) VALUES (?, ?, ?)`,
			e.ID, i, c); err != nil {
			return fmt.Errorf("inserting fts for citation %d of %s: %w", i, e.ID, err)
		}
	}
	return nil
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	exts, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"extractions", "citations", "citations_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	for _, e := range exts {
		// Later lines win when an id repeats.
		if err := deleteExtraction(tx, e.ID); err != nil {
			return 0, err
		}
		if err := insertExtraction(tx, e); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(exts), nil
}

// GetByID retrieves an extraction with its citations. It returns nil when
// no extraction has the id.
func (d *DB) GetByID(id string) (*Extraction, error) {
	row := d.db.QueryRow(`SELECT `+selectExtractionFields+` FROM extractions WHERE id = ?`, id)
	e, err := scanExtraction(row)
	if err != nil || e == nil {
		return nil, err
	}
	if err := d.loadCitations(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListAll returns extractions in id (creation) order, optionally limited.
func (d *DB) ListAll(limit int) ([]Extraction, error) {
	query := `SELECT ` + selectExtractionFields + ` FROM extractions ORDER BY id`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}

	var exts []Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		exts = append(exts, *e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range exts {
		if err := d.loadCitations(&exts[i]); err != nil {
			return nil, err
		}
	}
	return exts, nil
}

// Search performs a full-text search over citation text.
func (d *DB) Search(query string, limit int) ([]CitationHit, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT citations_fts.extraction_id, extractions.source,
			citations_fts.position, citations_fts.text
		FROM citations_fts
		JOIN extractions ON extractions.id = citations_fts.extraction_id
		WHERE citations_fts MATCH ?
		ORDER BY citations_fts.rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var hits []CitationHit
	for rows.Next() {
		var h CitationHit
		if err := rows.Scan(&h.ExtractionID, &h.Source, &h.Position, &h.Text); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Count returns the number of extractions and of citations.
func (d *DB) Count() (extractions, citations int, err error) {
	if err = d.db.QueryRow("SELECT COUNT(*) FROM extractions").Scan(&extractions); err != nil {
		return 0, 0, err
	}
	err = d.db.QueryRow("SELECT COUNT(*) FROM citations").Scan(&citations)
	return extractions, citations, err
}

func (d *DB) loadCitations(e *Extraction) error {
	rows, err := d.db.Query(`SELECT text FROM citations WHERE extraction_id = ? ORDER BY position`, e.ID)
	if err != nil {
		return fmt.Errorf("loading citations for %s: %w", e.ID, err)
	}
	defer rows.Close()

	e.Citations = []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return err
		}
		e.Citations = append(e.Citations, c)
	}
	return rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExtraction(s scanner) (*Extraction, error) {
	var e Extraction
	var extractedAt string
	var model sql.NullString

	err := s.Scan(&e.ID, &e.Source, &e.SHA256, &extractedAt,
		&e.HasReferenceSection, &e.ReferenceLength, &model)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	e.Model = model.String
	e.ExtractedAt, err = time.Parse(time.RFC3339Nano, extractedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing extracted_at for %s: %w", e.ID, err)
	}
	return &e, nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
