// Package extract composes section splitting, encoding, tagging and
// reconstruction into a single text-in, citations-out operation.
package extract

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/matsen/citextract/internal/label"
	"github.com/matsen/citextract/internal/reconstruct"
	"github.com/matsen/citextract/internal/section"
	"github.com/matsen/citextract/internal/tagger"
	"github.com/matsen/citextract/internal/vocab"
)

// Extractor pulls citation strings out of document text.
// It holds no per-call state and is safe for concurrent use when its
// Tagger is.
type Extractor struct {
	vocab    *vocab.Vocabulary
	splitter section.Splitter
	tagger   tagger.Tagger
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger for per-document debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// New creates an Extractor.
func New(v *vocab.Vocabulary, s section.Splitter, t tagger.Tagger, opts ...Option) *Extractor {
	e := &Extractor{
		vocab:    v,
		splitter: s,
		tagger:   t,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analysis is the full record of one extraction.
type Analysis struct {
	Split     section.Result `json:"split"`
	Tags      label.Sequence `json:"tags,omitempty"` // one per padded character
	Citations []string       `json:"citations"`
}

// Extract returns the citations found in the reference section of text.
// A document without a reference section yields an empty list.
// Errors come only from the Tagger.
func (e *Extractor) Extract(text string) ([]string, error) {
	a, err := e.Analyze(text)
	if err != nil {
		return nil, err
	}
	return a.Citations, nil
}

// Analyze is Extract that also returns the section split and the tag
// sequence.
func (e *Extractor) Analyze(text string) (Analysis, error) {
	split := e.splitter.Split(text)
	if !split.HasSection {
		e.logger.Debug("no reference section", "chars", len(text), "iterations", split.Iterations)
		return Analysis{Split: split, Citations: []string{}}, nil
	}

	start := time.Now()
	enc := e.vocab.Encode(split.Reference)
	probs, err := e.tagger.Tag(enc.IDs)
	if err != nil {
		return Analysis{}, fmt.Errorf("tagging reference section: %w", err)
	}
	tags := label.Argmax(probs)
	citations := reconstruct.Reconstruct(enc.Text, tags)

	e.logger.Debug("extracted citations",
		"split_point", split.SplitPoint,
		"section_chars", len(enc.Text)-2,
		"citations", len(citations),
		"duration", time.Since(start))

	return Analysis{Split: split, Tags: label.Sequence(tags), Citations: citations}, nil
}
