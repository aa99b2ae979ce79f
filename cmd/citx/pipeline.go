package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/matsen/citextract/internal/config"
	"github.com/matsen/citextract/internal/extract"
	"github.com/matsen/citextract/internal/section"
	"github.com/matsen/citextract/internal/storage"
	"github.com/matsen/citextract/internal/tagger"
	"github.com/matsen/citextract/internal/vocab"
)

var errNoModel = errors.New("no model configured (use --model, " + config.EnvModel + ", or 'citx config model_path <path>')")

// newExtractor loads the configured model and builds an extractor around it.
func newExtractor(s settings) (*extract.Extractor, error) {
	if s.ModelPath == "" {
		return nil, errNoModel
	}

	v := vocab.New()
	start := time.Now()
	m, err := tagger.Load(s.ModelPath, tagger.DefaultConfig(v.Size()),
		tagger.WithDevice(s.Device), tagger.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	slog.Info("model loaded", "path", s.ModelPath, "device", m.Device(), "elapsed", time.Since(start))

	return extract.New(v, section.New(s.Threshold), m, extract.WithLogger(slog.Default())), nil
}

// extractDocument runs the extractor over text and builds the record for
// source.
func extractDocument(e *extract.Extractor, source, text, modelPath string) (storage.Extraction, extract.Analysis, error) {
	a, err := e.Analyze(text)
	if err != nil {
		return storage.Extraction{}, extract.Analysis{}, fmt.Errorf("extracting citations from %s: %w", source, err)
	}

	rec := storage.NewExtraction(source, text, time.Now())
	rec.HasReferenceSection = a.Split.HasSection
	rec.ReferenceLength = utf8.RuneCountInString(a.Split.Reference)
	rec.Citations = a.Citations
	if modelPath != "" {
		rec.Model = filepath.Base(modelPath)
	}
	return rec, a, nil
}
