package extract

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matsen/citextract/internal/label"
	"github.com/matsen/citextract/internal/section"
	"github.com/matsen/citextract/internal/tagger"
	"github.com/matsen/citextract/internal/vocab"
)

const scenarioText = "Intro text. References [2] A. One Citation One. [3] B. Two Citation Two."

// stubTagger emits one-hot rows for tags computed from the padded text of
// the reference section it is given.
type stubTagger struct {
	mu    sync.Mutex
	calls int
	tags  func(padded []rune) []label.Tag
	text  []rune
	err   error
}

func (s *stubTagger) Tag(ids []int) ([][]float32, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	tags := s.tags(s.text)
	probs := make([][]float32, len(ids))
	for i := range probs {
		probs[i] = make([]float32, label.NumTags)
		probs[i][tags[i]] = 1
	}
	return probs, nil
}

// newStub builds a stub for the reference section that splitter finds in
// text.
func newStub(t *testing.T, s section.Splitter, text string, tags func([]rune) []label.Tag) *stubTagger {
	t.Helper()
	split := s.Split(text)
	if !split.HasSection {
		return &stubTagger{tags: tags}
	}
	return &stubTagger{tags: tags, text: vocab.New().Encode(split.Reference).Text}
}

// spanTags marks every occurrence of the given spans Inside and everything
// else Outside.
func spanTags(spans ...string) func([]rune) []label.Tag {
	return func(padded []rune) []label.Tag {
		tags := make([]label.Tag, len(padded))
		s := string(padded)
		for _, span := range spans {
			byteIdx := strings.Index(s, span)
			if byteIdx < 0 {
				continue
			}
			start := len([]rune(s[:byteIdx]))
			for i := start; i < start+len([]rune(span)); i++ {
				tags[i] = label.Inside
			}
		}
		return tags
	}
}

// bracketTags puts Start on every '[', End one character before the next
// '[' and on the final character, and Inside in between.
func bracketTags(padded []rune) []label.Tag {
	tags := make([]label.Tag, len(padded))
	var starts []int
	for i, r := range padded {
		if r == '[' {
			starts = append(starts, i)
		}
	}
	for k, a := range starts {
		end := len(padded) - 1
		if k+1 < len(starts) {
			end = starts[k+1] - 1
		}
		tags[a] = label.Start
		for i := a + 1; i < end; i++ {
			tags[i] = label.Inside
		}
		tags[end] = label.End
	}
	return tags
}

func TestExtract_NoReferenceSection(t *testing.T) {
	stub := &stubTagger{tags: spanTags()}
	e := New(vocab.New(), section.Default(), stub)

	got, err := e.Extract("A document with a bibliography-free body. " + strings.Repeat("Words. ", 40))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Extract() = %#v, want empty non-nil list", got)
	}
	if stub.calls != 0 {
		t.Errorf("tagger called %d times, want 0", stub.calls)
	}
}

func TestExtract_ScenarioSpans(t *testing.T) {
	s := section.New(10)
	stub := newStub(t, s, scenarioText, spanTags("Citation One", "Citation Two"))
	e := New(vocab.New(), s, stub)

	got, err := e.Extract(scenarioText)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := []string{"Citation One", "Citation Two"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_ScenarioBracketMarkers(t *testing.T) {
	s := section.New(10)
	stub := newStub(t, s, scenarioText, bracketTags)
	e := New(vocab.New(), s, stub)

	got, err := e.Extract(scenarioText)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	// The End marker character opens a new buffer: the space before "[3]"
	// is emitted on its own, and the final padding character is dropped.
	want := []string{"[2] A. One Citation One.", " ", "[3] B. Two Citation Two."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_DefaultThresholdRejectsShortScenario(t *testing.T) {
	stub := &stubTagger{tags: spanTags()}
	got, err := New(vocab.New(), section.Default(), stub).Extract(scenarioText)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Extract() = %v, want empty", got)
	}
}

func TestExtract_TaggerError(t *testing.T) {
	s := section.New(10)
	boom := errors.New("backend failure")
	stub := &stubTagger{tags: spanTags(), err: boom}

	_, err := New(vocab.New(), s, stub).Extract(scenarioText)
	if !errors.Is(err, boom) {
		t.Errorf("Extract() error = %v, want %v", err, boom)
	}
}

func TestAnalyze(t *testing.T) {
	s := section.New(10)
	stub := newStub(t, s, scenarioText, spanTags("Citation One"))
	a, err := New(vocab.New(), s, stub).Analyze(scenarioText)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !a.Split.HasSection || a.Split.Body != "Intro text. " {
		t.Errorf("Split = %+v", a.Split)
	}
	if len(a.Tags) != len([]rune(a.Split.Reference))+2 {
		t.Errorf("len(Tags) = %d, want %d", len(a.Tags), len([]rune(a.Split.Reference))+2)
	}
	if !strings.Contains(a.Tags.String(), strings.Repeat("I", len("Citation One"))) {
		t.Errorf("Tags = %q missing inside run", a.Tags)
	}
	if diff := cmp.Diff([]string{"Citation One"}, a.Citations); diff != "" {
		t.Errorf("Citations mismatch (-want +got):\n%s", diff)
	}
}

// zeroModel gives uniform probabilities, so every character is Outside.
func zeroModel(t *testing.T, v *vocab.Vocabulary) *tagger.Model {
	t.Helper()
	cfg := tagger.DefaultConfig(v.Size())
	ts := make(map[string]tagger.Tensor)
	for name, shape := range tagger.ExpectedShapes(cfg) {
		ts[name] = tagger.NewTensor(shape...)
	}
	m, err := tagger.New(ts, cfg)
	if err != nil {
		t.Fatalf("tagger.New() error = %v", err)
	}
	return m
}

func TestExtract_ModelConcurrent(t *testing.T) {
	v := vocab.New()
	e := New(v, section.Default(), zeroModel(t, v))
	text := "Body.\nReferences\n" + strings.Repeat("[1] A. Author. Title. Journal 12(3), 2001.\n", 4)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Extract(text)
			if err != nil {
				errs <- err
				return
			}
			if len(got) != 0 {
				errs <- errors.New("uniform model produced citations")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
