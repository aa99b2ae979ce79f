// Package section locates the reference section of a document.
package section

import "unicode"

// Keyword is the heading text searched for, case-insensitively.
const Keyword = "reference"

// DefaultThreshold is the minimum number of characters that must follow a
// keyword occurrence for it to be accepted as a section heading.
// Occurrences closer to the end of the text are treated as stray mentions.
const DefaultThreshold = 100

// Result is the outcome of splitting a document.
type Result struct {
	HasSection bool   `json:"has_reference_section"`
	Reference  string `json:"reference_section"`
	Body       string `json:"non_reference_section"`

	// SplitPoint is the rune offset of the accepted heading, or -1.
	SplitPoint int `json:"split_point"`
	// Iterations counts keyword searches performed.
	Iterations int `json:"iterations"`
}

// Splitter separates the reference section from the rest of a document.
type Splitter struct {
	// Threshold is the minimum trailing length in runes; values <= 0 accept
	// the last occurrence unconditionally.
	Threshold int
}

// New returns a Splitter with the given threshold.
func New(threshold int) Splitter {
	return Splitter{Threshold: threshold}
}

// Default returns a Splitter using DefaultThreshold.
func Default() Splitter {
	return Splitter{Threshold: DefaultThreshold}
}

// Split searches text for the last occurrence of Keyword that is followed
// by at least Threshold runes. Occurrences that are too close to the end
// are cut off together with everything after them, and the search repeats
// on the shorter text. An occurrence at offset 0 never counts as a
// section.
//
// Offsets are in runes, and lower-casing is done rune by rune so offsets in
// the folded text match the original.
func (s Splitter) Split(text string) Result {
	runes := []rune(text)
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}
	key := []rune(Keyword)

	n := len(runes)
	p := lastIndex(lower[:n], key)
	iterations := 1
	if p < 0 {
		return Result{Body: text, SplitPoint: -1, Iterations: iterations}
	}

	for p > 0 && n-p < s.Threshold {
		n = p
		p = lastIndex(lower[:n], key)
		iterations++
		if p < 0 {
			break
		}
	}

	if p <= 0 {
		return Result{Body: string(runes[:n]), SplitPoint: -1, Iterations: iterations}
	}
	return Result{
		HasSection: true,
		Reference:  string(runes[p:n]),
		Body:       string(runes[:p]),
		SplitPoint: p,
		Iterations: iterations,
	}
}

// lastIndex returns the offset of the last occurrence of sub in s, or -1.
func lastIndex(s, sub []rune) int {
	for i := len(s) - len(sub); i >= 0; i-- {
		match := true
		for j, r := range sub {
			if s[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
