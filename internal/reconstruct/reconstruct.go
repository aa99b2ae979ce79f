// Package reconstruct turns per-character tags back into citation strings.
package reconstruct

import "github.com/matsen/citextract/internal/label"

// State is the reconstructor state.
type State int

const (
	Idle       State = iota // not inside a citation span
	InCitation              // inside a citation span
)

func (s State) String() string {
	if s == InCitation {
		return "in-citation"
	}
	return "idle"
}

// Reconstructor is a two-state machine fed one character and its tag at a
// time. The zero value is ready to use.
type Reconstructor struct {
	state State
	buf   []rune
	out   []string
}

// New returns an idle Reconstructor.
func New() *Reconstructor {
	return &Reconstructor{}
}

// Step consumes one character and its tag.
//
//	Start:   flush buffer, buffer = r, state = InCitation
//	End:     flush buffer, buffer = r, state = Idle
//	Inside:  append r
//	Outside: append r while InCitation, otherwise flush and discard r
//
// Tags outside the alphabet are ignored.
func (c *Reconstructor) Step(r rune, t label.Tag) {
	switch t {
	case label.Start:
		c.flush()
		c.buf = append(c.buf, r)
		c.state = InCitation
	case label.End:
		c.flush()
		c.buf = append(c.buf, r)
		c.state = Idle
	case label.Inside:
		c.buf = append(c.buf, r)
	case label.Outside:
		if c.state == InCitation {
			c.buf = append(c.buf, r)
		} else {
			c.flush()
		}
	}
}

// flush moves a non-empty buffer to the output and clears it.
func (c *Reconstructor) flush() {
	if len(c.buf) > 0 {
		c.out = append(c.out, string(c.buf))
		c.buf = c.buf[:0]
	}
}

// State returns the current state.
func (c *Reconstructor) State() State {
	return c.state
}

// Pending returns the characters buffered but not yet emitted.
func (c *Reconstructor) Pending() string {
	return string(c.buf)
}

// Citations returns the citations emitted so far in document order.
// A pending buffer is not included; a span still open when the input ends
// is dropped.
func (c *Reconstructor) Citations() []string {
	out := make([]string, len(c.out))
	copy(out, c.out)
	return out
}

// Reconstruct runs a fresh Reconstructor over text and tags, which must be
// position-aligned. Extra elements of the longer slice are ignored.
func Reconstruct(text []rune, tags []label.Tag) []string {
	c := New()
	n := min(len(text), len(tags))
	for i := 0; i < n; i++ {
		c.Step(text[i], tags[i])
	}
	return c.Citations()
}
