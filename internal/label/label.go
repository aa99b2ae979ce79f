// Package label defines the per-character structural tags produced by the
// sequence tagger.
package label

import "strconv"

// Tag is the structural label assigned to one character position.
type Tag int

const (
	Outside Tag = iota // plain text, meaning depends on reconstructor state
	Inside             // continuation of the current citation
	Start              // first character of a citation
	End                // citation boundary
)

// NumTags is the size of the tag alphabet.
const NumTags = 4

// String returns a short name for the tag.
func (t Tag) String() string {
	switch t {
	case Outside:
		return "O"
	case Inside:
		return "I"
	case Start:
		return "S"
	case End:
		return "E"
	default:
		return "Tag(" + strconv.Itoa(int(t)) + ")"
	}
}

// Argmax returns the highest-probability tag for every row of probs.
// Ties resolve to the lowest tag value.
func Argmax(probs [][]float32) []Tag {
	tags := make([]Tag, len(probs))
	for i, row := range probs {
		best := 0
		for j := 1; j < len(row); j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		tags[i] = Tag(best)
	}
	return tags
}

// Format renders tags as a compact string such as "OSIIEO".
func Format(tags []Tag) string {
	b := make([]byte, 0, len(tags))
	for _, t := range tags {
		s := t.String()
		if len(s) != 1 {
			s = "?"
		}
		b = append(b, s[0])
	}
	return string(b)
}

// Sequence is a tag sequence that prints and encodes in Format's compact
// form. The string is only built when it is printed or marshaled.
type Sequence []Tag

func (s Sequence) String() string {
	return Format(s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Sequence) MarshalText() ([]byte, error) {
	return []byte(Format(s)), nil
}

// Parse is the inverse of Format. Unknown letters become Outside.
func Parse(s string) []Tag {
	tags := make([]Tag, 0, len(s))
	for _, c := range s {
		switch c {
		case 'I':
			tags = append(tags, Inside)
		case 'S':
			tags = append(tags, Start)
		case 'E':
			tags = append(tags, End)
		default:
			tags = append(tags, Outside)
		}
	}
	return tags
}
