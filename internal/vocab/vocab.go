package vocab

import "slices"

// Reserved ids. Class ids start at NumReserved.
const (
	PadID     = 0
	UnknownID = 1
	StartID   = 2
	EndID     = 3

	NumReserved = 4
)

// Padding is the character placed around encoded text so that the text and
// its id sequence line up position for position.
const Padding = ' '

// Vocabulary maps character classes to model input ids.
// It is immutable and safe for concurrent use.
type Vocabulary struct {
	classes []Class
	ids     map[Class]int
}

// New builds the vocabulary from the fold table. Class ids are assigned by
// sorting the representatives by code point.
func New() *Vocabulary {
	classes := make([]Class, 0, len(foldTable))
	for _, e := range foldTable {
		classes = append(classes, e.class)
	}
	slices.Sort(classes)
	classes = slices.Compact(classes)

	ids := make(map[Class]int, len(classes))
	for i, c := range classes {
		ids[c] = i + NumReserved
	}
	return &Vocabulary{classes: classes, ids: ids}
}

// ID returns the id of c, or UnknownID if c is not part of the vocabulary.
func (v *Vocabulary) ID(c Class) int {
	if id, ok := v.ids[c]; ok {
		return id
	}
	return UnknownID
}

// Size returns the size of the id space, reserved ids included.
func (v *Vocabulary) Size() int {
	return len(v.classes) + NumReserved
}

// Classes returns the classes in id order.
func (v *Vocabulary) Classes() []Class {
	return slices.Clone(v.classes)
}

// Encoded is text prepared for the tagger.
// Text carries one padding rune at each end so that len(Text) == len(IDs).
type Encoded struct {
	Text []rune
	IDs  []int
}

// Encode classifies every rune of text and wraps the ids in start and end
// markers.
func (v *Vocabulary) Encode(text string) Encoded {
	runes := []rune(text)
	padded := make([]rune, 0, len(runes)+2)
	ids := make([]int, 0, len(runes)+2)

	padded = append(padded, Padding)
	ids = append(ids, StartID)
	for _, r := range runes {
		padded = append(padded, r)
		ids = append(ids, v.ID(Classify(r)))
	}
	padded = append(padded, Padding)
	ids = append(ids, EndID)

	return Encoded{Text: padded, IDs: ids}
}
