package conflict

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/matsen/citextract/internal/storage"
)

type parserState int

const (
	stateNormal parserState = iota
	stateInOurs
	stateInTheirs
)

// Conflict marker prefixes
const (
	oursMarker      = "<<<<<<<"
	separatorMarker = "======="
	theirsMarker    = ">>>>>>>"
)

type marker int

const (
	noMarker marker = iota
	markOurs
	markSeparator
	markTheirs
)

func classify(line string) marker {
	switch {
	case strings.HasPrefix(line, oursMarker):
		return markOurs
	case strings.HasPrefix(line, separatorMarker):
		return markSeparator
	case strings.HasPrefix(line, theirsMarker):
		return markTheirs
	default:
		return noMarker
	}
}

// Parse reads a possibly conflicted extractions file. Blank lines are
// skipped; every other line outside the markers must be a JSON record.
func Parse(r io.Reader) (*ParseResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), storage.MaxJSONLLineCapacity)
	result := &ParseResult{}

	state := stateNormal
	lineNum := 0
	var region *Region

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		m := classify(line)

		switch state {
		case stateNormal:
			switch m {
			case markOurs:
				region = &Region{StartLine: lineNum}
				state = stateInOurs
			case markSeparator:
				return nil, ParseError{Line: lineNum, Message: "unexpected separator marker outside conflict region"}
			case markTheirs:
				return nil, ParseError{Line: lineNum, Message: "unexpected end marker outside conflict region"}
			default:
				e, ok, err := parseRecord(line, lineNum)
				if err != nil {
					return nil, err
				}
				if ok {
					result.Segments = append(result.Segments, Segment{Record: &e})
				}
			}

		case stateInOurs, stateInTheirs:
			switch {
			case m == markOurs:
				return nil, ParseError{Line: lineNum, Message: "nested conflict markers not allowed"}
			case m == markSeparator && state == stateInOurs:
				state = stateInTheirs
			case m == markSeparator:
				return nil, ParseError{Line: lineNum, Message: "duplicate separator marker in conflict region"}
			case m == markTheirs && state == stateInOurs:
				return nil, ParseError{Line: lineNum, Message: "unexpected end marker before separator"}
			case m == markTheirs:
				region.EndLine = lineNum
				result.Segments = append(result.Segments, Segment{Region: region})
				region = nil
				state = stateNormal
			default:
				e, ok, err := parseRecord(line, lineNum)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				if state == stateInOurs {
					region.Ours = append(region.Ours, e)
				} else {
					region.Theirs = append(region.Theirs, e)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if state != stateNormal {
		return nil, ParseError{Line: lineNum, Message: "unterminated conflict region at end of file"}
	}

	return result, nil
}

// parseRecord decodes one JSONL line. ok is false for blank lines.
func parseRecord(line string, lineNum int) (storage.Extraction, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return storage.Extraction{}, false, nil
	}
	var e storage.Extraction
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return storage.Extraction{}, false, ParseError{Line: lineNum, Message: "invalid JSON: " + err.Error()}
	}
	return e, true, nil
}

// ParseString is a convenience function that parses from a string.
func ParseString(content string) (*ParseResult, error) {
	return Parse(strings.NewReader(content))
}
