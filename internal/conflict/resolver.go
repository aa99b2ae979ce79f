package conflict

import (
	"slices"

	"github.com/matsen/citextract/internal/storage"
)

// match pairs records that are the same extraction on both sides.
type match struct {
	ours, theirs int
	by           string
}

// sameContent reports whether two records describe the same extraction
// result, ignoring id and time.
func sameContent(a, b storage.Extraction) bool {
	return a.SHA256 == b.SHA256 && a.Source == b.Source && a.Model == b.Model &&
		slices.Equal(a.Citations, b.Citations)
}

// matchRecords matches by id first, then by content.
func matchRecords(region Region) []match {
	var matches []match
	oursUsed := make([]bool, len(region.Ours))
	theirsUsed := make([]bool, len(region.Theirs))

	for j, t := range region.Theirs {
		for i, o := range region.Ours {
			if !oursUsed[i] && o.ID == t.ID {
				matches = append(matches, match{ours: i, theirs: j, by: "id"})
				oursUsed[i], theirsUsed[j] = true, true
				break
			}
		}
	}
	for j, t := range region.Theirs {
		if theirsUsed[j] {
			continue
		}
		for i, o := range region.Ours {
			if !oursUsed[i] && sameContent(o, t) {
				matches = append(matches, match{ours: i, theirs: j, by: "content"})
				oursUsed[i], theirsUsed[j] = true, true
				break
			}
		}
	}
	return matches
}

// choose picks the surviving record of a matched pair.
func choose(ours, theirs storage.Extraction, by string) (Action, string) {
	switch {
	case by == "content":
		return ActionKeepOurs, "same document and citations extracted on both sides"
	case ours.ExtractedAt.Equal(theirs.ExtractedAt) && sameContent(ours, theirs):
		return ActionKeepOurs, "identical on both sides"
	case theirs.ExtractedAt.After(ours.ExtractedAt):
		return ActionKeepTheirs, "theirs is newer"
	case ours.ExtractedAt.After(theirs.ExtractedAt):
		return ActionKeepOurs, "ours is newer"
	case len(theirs.Citations) > len(ours.Citations):
		return ActionKeepTheirs, "theirs has more citations"
	default:
		return ActionKeepOurs, "keeping ours"
	}
}

// ResolveRegion merges one conflict region. The result lists ours-side
// records in order (replaced by theirs where theirs wins), followed by
// records only on theirs.
func ResolveRegion(region Region) ([]storage.Extraction, []Decision) {
	matches := matchRecords(region)
	byOurs := make(map[int]match, len(matches))
	theirsMatched := make(map[int]bool, len(matches))
	for _, m := range matches {
		byOurs[m.ours] = m
		theirsMatched[m.theirs] = true
	}

	var out []storage.Extraction
	var decisions []Decision
	for i, o := range region.Ours {
		m, ok := byOurs[i]
		if !ok {
			out = append(out, o)
			decisions = append(decisions, Decision{ID: o.ID, Source: o.Source, Action: ActionAddOurs, Reason: "only in ours"})
			continue
		}
		t := region.Theirs[m.theirs]
		action, reason := choose(o, t, m.by)
		kept := o
		if action == ActionKeepTheirs {
			kept = t
		}
		out = append(out, kept)
		decisions = append(decisions, Decision{ID: kept.ID, Source: kept.Source, Action: action, MatchedBy: m.by, Reason: reason})
	}
	for j, t := range region.Theirs {
		if theirsMatched[j] {
			continue
		}
		out = append(out, t)
		decisions = append(decisions, Decision{ID: t.ID, Source: t.Source, Action: ActionAddTheirs, Reason: "only in theirs"})
	}
	return out, decisions
}

// Resolve flattens a parse result into conflict-free records in file order.
func Resolve(result *ParseResult) ([]storage.Extraction, []Decision) {
	var out []storage.Extraction
	var decisions []Decision
	for _, s := range result.Segments {
		if s.Record != nil {
			out = append(out, *s.Record)
			continue
		}
		recs, ds := ResolveRegion(*s.Region)
		out = append(out, recs...)
		decisions = append(decisions, ds...)
	}
	return out, decisions
}
