// Package vocab folds document characters into a small fixed alphabet of
// character classes and assigns each class a stable integer id.
package vocab

import "strings"

// Class is the canonical representative character of a folded
// equivalence class.
type Class rune

// Unknown is the class of every character not covered by the fold table.
// It never appears in the table, so its id is always UnknownID.
const Unknown Class = -1

// String returns the representative as a string, or "<unk>" for Unknown.
func (c Class) String() string {
	if c == Unknown {
		return "<unk>"
	}
	return string(rune(c))
}

// foldEntry pairs a class with the characters it absorbs.
type foldEntry struct {
	class   Class
	members string
}

// foldTable is evaluated in order; the first entry containing a character
// wins.
var foldTable = buildFoldTable()

func buildFoldTable() []foldEntry {
	table := []foldEntry{
		{'0', "0123456789"},
		{',', ","},
		{':', ":;"},
		{'"', "“”\"'"},
		{'#', "#"},
		{'[', "["},
		{'(', "("},
		{'{', "{"},
		{']', "]"},
		{')', ")"},
		{'}', "}"},
		{'.', "."},
		{'-', "-"},
		{'+', "+"},
		{'_', "_"},
		{'/', "/"},
		{'&', "&"},
		{'!', "!?"},
		{' ', " "},
		{'\n', "\n\r"},
		{'\t', "\t"},
	}
	for _, r := range "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ" {
		table = append(table, foldEntry{Class(r), string(r)})
	}
	return table
}

// Classify maps r to its character class.
func Classify(r rune) Class {
	for _, e := range foldTable {
		if strings.ContainsRune(e.members, r) {
			return e.class
		}
	}
	return Unknown
}

// Members returns the characters folded into c, or "" if c is not in the
// table.
func Members(c Class) string {
	for _, e := range foldTable {
		if e.class == c {
			return e.members
		}
	}
	return ""
}
