// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibtex reads and writes the subset of bibtex that bibliography
// verification needs: entry scanning with brace-aware field values, the
// paper_id annotation comments preceding entries, and normalized entry
// generation from fetched metadata.
package bibtex

import (
	"strconv"
	"strings"
	"unicode"
)

// Entry is one parsed bibtex entry. Field names are stored lower-cased;
// values keep their original spelling with the outer braces or quotes
// removed.
type Entry struct {
	// Key is the citation key.
	Key string

	// Type is the entry type, lower-cased (article, inproceedings, misc).
	Type string

	// Fields maps lower-cased field names to values.
	Fields map[string]string
}

// Field returns the value of a field by case-insensitive name, or "".
func (e Entry) Field(name string) string {
	return e.Fields[strings.ToLower(name)]
}

// Title returns the title field.
func (e Entry) Title() string { return e.Field("title") }

// AuthorField returns the raw author field ("Family, Given and ...").
func (e Entry) AuthorField() string { return e.Field("author") }

// Year returns the year field as an integer. ok is false when the field is
// absent or not a number.
func (e Entry) Year() (int, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(e.Field("year")))
	if err != nil {
		return 0, false
	}
	return y, true
}

// Venue returns the journal field when present, the booktitle field
// otherwise.
func (e Entry) Venue() string {
	if v := e.Field("journal"); v != "" {
		return v
	}
	return e.Field("booktitle")
}

// DOI returns the doi field.
func (e Entry) DOI() string { return e.Field("doi") }

// Eprint returns the eprint field (an arXiv identifier by convention).
func (e Entry) Eprint() string { return e.Field("eprint") }

// Parse scans bibtex content and returns its entries in file order.
// @comment, @preamble, and @string blocks are skipped. The parser is
// tolerant: a malformed entry is dropped and scanning resumes at the next
// "@".
func Parse(content string) []Entry {
	var entries []Entry
	runes := []rune(content)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '@' {
			continue
		}
		entry, next, ok := parseEntry(runes, i)
		if !ok {
			continue
		}
		i = next - 1
		if entry.Type == "comment" || entry.Type == "preamble" || entry.Type == "string" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// parseEntry parses one entry starting at the '@' at position start. It
// returns the entry, the position after its closing brace, and whether the
// parse succeeded.
func parseEntry(runes []rune, start int) (Entry, int, bool) {
	i := start + 1

	typeStart := i
	for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
		i++
	}
	entryType := strings.ToLower(string(runes[typeStart:i]))
	if entryType == "" {
		return Entry{}, i, false
	}

	i = skipSpace(runes, i)
	if i >= len(runes) || runes[i] != '{' {
		return Entry{}, i, false
	}
	i++

	// @comment/@preamble/@string carry no citation key; skip the block.
	if entryType == "comment" || entryType == "preamble" || entryType == "string" {
		end := skipBalanced(runes, i)
		return Entry{Type: entryType}, end, true
	}

	keyStart := skipSpace(runes, i)
	i = keyStart
	for i < len(runes) && runes[i] != ',' && runes[i] != '}' && runes[i] != '@' && runes[i] != '{' && !unicode.IsSpace(runes[i]) {
		i++
	}
	key := string(runes[keyStart:i])
	i = skipSpace(runes, i)
	if key == "" || i >= len(runes) || (runes[i] != ',' && runes[i] != '}') {
		return Entry{}, i, false
	}

	entry := Entry{Key: key, Type: entryType, Fields: make(map[string]string)}

	for i < len(runes) && runes[i] == ',' {
		i = skipSpace(runes, i+1)
		if i >= len(runes) || runes[i] == '}' {
			break
		}

		nameStart := i
		for i < len(runes) && runes[i] != '=' && runes[i] != '}' && !unicode.IsSpace(runes[i]) {
			i++
		}
		name := strings.ToLower(string(runes[nameStart:i]))

		i = skipSpace(runes, i)
		if i >= len(runes) || runes[i] != '=' {
			break
		}
		i = skipSpace(runes, i+1)

		value, next := parseValue(runes, i)
		if name != "" {
			entry.Fields[name] = value
		}
		i = skipSpace(runes, next)
	}

	if i < len(runes) && runes[i] == '}' {
		i++
	}
	return entry, i, true
}

// parseValue reads one field value: a brace-balanced group, a quoted
// string, or a bare token (number or macro name).
func parseValue(runes []rune, i int) (string, int) {
	if i >= len(runes) {
		return "", i
	}

	switch runes[i] {
	case '{':
		end := skipBalanced(runes, i+1)
		return strings.TrimSpace(string(runes[i+1 : end-1])), end
	case '"':
		j := i + 1
		for j < len(runes) && runes[j] != '"' {
			j++
		}
		if j >= len(runes) {
			return strings.TrimSpace(string(runes[i+1:])), j
		}
		return strings.TrimSpace(string(runes[i+1 : j])), j + 1
	default:
		j := i
		for j < len(runes) && runes[j] != ',' && runes[j] != '}' && !unicode.IsSpace(runes[j]) {
			j++
		}
		return string(runes[i:j]), j
	}
}

// skipBalanced advances past a brace group whose opening '{' has already
// been consumed and returns the position after the matching '}'.
func skipBalanced(runes []rune, i int) int {
	depth := 1
	for ; i < len(runes); i++ {
		switch runes[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

func skipSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}
