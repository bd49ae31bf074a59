// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"fmt"
	"regexp"
	"strings"
)

// Annotation comments precede an entry and tie it to a resolver paper ID:
//
//	% paper_id: 649def34f8be52c8b66281af98ae884c09aef38b
//	% paper_id: ARXIV:2106.09685, verified via alice (2026.03.15)
//
// "verified via X" with no parenthesized date is malformed and is reported
// as a distinct missing-date state rather than an unverified entry.
var (
	paperIDPattern     = regexp.MustCompile(`(?i)^%\s*paper_id:\s*(\S+?)(?:,\s*verified\s+via\s+(\S+)\s*\((\d{4}\.\d{2}\.\d{2})\))?\s*$`)
	missingDatePattern = regexp.MustCompile(`(?i)^%\s*paper_id:\s*\S+?,\s*verified\s+via\s+\S+\s*$`)
	confidencePattern  = regexp.MustCompile(`(?i)^%\s*paper_id_confidence:`)
)

// VerifiedDateLayout is the annotation date format.
const VerifiedDateLayout = "2006.01.02"

// entryPattern matches the contiguous comment block (possibly empty)
// immediately preceding the entry with the given key. Submatch 1 is the
// comment block.
func entryPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`((?:%[^\n]*\n)*)[ \t]*@\w+\{\s*` + regexp.QuoteMeta(key) + `\s*,`)
}

// EntryComments returns the comment lines directly preceding the entry with
// the given key, trimmed of trailing whitespace.
func EntryComments(content, key string) []string {
	m := entryPattern(key).FindStringSubmatch(content)
	if m == nil || m[1] == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(m[1], "\n") {
		if line = strings.TrimRight(line, " \t\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// VerificationInfo reads the paper_id annotation for the entry. verified is
// true only when the annotation carries both a verifier and a date.
func VerificationInfo(content, key string) (paperID string, verified bool, date string) {
	for _, line := range EntryComments(content, key) {
		m := paperIDPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		paperID = m[1]
		if m[3] != "" {
			return paperID, true, m[3]
		}
		return paperID, false, ""
	}
	return "", false, ""
}

// HasMissingDate reports whether the entry carries the malformed
// "verified via X" annotation with no date.
func HasMissingDate(content, key string) bool {
	for _, line := range EntryComments(content, key) {
		if missingDatePattern.MatchString(line) {
			return true
		}
	}
	return false
}

// PaperIDFromComments returns the annotated paper ID for the entry, or "".
func PaperIDFromComments(content, key string) string {
	id, _, _ := VerificationInfo(content, key)
	return id
}

// Paper ID provenance labels.
const (
	IDSourceComment = "comment"
	IDSourceDOI     = "doi field"
	IDSourceEprint  = "eprint field"
)

// PaperIDFromEntry determines the resolver paper ID for an entry: the
// annotation comment first, then (when autoFind is set) the doi field and
// the eprint field, prefixed for the resolver's identifier namespace.
// Returns "" when no identifier is available.
func PaperIDFromEntry(e Entry, content string, autoFind bool) (id, source string) {
	if id := PaperIDFromComments(content, e.Key); id != "" {
		return id, IDSourceComment
	}
	if !autoFind {
		return "", ""
	}
	if doi := strings.TrimSpace(e.DOI()); doi != "" {
		return "DOI:" + doi, IDSourceDOI
	}
	if eprint := strings.TrimSpace(e.Eprint()); eprint != "" {
		return "ARXIV:" + eprint, IDSourceEprint
	}
	return "", ""
}

// PaperIDComment renders an unverified annotation line.
func PaperIDComment(paperID string) string {
	return "% paper_id: " + paperID
}

// ConfidenceComment renders the confidence note written next to
// title-resolved paper IDs.
func ConfidenceComment(confidence float64, source string) string {
	return fmt.Sprintf("%% paper_id_confidence: %.2f (source: %s)", confidence, source)
}

// UpsertAnnotation rewrites the comment block preceding the entry with key:
// existing paper_id and paper_id_confidence lines are dropped, other
// comment lines are kept, and the given lines are appended. Returns an
// error when the entry is not found.
func UpsertAnnotation(content, key string, lines []string) (string, error) {
	loc := entryPattern(key).FindStringSubmatchIndex(content)
	if loc == nil {
		return "", fmt.Errorf("entry %q not found", key)
	}

	var kept []string
	for _, line := range strings.Split(content[loc[2]:loc[3]], "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}
		if paperIDPattern.MatchString(line) || missingDatePattern.MatchString(line) || confidencePattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	block := strings.Join(append(kept, lines...), "\n")
	if block != "" {
		block += "\n"
	}
	return content[:loc[2]] + block + content[loc[3]:], nil
}
