// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare implements field comparison between bibtex entries and
// fetched metadata. Every comparison is three-tier: exact agreement passes,
// purely stylistic differences (latex markup, casing, name order, venue
// aliases) warn, and anything else is a hard mismatch.
package compare

import (
	"regexp"
	"strings"

	"github.com/pdiddy/bibcheck/internal/venue"
	"github.com/pdiddy/bibcheck/pkg/types"
)

var (
	latexCommand = regexp.MustCompile(`\\[a-zA-Z]+`)
	whitespace   = regexp.MustCompile(`\s+`)
	andSeparator = regexp.MustCompile(`\s+and\s+`)
)

// StripMarkup removes latex commands, braces, and math delimiters and
// collapses whitespace. Case is preserved.
func StripMarkup(s string) string {
	s = latexCommand.ReplaceAllString(s, "")
	s = strings.NewReplacer("{", "", "}", "", "$", "", "\\", "", "~", " ").Replace(s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Titles compares a bibtex title against a fetched title. Exact equality
// passes; equality after markup stripping and case folding is a stylistic
// warning; anything else is a mismatch, with similarity carrying the
// normalized edit-distance similarity of the stripped titles.
func Titles(bib, fetched string) (match, warning bool, similarity float64) {
	if bib == fetched {
		return true, false, 1
	}

	nb := strings.ToLower(StripMarkup(bib))
	nf := strings.ToLower(StripMarkup(fetched))
	if nb == nf {
		return true, true, 1
	}

	return false, false, Similarity(nb, nf)
}

// NormalizeAuthorName puts one author name into "Given Family" order with
// markup stripped. "Sutton, Richard S." and "Richard S. Sutton" normalize
// to the same string. Case is preserved so that casing differences still
// surface as mismatches.
func NormalizeAuthorName(name string) string {
	name = StripMarkup(name)
	if family, given, ok := strings.Cut(name, ","); ok {
		name = strings.TrimSpace(given) + " " + strings.TrimSpace(family)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(name, " "))
}

// SplitAuthors splits a bibtex author field on the "and" keyword.
func SplitAuthors(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	parts := andSeparator.Split(field, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Authors compares a bibtex author field against a fetched author list.
// Exact equality with the fetched bibtex-form string passes. Otherwise each
// name pair is compared after name-order normalization; full per-pair
// agreement is a stylistic warning. A differing author count, reordering,
// casing change, or abbreviation is a mismatch.
func Authors(bibField string, fetched []types.Author) (match, warning bool) {
	fetchedStr := (&types.PaperMetadata{Authors: fetched}).AuthorsString()
	if strings.TrimSpace(bibField) == fetchedStr {
		return true, false
	}

	bibNames := SplitAuthors(bibField)
	if len(bibNames) != len(fetched) {
		return false, false
	}

	for i, name := range bibNames {
		if NormalizeAuthorName(name) != NormalizeAuthorName(fetched[i].DisplayName()) {
			return false, false
		}
	}
	return true, true
}

// Years compares publication years. Integer equality only; there is no
// stylistic tier for years.
func Years(bib, fetched int) bool {
	return bib == fetched
}

// Venues compares a bibtex venue (journal or booktitle) against a fetched
// venue. Exact equality passes; agreement through the alias table is a
// stylistic warning; anything else is a mismatch. Venues absent from the
// alias table get no lenient fallback: a spelling that differs only in
// case still fails, so the table stays the single place that declares two
// spellings equivalent.
func Venues(bib, fetched string) (match, warning bool) {
	if strings.TrimSpace(bib) == strings.TrimSpace(fetched) {
		return true, false
	}
	if venue.Match(bib, fetched) {
		return true, true
	}
	return false, false
}
