// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/bibcheck/pkg/types"
)

// CiteKey derives a citation key from metadata: the first author's family
// name, lower-cased and reduced to letters and digits, followed by the
// year. Falls back to "paper" when there are no authors.
func CiteKey(meta *types.PaperMetadata) string {
	name := "paper"
	if len(meta.Authors) > 0 && meta.Authors[0].Family != "" {
		var b strings.Builder
		for _, r := range strings.ToLower(meta.Authors[0].Family) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			name = b.String()
		}
	}
	if meta.Year > 0 {
		return fmt.Sprintf("%s%d", name, meta.Year)
	}
	return name
}

// GenerateEntry renders metadata as a normalized bibtex entry. Journal
// venues become @article with a journal field; everything else becomes
// @inproceedings with a booktitle field. Field order is fixed: title,
// author, venue, year.
func GenerateEntry(meta *types.PaperMetadata) string {
	entryType, venueField := "inproceedings", "booktitle"
	if strings.Contains(strings.ToLower(meta.Venue), "journal") {
		entryType, venueField = "article", "journal"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, CiteKey(meta))
	fmt.Fprintf(&b, "  title = {%s},\n", meta.Title)
	fmt.Fprintf(&b, "  author = {%s},\n", meta.AuthorsString())
	fmt.Fprintf(&b, "  %s = {%s},\n", venueField, meta.Venue)
	fmt.Fprintf(&b, "  year = {%d}\n", meta.Year)
	b.WriteString("}")
	return b.String()
}
