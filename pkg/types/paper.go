// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for bibcheck: paper metadata,
// resolved identifiers, and verification reports.
package types

import "strings"

// Source names tag where a PaperMetadata record came from. Records are never
// blended across sources; every record carries exactly one of these.
const (
	SourceCrossRef = "crossref"
	SourceDBLP     = "dblp"
	SourceArxiv    = "arxiv"
)

// Author is one author name as reported by a metadata source.
type Author struct {
	// Given is the given (first) name, possibly abbreviated (e.g. "J." or "John").
	Given string `json:"given" yaml:"given"`

	// Family is the family (last) name.
	Family string `json:"family" yaml:"family"`
}

// BibtexName renders the author in bibtex name order: "Family, Given".
func (a Author) BibtexName() string {
	return a.Family + ", " + a.Given
}

// DisplayName renders the author in natural order: "Given Family".
func (a Author) DisplayName() string {
	return strings.TrimSpace(a.Given + " " + a.Family)
}

// ResolvedIDs holds the external identifiers for one paper as reported by the
// identifier resolution service.
type ResolvedIDs struct {
	// PaperID is the resolver's own identifier (hex paper ID).
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// DOI is the DOI, or "" when the paper has none. arXiv-issued DOIs are
	// normalized to "" so they never route metadata fetching to CrossRef.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArxivID is the bare arXiv identifier (no "arXiv:" prefix, no version suffix).
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// DBLPID is the DBLP record key, when known.
	DBLPID string `json:"dblp_id,omitempty" yaml:"dblp_id,omitempty"`

	// Venue is the publication venue as reported by the resolver. Used only
	// for source selection, never for field comparison.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Title is the title as reported by the resolver.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// PaperMetadata is the authoritative metadata for one paper from a single source.
type PaperMetadata struct {
	Title   string   `json:"title" yaml:"title"`
	Authors []Author `json:"authors" yaml:"authors"`
	Year    int      `json:"year" yaml:"year"`
	Venue   string   `json:"venue" yaml:"venue"`

	// DOI and ArxivID are carried along for entry generation; they are not
	// compared against bibtex fields.
	DOI     string `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// Source is one of SourceCrossRef, SourceDBLP, SourceArxiv.
	Source string `json:"source" yaml:"source"`
}

// AuthorsString joins all authors in bibtex form: "Family, Given and Family, Given".
func (m *PaperMetadata) AuthorsString() string {
	names := make([]string, 0, len(m.Authors))
	for _, a := range m.Authors {
		names = append(names, a.BibtexName())
	}
	return strings.Join(names, " and ")
}

// FetchBundle is the result of fetching metadata for one resolved paper.
// Selected is the single source of truth chosen by the source selector (nil
// when no source had the paper). Sources holds every record actually fetched,
// keyed by source name, for diagnostics.
type FetchBundle struct {
	Selected *PaperMetadata            `json:"selected,omitempty" yaml:"selected,omitempty"`
	Sources  map[string]*PaperMetadata `json:"sources" yaml:"sources"`

	// ArxivConflict is set when the conflict check found the arXiv author
	// list disagreeing with the selected source.
	ArxivConflict bool `json:"arxiv_conflict" yaml:"arxiv_conflict"`
}

// NewFetchBundle returns an empty bundle with the source map initialized.
func NewFetchBundle() *FetchBundle {
	return &FetchBundle{Sources: make(map[string]*PaperMetadata)}
}
