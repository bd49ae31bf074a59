// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/bibcheck/internal/bibtex"
	"github.com/pdiddy/bibcheck/internal/compare"
	"github.com/pdiddy/bibcheck/pkg/types"
)

// Resolution provenance labels for ResolveResult.Source.
const (
	ResolvedExisting = "existing"
	ResolvedDOI      = "doi"
	ResolvedEprint   = "eprint"
	ResolvedTitle    = "title"
)

// titleSearchLimit is how many search candidates are considered per entry.
const titleSearchLimit = 5

// TitleSearcher is the slice of the resolver client title resolution
// needs. *fetch.SemanticClient satisfies it.
type TitleSearcher interface {
	SearchByTitle(ctx context.Context, title string, limit int) ([]*types.ResolvedIDs, error)
}

// Resolver derives paper_id annotations for bibtex entries that lack them.
type Resolver struct {
	Scholar TitleSearcher

	// MinConfidence is the minimum title similarity for accepting a
	// title-search candidate.
	MinConfidence float64
}

// ResolveFile finds a paper ID for every entry in content and writes
// annotation comments for the newly resolved ones. It returns the report
// and the updated file content (equal to the input when nothing changed).
// Progress lines go to w.
func (r *Resolver) ResolveFile(ctx context.Context, content string, w io.Writer) (*types.ResolveReport, string, error) {
	entries := bibtex.Parse(content)
	report := types.NewResolveReport()

	for _, entry := range entries {
		result := r.resolveEntry(ctx, entry, content)
		report.Add(result)

		status := "not found"
		if result.AlreadyAnnotated {
			status = "kept"
		} else if result.Success {
			status = result.Source
		}
		fmt.Fprintf(w, "  %-10s %s\n", status, entry.Key)

		if !result.Success || result.AlreadyAnnotated {
			continue
		}

		lines := []string{bibtex.PaperIDComment(result.PaperID)}
		if result.Source == ResolvedTitle {
			lines = append(lines, bibtex.ConfidenceComment(result.Confidence, ResolvedTitle))
		}
		updated, err := bibtex.UpsertAnnotation(content, entry.Key, lines)
		if err != nil {
			return nil, "", fmt.Errorf("annotating entry %s: %w", entry.Key, err)
		}
		content = updated
	}

	return report, content, nil
}

// resolveEntry finds a paper ID for one entry: the existing annotation, the
// doi field, the eprint field, then a title search whose best candidate
// must clear MinConfidence.
func (r *Resolver) resolveEntry(ctx context.Context, entry bibtex.Entry, content string) types.ResolveResult {
	result := types.ResolveResult{EntryKey: entry.Key}

	if id := bibtex.PaperIDFromComments(content, entry.Key); id != "" {
		result.AlreadyAnnotated = true
		result.PaperID = id
		result.Source = ResolvedExisting
		return result
	}

	if doi := strings.TrimSpace(entry.DOI()); doi != "" {
		result.Success = true
		result.PaperID = "DOI:" + doi
		result.Source = ResolvedDOI
		result.Confidence = 1
		return result
	}
	if eprint := strings.TrimSpace(entry.Eprint()); eprint != "" {
		result.Success = true
		result.PaperID = "ARXIV:" + eprint
		result.Source = ResolvedEprint
		result.Confidence = 1
		return result
	}

	title := entry.Title()
	if title == "" {
		result.Message = "entry has no doi, eprint, or title to resolve from"
		return result
	}

	candidates, err := r.Scholar.SearchByTitle(ctx, compare.StripMarkup(title), titleSearchLimit)
	if err != nil {
		result.Message = fmt.Sprintf("title search failed: %v", err)
		return result
	}

	bestConfidence := 0.0
	var best *types.ResolvedIDs
	for _, c := range candidates {
		sim := compare.Similarity(
			strings.ToLower(compare.StripMarkup(title)),
			strings.ToLower(compare.StripMarkup(c.Title)),
		)
		if sim > bestConfidence {
			bestConfidence, best = sim, c
		}
	}

	if best == nil || bestConfidence < r.MinConfidence {
		result.Message = fmt.Sprintf("no title match above confidence %.2f", r.MinConfidence)
		return result
	}

	result.Success = true
	result.PaperID = best.PaperID
	result.Source = ResolvedTitle
	result.Confidence = bestConfidence
	return result
}
