// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify orchestrates bibliography verification: it walks the
// entries of a bibtex file, resolves their paper IDs in one batch round,
// fetches authoritative metadata through the source selector, and compares
// fields. One entry's provider failure becomes that entry's FAIL result;
// it never aborts the file run.
package verify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/bibcheck/internal/bibtex"
	"github.com/pdiddy/bibcheck/internal/compare"
	"github.com/pdiddy/bibcheck/internal/fetch"
	"github.com/pdiddy/bibcheck/pkg/types"
)

// Options controls one verification run.
type Options struct {
	// MaxAgeDays bounds annotation freshness: negative means any verified
	// annotation is fresh, zero means nothing is (re-verify everything),
	// positive means annotations older than this many days go stale.
	MaxAgeDays int

	// ArxivCheck enables the arXiv author cross-check.
	ArxivCheck bool

	// AutoFindIDs enables the doi/eprint field fallback for entries with
	// no paper_id comment.
	AutoFindIDs bool

	// Now is the reference time for freshness checks; zero means
	// time.Now().
	Now time.Time
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// ShouldSkipVerified reports whether an entry verified on dateStr is still
// fresh under maxAgeDays. An unparseable date is never fresh.
func ShouldSkipVerified(dateStr string, maxAgeDays int, now time.Time) bool {
	if maxAgeDays == 0 {
		return false
	}
	verifiedAt, err := time.Parse(bibtex.VerifiedDateLayout, dateStr)
	if err != nil {
		return false
	}
	if maxAgeDays < 0 {
		return true
	}
	ageDays := int(now.Sub(verifiedAt).Hours() / 24)
	return ageDays <= maxAgeDays
}

// CheckFields compares an entry's fields against fetched metadata. Only
// fields present on both sides are checked: a field the entry omits cannot
// mismatch, and a field the fetched record lacks (an authorless
// proceedings record, a record with no venue) is not checkable.
func CheckFields(entry bibtex.Entry, meta *types.PaperMetadata) (mismatches, warnings []types.FieldMismatch) {
	if bibTitle := entry.Title(); bibTitle != "" {
		match, warning, similarity := compare.Titles(bibTitle, meta.Title)
		fm := types.FieldMismatch{
			Field:        "title",
			BibtexValue:  bibTitle,
			FetchedValue: meta.Title,
			Source:       meta.Source,
		}
		switch {
		case match && warning:
			fm.IsWarning = true
			warnings = append(warnings, fm)
		case !match:
			fm.Similarity = similarity
			mismatches = append(mismatches, fm)
		}
	}

	if bibAuthors := entry.AuthorField(); bibAuthors != "" && len(meta.Authors) > 0 {
		match, warning := compare.Authors(bibAuthors, meta.Authors)
		fm := types.FieldMismatch{
			Field:        "author",
			BibtexValue:  bibAuthors,
			FetchedValue: meta.AuthorsString(),
			Source:       meta.Source,
		}
		switch {
		case match && warning:
			fm.IsWarning = true
			warnings = append(warnings, fm)
		case !match:
			mismatches = append(mismatches, fm)
		}
	}

	if bibYear, ok := entry.Year(); ok && meta.Year > 0 {
		if !compare.Years(bibYear, meta.Year) {
			mismatches = append(mismatches, types.FieldMismatch{
				Field:        "year",
				BibtexValue:  fmt.Sprintf("%d", bibYear),
				FetchedValue: fmt.Sprintf("%d", meta.Year),
				Source:       meta.Source,
			})
		}
	}

	if bibVenue := entry.Venue(); bibVenue != "" && meta.Venue != "" {
		match, warning := compare.Venues(bibVenue, meta.Venue)
		fm := types.FieldMismatch{
			Field:        "venue",
			BibtexValue:  bibVenue,
			FetchedValue: meta.Venue,
			Source:       meta.Source,
		}
		switch {
		case match && warning:
			fm.IsWarning = true
			warnings = append(warnings, fm)
		case !match:
			mismatches = append(mismatches, fm)
		}
	}

	return mismatches, warnings
}

// MetadataFetcher is the slice of the fetcher the orchestrator needs.
// *fetch.Fetcher satisfies it.
type MetadataFetcher interface {
	ResolveBatch(ctx context.Context, paperIDs []string) (map[string]*types.ResolvedIDs, error)
	FetchBundleResolved(ctx context.Context, resolved *types.ResolvedIDs, opts fetch.Options) (*types.FetchBundle, error)
}

// pendingEntry is an entry that survived the annotation checks and awaits
// resolution.
type pendingEntry struct {
	entry   bibtex.Entry
	paperID string
	source  string
}

// File verifies every entry in content and returns the aggregated report.
// Progress lines go to w.
func File(ctx context.Context, fetcher MetadataFetcher, content string, opts Options, w io.Writer) (*types.VerificationReport, error) {
	entries := bibtex.Parse(content)
	report := types.NewVerificationReport()

	var pending []pendingEntry
	for _, entry := range entries {
		result := precheckEntry(entry, content, opts)
		if result != nil {
			report.Add(*result)
			continue
		}
		id, source := bibtex.PaperIDFromEntry(entry, content, opts.AutoFindIDs)
		pending = append(pending, pendingEntry{entry: entry, paperID: id, source: source})
	}

	if len(pending) == 0 {
		return report, nil
	}

	fmt.Fprintf(w, "Resolving %d paper ID(s)...\n", len(pending))
	ids := make([]string, len(pending))
	for i, p := range pending {
		ids[i] = p.paperID
	}
	resolvedMap, err := fetcher.ResolveBatch(ctx, ids)
	if err != nil {
		// The batch round is the one shared step; when it fails, every
		// pending entry fails loudly rather than reporting as not-found.
		for _, p := range pending {
			r := types.NewVerificationResult(p.entry.Key)
			r.PaperID = p.paperID
			r.PaperIDSource = p.source
			r.Message = fmt.Sprintf("identifier resolution failed: %v", err)
			report.Add(r)
		}
		return report, nil
	}

	for _, p := range pending {
		result := verifyResolved(ctx, fetcher, p, resolvedMap[p.paperID], opts)
		fmt.Fprintf(w, "  %-7s %s\n", result.Status().String(), p.entry.Key)
		report.Add(result)
	}
	return report, nil
}

// precheckEntry applies the pre-resolution checks to one entry: the
// malformed missing-date annotation, the freshness skip, and the missing
// paper ID. It returns nil when the entry should proceed to resolution.
func precheckEntry(entry bibtex.Entry, content string, opts Options) *types.VerificationResult {
	if bibtex.HasMissingDate(content, entry.Key) {
		r := types.NewVerificationResult(entry.Key)
		r.MissingDate = true
		r.Message = fmt.Sprintf("verification comment is missing its date; expected %q",
			"% paper_id: <id>, verified via <verifier> (YYYY.MM.DD)")
		return &r
	}

	id, verified, date := bibtex.VerificationInfo(content, entry.Key)
	if verified && ShouldSkipVerified(date, opts.MaxAgeDays, opts.now()) {
		r := types.NewVerificationResult(entry.Key)
		r.AlreadyVerified = true
		r.PaperID = id
		r.PaperIDSource = bibtex.IDSourceComment
		r.Message = fmt.Sprintf("verified on %s", date)
		return &r
	}

	if pid, _ := bibtex.PaperIDFromEntry(entry, content, opts.AutoFindIDs); pid == "" {
		r := types.NewVerificationResult(entry.Key)
		r.NoPaperID = true
		r.Message = "no paper_id annotation and no doi or eprint field"
		return &r
	}
	return nil
}

func verifyResolved(ctx context.Context, fetcher MetadataFetcher, p pendingEntry, resolved *types.ResolvedIDs, opts Options) types.VerificationResult {
	result := types.NewVerificationResult(p.entry.Key)
	result.PaperID = p.paperID
	result.PaperIDSource = p.source

	if resolved == nil {
		result.Message = fmt.Sprintf("paper %s not found", p.paperID)
		return result
	}

	bundle, err := fetcher.FetchBundleResolved(ctx, resolved, fetch.Options{ArxivCheck: opts.ArxivCheck})
	if err != nil {
		result.Message = fmt.Sprintf("metadata fetch failed: %v", err)
		return result
	}
	if bundle.Selected == nil {
		result.Message = fmt.Sprintf("no metadata source has paper %s", p.paperID)
		return result
	}

	result.Metadata = bundle.Selected
	result.Sources = bundle.Sources

	if bundle.ArxivConflict {
		result.ArxivConflict = true
		result.Message = fmt.Sprintf("arXiv authors disagree with %s; the entry may point at the wrong paper",
			bundle.Selected.Source)
		return result
	}

	result.Success = true
	result.Mismatches, result.Warnings = CheckFields(p.entry, bundle.Selected)
	if len(result.Mismatches) > 0 {
		fields := make([]string, len(result.Mismatches))
		for i, m := range result.Mismatches {
			fields[i] = m.Field
		}
		result.Message = "field mismatch: " + strings.Join(fields, ", ")
	}
	return result
}
