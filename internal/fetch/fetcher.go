// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"strings"

	"github.com/pdiddy/bibcheck/internal/compare"
	"github.com/pdiddy/bibcheck/internal/ratelimit"
	"github.com/pdiddy/bibcheck/internal/venue"
	"github.com/pdiddy/bibcheck/pkg/types"
)

// Options controls one fetch.
type Options struct {
	// ArxivCheck enables the independent arXiv author cross-check when the
	// selected source is not arXiv and an arXiv ID is known.
	ArxivCheck bool

	// BestEffort turns a DOI with no CrossRef record into absence instead
	// of a DataIntegrityError. Exploratory commands (search) set this;
	// verification does not.
	BestEffort bool
}

// Fetcher wires the resolver and the three metadata sources behind the
// source selection policy: every paper gets its metadata from exactly one
// source, never from a blend.
type Fetcher struct {
	Scholar  *SemanticClient
	CrossRef *CrossRefClient
	DBLP     *DBLPClient
	Arxiv    *ArxivClient
}

// NewFetcher builds all provider clients from cfg against a shared limiter
// registry.
func NewFetcher(cfg types.FetchConfig, reg *ratelimit.Registry) *Fetcher {
	return &Fetcher{
		Scholar:  NewSemanticClient(cfg, reg),
		CrossRef: NewCrossRefClient(cfg, reg),
		DBLP:     NewDBLPClient(cfg, reg),
		Arxiv:    NewArxivClient(cfg, reg),
	}
}

// Close releases all client connections.
func (f *Fetcher) Close() {
	f.Scholar.Close()
	f.CrossRef.Close()
	f.DBLP.Close()
	f.Arxiv.Close()
}

// ResolveBatch resolves many identifiers in one round of batch calls.
func (f *Fetcher) ResolveBatch(ctx context.Context, paperIDs []string) (map[string]*types.ResolvedIDs, error) {
	return f.Scholar.ResolveIDsBatch(ctx, paperIDs)
}

// FetchBundle resolves one identifier and fetches its metadata bundle.
func (f *Fetcher) FetchBundle(ctx context.Context, paperID string, opts Options) (*types.FetchBundle, error) {
	resolved, err := f.Scholar.ResolveIDs(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return types.NewFetchBundle(), nil
	}
	return f.FetchBundleResolved(ctx, resolved, opts)
}

// FetchBundleResolved fetches the metadata bundle for an already-resolved
// paper. The selected source follows a strict order: a genuine DOI goes to
// CrossRef, a published (non-preprint) venue goes to DBLP, and a bare
// preprint goes to arXiv. When nothing applies the bundle has no selection.
//
// With ArxivCheck set and a non-arXiv selection, the arXiv record is
// fetched independently and its author list compared against the
// selection; disagreement marks the bundle. A failed side fetch never
// fails the bundle.
func (f *Fetcher) FetchBundleResolved(ctx context.Context, resolved *types.ResolvedIDs, opts Options) (*types.FetchBundle, error) {
	bundle := types.NewFetchBundle()

	selected, err := f.fetchSelected(ctx, resolved, opts)
	if err != nil {
		return nil, err
	}
	if selected == nil {
		return bundle, nil
	}

	bundle.Selected = selected
	bundle.Sources[selected.Source] = selected

	if opts.ArxivCheck && selected.Source != types.SourceArxiv && resolved.ArxivID != "" {
		arxivMeta, err := f.Arxiv.Metadata(ctx, resolved.ArxivID)
		if err == nil && arxivMeta != nil {
			bundle.Sources[types.SourceArxiv] = arxivMeta
			if !sameAuthors(selected.Authors, arxivMeta.Authors) {
				bundle.ArxivConflict = true
			}
		}
	}

	return bundle, nil
}

func (f *Fetcher) fetchSelected(ctx context.Context, resolved *types.ResolvedIDs, opts Options) (*types.PaperMetadata, error) {
	if resolved.DOI != "" {
		meta, err := f.CrossRef.Work(ctx, resolved.DOI)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			if opts.BestEffort {
				return nil, nil
			}
			return nil, &DataIntegrityError{DOI: resolved.DOI}
		}
		meta.ArxivID = resolved.ArxivID
		return meta, nil
	}

	if !venue.IsPreprint(resolved.Venue) {
		if resolved.Title == "" {
			return nil, nil
		}
		meta, err := f.DBLP.SearchByTitle(ctx, resolved.Title, resolved.Venue)
		if err != nil {
			return nil, err
		}
		if meta != nil {
			meta.ArxivID = resolved.ArxivID
		}
		return meta, nil
	}

	if resolved.ArxivID != "" {
		return f.Arxiv.Metadata(ctx, resolved.ArxivID)
	}
	return nil, nil
}

// sameAuthors compares author lists by family name, case-insensitively and
// with markup stripped. Sources abbreviate given names differently, so
// given names do not participate; a differing count or any differing
// family name is a conflict.
func sameAuthors(a, b []types.Author) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		fa := compare.StripMarkup(a[i].Family)
		fb := compare.StripMarkup(b[i].Family)
		if !strings.EqualFold(fa, fb) {
			return false
		}
	}
	return true
}
