// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibcheck/pkg/types"
)

// fakeSearcher returns canned title-search candidates.
type fakeSearcher struct {
	candidates []*types.ResolvedIDs
	calls      int
}

func (f *fakeSearcher) SearchByTitle(ctx context.Context, title string, limit int) ([]*types.ResolvedIDs, error) {
	f.calls++
	return f.candidates, nil
}

const resolveBib = `% paper_id: existing1
@article{annotated, title = {A}, year = {2020}}

@article{withdoi, title = {B}, doi = {10.1/x}, year = {2020}}

@article{witheprint, title = {C}, eprint = {2106.09685}, year = {2021}}

@article{titleonly, title = {Attention Is All You Need}, year = {2017}}

@article{hopeless, year = {1999}}
`

func TestResolveFile(t *testing.T) {
	searcher := &fakeSearcher{candidates: []*types.ResolvedIDs{
		{PaperID: "p-far", Title: "A Completely Different Paper"},
		{PaperID: "p-close", Title: "Attention Is All You Need"},
	}}
	r := &Resolver{Scholar: searcher, MinConfidence: 0.85}

	report, updated, err := r.ResolveFile(context.Background(), resolveBib, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 5, report.TotalEntries)
	assert.Equal(t, 1, report.AlreadyAnnotated)
	assert.Equal(t, 3, report.Resolved)
	assert.Equal(t, 1, report.Unresolved)

	assert.Contains(t, updated, "% paper_id: DOI:10.1/x\n@article{withdoi,")
	assert.Contains(t, updated, "% paper_id: ARXIV:2106.09685\n@article{witheprint,")
	assert.Contains(t, updated, "% paper_id: p-close\n% paper_id_confidence: 1.00 (source: title)\n@article{titleonly,")
	assert.Contains(t, updated, "% paper_id: existing1\n@article{annotated,", "existing annotations are untouched")

	assert.Equal(t, 1, searcher.calls, "only the title-only entry needs a search")
}

func TestResolveEntryRespectsConfidenceThreshold(t *testing.T) {
	searcher := &fakeSearcher{candidates: []*types.ResolvedIDs{
		{PaperID: "p1", Title: "Attention Is Most Of What You Need"},
	}}
	r := &Resolver{Scholar: searcher, MinConfidence: 0.95}

	report, updated, err := r.ResolveFile(context.Background(),
		"@article{t, title = {Attention Is All You Need}, year = {2017}}\n", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Unresolved)
	assert.NotContains(t, updated, "paper_id", "a below-threshold candidate must not be written")
}

func TestResolveEntryProvenance(t *testing.T) {
	r := &Resolver{Scholar: &fakeSearcher{}, MinConfidence: 0.85}

	report, _, err := r.ResolveFile(context.Background(), resolveBib, io.Discard)
	require.NoError(t, err)

	bySource := map[string]string{}
	for _, res := range report.Results {
		bySource[res.EntryKey] = res.Source
	}
	assert.Equal(t, ResolvedExisting, bySource["annotated"])
	assert.Equal(t, ResolvedDOI, bySource["withdoi"])
	assert.Equal(t, ResolvedEprint, bySource["witheprint"])
	assert.Equal(t, "", bySource["hopeless"])
}

func TestResolveFileIdempotent(t *testing.T) {
	searcher := &fakeSearcher{}
	r := &Resolver{Scholar: searcher, MinConfidence: 0.85}

	_, once, err := r.ResolveFile(context.Background(), resolveBib, io.Discard)
	require.NoError(t, err)
	_, twice, err := r.ResolveFile(context.Background(), once, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, once, twice, "re-resolving an annotated file must not change it")
	if strings.Count(twice, "% paper_id: DOI:10.1/x") != 1 {
		t.Error("annotation duplicated on second run")
	}
}
