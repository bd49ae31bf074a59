// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibcheck/internal/httputil"
	"github.com/pdiddy/bibcheck/internal/ratelimit"
	"github.com/pdiddy/bibcheck/pkg/types"
)

func init() {
	// Keep backoff waits out of test runtime.
	httputil.RetryBaseDelay = time.Millisecond
	httputil.RateLimitDelay = time.Millisecond
}

func testFetchConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "bibcheck-test/0.1"},
		MaxRetries: 1,
	}
}

func TestNormalizePaperID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2106.09685", "ARXIV:2106.09685"},
		{"2106.09685v2", "ARXIV:2106.09685v2"},
		{"arXiv:2106.09685", "ARXIV:2106.09685"},
		{"doi:10.1234/x", "DOI:10.1234/x"},
		{"DOI:10.1234/x", "DOI:10.1234/x"},
		{"649def34f8be52c8b66281af98ae884c09aef38b", "649def34f8be52c8b66281af98ae884c09aef38b"},
		{" 2106.09685 ", "ARXIV:2106.09685"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePaperID(tt.in), "NormalizePaperID(%q)", tt.in)
	}
}

func TestResolveIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/paper/ARXIV:2106.09685")
		assert.Equal(t, resolveFields, r.URL.Query().Get("fields"))
		json.NewEncoder(w).Encode(map[string]any{
			"paperId": "abc123",
			"title":   "LoRA: Low-Rank Adaptation of Large Language Models",
			"venue":   "International Conference on Learning Representations",
			"externalIds": map[string]any{
				"DOI":   "10.1234/iclr.2022",
				"ArXiv": "2106.09685",
			},
		})
	}))
	defer srv.Close()
	restore := semanticAPIBase
	semanticAPIBase = srv.URL
	defer func() { semanticAPIBase = restore }()

	c := NewSemanticClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	resolved, err := c.ResolveIDs(context.Background(), "2106.09685")
	require.NoError(t, err)
	require.NotNil(t, resolved)

	assert.Equal(t, "abc123", resolved.PaperID)
	assert.Equal(t, "10.1234/iclr.2022", resolved.DOI)
	assert.Equal(t, "2106.09685", resolved.ArxivID)
	assert.Equal(t, "International Conference on Learning Representations", resolved.Venue)
}

func TestResolveIDsDropsArxivDOI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"paperId": "abc123",
			"title":   "Some Preprint",
			"externalIds": map[string]any{
				"DOI":   "10.48550/ARXIV.2106.09685",
				"ArXiv": "2106.09685",
			},
		})
	}))
	defer srv.Close()
	restore := semanticAPIBase
	semanticAPIBase = srv.URL
	defer func() { semanticAPIBase = restore }()

	c := NewSemanticClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	resolved, err := c.ResolveIDs(context.Background(), "2106.09685")
	require.NoError(t, err)
	require.NotNil(t, resolved)

	assert.Empty(t, resolved.DOI, "arXiv-issued DOIs must be treated as absent")
	assert.Equal(t, "2106.09685", resolved.ArxivID)
}

func TestResolveIDsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	restore := semanticAPIBase
	semanticAPIBase = srv.URL
	defer func() { semanticAPIBase = restore }()

	c := NewSemanticClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	resolved, err := c.ResolveIDs(context.Background(), "nosuch")
	require.NoError(t, err, "404 is absence, not an error")
	assert.Nil(t, resolved)
}

func TestResolveIDsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	restore := semanticAPIBase
	semanticAPIBase = srv.URL
	defer func() { semanticAPIBase = restore }()

	c := NewSemanticClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	_, err := c.ResolveIDs(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, IsProviderError(err))
}

func TestResolveIDsBatchPositional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		body, _ := io.ReadAll(r.Body)
		var req struct {
			IDs []string `json:"ids"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, []string{"ARXIV:2106.09685", "DOI:10.1/x", "badid"}, req.IDs)

		// Middle input normalized fine; last one is unknown -> null.
		io.WriteString(w, `[
			{"paperId": "p1", "title": "A", "externalIds": {"ArXiv": "2106.09685"}},
			{"paperId": "p2", "title": "B", "externalIds": {"DOI": "10.1/x"}},
			null
		]`)
	}))
	defer srv.Close()
	restore := semanticAPIBase
	semanticAPIBase = srv.URL
	defer func() { semanticAPIBase = restore }()

	c := NewSemanticClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	results, err := c.ResolveIDsBatch(context.Background(), []string{"2106.09685", "DOI:10.1/x", "badid"})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "p1", results["2106.09685"].PaperID, "results must be keyed by the original input spelling")
	assert.Equal(t, "p2", results["DOI:10.1/x"].PaperID)
	_, ok := results["badid"]
	assert.False(t, ok)
}

func TestResolveIDsBatchLengthMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"paperId": "p1", "title": "A"}]`)
	}))
	defer srv.Close()
	restore := semanticAPIBase
	semanticAPIBase = srv.URL
	defer func() { semanticAPIBase = restore }()

	c := NewSemanticClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	_, err := c.ResolveIDsBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch returned 1 results for 2 identifiers")
}

func TestSearchByTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "attention is all you need", r.URL.Query().Get("query"))
		io.WriteString(w, `{"total": 1, "data": [
			{"paperId": "p9", "title": "Attention Is All You Need", "venue": "NeurIPS"}
		]}`)
	}))
	defer srv.Close()
	restore := semanticAPIBase
	semanticAPIBase = srv.URL
	defer func() { semanticAPIBase = restore }()

	c := NewSemanticClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	results, err := c.SearchByTitle(context.Background(), "attention is all you need", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p9", results[0].PaperID)
}

func TestAPIKeyHeaderAndLimiterName(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	restore := semanticAPIBase
	semanticAPIBase = srv.URL
	defer func() { semanticAPIBase = restore }()

	reg := ratelimit.NewRegistry()

	cfg := testFetchConfig()
	cfg.SemanticScholarAPIKey = "sekrit"
	c := NewSemanticClient(cfg, reg)
	defer c.Close()

	_, err := c.ResolveIDs(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "sekrit", gotKey)

	// Keyed and keyless clients must not share a limiter.
	keyless := NewSemanticClient(testFetchConfig(), reg)
	defer keyless.Close()
	assert.NotSame(t, c.limiter, keyless.limiter)
}
