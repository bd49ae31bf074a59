// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibcheck/internal/ratelimit"
	"github.com/pdiddy/bibcheck/pkg/types"
)

func dblpServer(t *testing.T, hitsJSON string, wantQuery string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantQuery != "" {
			assert.Equal(t, wantQuery, r.URL.Query().Get("q"))
		}
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		fmt.Fprintf(w, `{"result": {"hits": {"hit": %s}}}`, hitsJSON)
	}))
}

func TestSearchByTitleMultipleAuthors(t *testing.T) {
	srv := dblpServer(t, `[{"info": {
		"key": "conf/nips/VaswaniSPUJGKP17",
		"title": "Attention Is All You Need.",
		"venue": "NIPS",
		"year": "2017",
		"authors": {"author": [
			{"text": "Ashish Vaswani"},
			{"text": "Wei Zhang 0004"}
		]}
	}}]`, "Attention Is All You Need NIPS")
	defer srv.Close()
	restore := dblpAPIBase
	dblpAPIBase = srv.URL
	defer func() { dblpAPIBase = restore }()

	c := NewDBLPClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	meta, err := c.SearchByTitle(context.Background(), "Attention Is All You Need", "NeurIPS")
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "Attention Is All You Need", meta.Title, "DBLP's trailing period is dropped")
	assert.Equal(t, types.SourceDBLP, meta.Source)
	assert.Equal(t, 2017, meta.Year)
	require.Len(t, meta.Authors, 2)
	assert.Equal(t, types.Author{Given: "Ashish", Family: "Vaswani"}, meta.Authors[0])
	assert.Equal(t, types.Author{Given: "Wei", Family: "Zhang"}, meta.Authors[1], "homonym suffix is stripped")
}

func TestSearchByTitleSingleAuthorObject(t *testing.T) {
	srv := dblpServer(t, `[{"info": {
		"key": "conf/colt/Solo20",
		"title": "A Lonely Result",
		"venue": "COLT",
		"year": "2020",
		"authors": {"author": {"text": "Ada Lovelace"}}
	}}]`, "")
	defer srv.Close()
	restore := dblpAPIBase
	dblpAPIBase = srv.URL
	defer func() { dblpAPIBase = restore }()

	c := NewDBLPClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	meta, err := c.SearchByTitle(context.Background(), "A Lonely Result", "")
	require.NoError(t, err)
	require.NotNil(t, meta)
	require.Len(t, meta.Authors, 1)
	assert.Equal(t, types.Author{Given: "Ada", Family: "Lovelace"}, meta.Authors[0])
}

func TestSearchByTitleSkipsPreprintRecords(t *testing.T) {
	srv := dblpServer(t, `[
		{"info": {"key": "journals/corr/abs-1706-03762", "title": "Attention Is All You Need", "venue": "CoRR", "year": "2017"}},
		{"info": {"key": "conf/nips/Vaswani17", "title": "Attention Is All You Need.", "venue": "NIPS", "year": "2017"}}
	]`, "")
	defer srv.Close()
	restore := dblpAPIBase
	dblpAPIBase = srv.URL
	defer func() { dblpAPIBase = restore }()

	c := NewDBLPClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	meta, err := c.SearchByTitle(context.Background(), "Attention Is All You Need", "")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "NIPS", meta.Venue, "journals/corr records must be skipped")
}

func TestSearchByTitleRejectsDifferentTitles(t *testing.T) {
	srv := dblpServer(t, `[{"info": {"key": "conf/nips/Other17", "title": "A Different Paper", "venue": "NIPS", "year": "2017"}}]`, "")
	defer srv.Close()
	restore := dblpAPIBase
	dblpAPIBase = srv.URL
	defer func() { dblpAPIBase = restore }()

	c := NewDBLPClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	meta, err := c.SearchByTitle(context.Background(), "Attention Is All You Need", "")
	require.NoError(t, err)
	assert.Nil(t, meta, "near misses are absence, not a fuzzy match")
}

func TestFoldTitle(t *testing.T) {
	assert.Equal(t, foldTitle("Attention Is All You Need."), foldTitle("attention is all you need"))
	assert.Equal(t, foldTitle("BERT: Pre-training!"), foldTitle("bert pre training"))
	assert.NotEqual(t, foldTitle("Attention Is All You Need"), foldTitle("Attention Is All We Need"))
}

func TestSearchByTitleEmptyQuery(t *testing.T) {
	c := NewDBLPClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	meta, err := c.SearchByTitle(context.Background(), "   ", "NeurIPS")
	require.NoError(t, err)
	assert.Nil(t, meta)
}
