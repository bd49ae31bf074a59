// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibcheck/internal/ratelimit"
	"github.com/pdiddy/bibcheck/pkg/types"
)

const crossrefWorkJSON = `{"message": {
	"title": ["Attention Is All You Need"],
	"container-title": ["Advances in Neural Information Processing Systems"],
	"author": [
		{"given": "Ashish", "family": "Vaswani"},
		{"given": "Noam", "family": "Shazeer"}
	],
	"published": {"date-parts": [[2017, 12]]},
	"issued": {"date-parts": [[2018]]}
}}`

func TestWork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/10.5555/3295222", r.URL.Path)
		io.WriteString(w, crossrefWorkJSON)
	}))
	defer srv.Close()
	restore := crossrefAPIBase
	crossrefAPIBase = srv.URL
	defer func() { crossrefAPIBase = restore }()

	c := NewCrossRefClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	meta, err := c.Work(context.Background(), "DOI:10.5555/3295222")
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "Attention Is All You Need", meta.Title)
	assert.Equal(t, "Advances in Neural Information Processing Systems", meta.Venue)
	assert.Equal(t, 2017, meta.Year, "published date wins over issued date")
	assert.Equal(t, "10.5555/3295222", meta.DOI, "DOI: prefix is stripped")
	assert.Equal(t, types.SourceCrossRef, meta.Source)
	require.Len(t, meta.Authors, 2)
	assert.Equal(t, types.Author{Given: "Ashish", Family: "Vaswani"}, meta.Authors[0])
}

func TestWorkNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	restore := crossrefAPIBase
	crossrefAPIBase = srv.URL
	defer func() { crossrefAPIBase = restore }()

	c := NewCrossRefClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	meta, err := c.Work(context.Background(), "10.9999/nothing")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestWorkMissingTitleIsAbsence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message": {"title": [], "issued": {"date-parts": [[2020]]}}}`)
	}))
	defer srv.Close()
	restore := crossrefAPIBase
	crossrefAPIBase = srv.URL
	defer func() { crossrefAPIBase = restore }()

	c := NewCrossRefClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	meta, err := c.Work(context.Background(), "10.1/untitled")
	require.NoError(t, err)
	assert.Nil(t, meta, "a record with no title is unusable and must read as absence")
}

func TestWorkIssuedFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message": {"title": ["X"], "issued": {"date-parts": [[2019, 6, 1]]}}}`)
	}))
	defer srv.Close()
	restore := crossrefAPIBase
	crossrefAPIBase = srv.URL
	defer func() { crossrefAPIBase = restore }()

	c := NewCrossRefClient(testFetchConfig(), ratelimit.NewRegistry())
	defer c.Close()

	meta, err := c.Work(context.Background(), "10.1/x")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 2019, meta.Year)
}
