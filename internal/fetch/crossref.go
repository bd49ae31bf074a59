// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/bibcheck/internal/httputil"
	"github.com/pdiddy/bibcheck/internal/ratelimit"
	"github.com/pdiddy/bibcheck/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

const crossrefInterval = 100 * time.Millisecond

// CrossRefClient fetches publication metadata by DOI.
type CrossRefClient struct {
	client     *http.Client
	limiter    *ratelimit.Limiter
	userAgent  string
	maxRetries int
}

// NewCrossRefClient builds a client from cfg, registering its rate limiter
// in reg. CrossRef asks polite clients to send an identifying User-Agent.
func NewCrossRefClient(cfg types.FetchConfig, reg *ratelimit.Registry) *CrossRefClient {
	return &CrossRefClient{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    reg.Get("crossref", crossrefInterval),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// Close releases idle connections. Safe to call more than once.
func (c *CrossRefClient) Close() {
	c.client.CloseIdleConnections()
}

// Work fetches the metadata record for a DOI. A leading "DOI:" prefix is
// stripped. Returns (nil, nil) when CrossRef has no record for the DOI or
// the record carries no title.
func (c *CrossRefClient) Work(ctx context.Context, doi string) (*types.PaperMetadata, error) {
	doi = strings.TrimSpace(doi)
	if len(doi) > 4 && strings.EqualFold(doi[:4], "doi:") {
		doi = doi[4:]
	}
	if doi == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+"/"+doi, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, c.limiter, req, c.maxRetries)
	if err != nil {
		return nil, &ProviderError{Provider: "crossref", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "crossref", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, &ProviderError{Provider: "crossref", Err: fmt.Errorf("parsing response: %w", err)}
	}

	work := cr.Message
	if len(work.Title) == 0 || work.Title[0] == "" {
		return nil, nil
	}

	meta := &types.PaperMetadata{
		Title:  work.Title[0],
		Year:   work.year(),
		DOI:    doi,
		Source: types.SourceCrossRef,
	}
	if len(work.ContainerTitle) > 0 {
		meta.Venue = work.ContainerTitle[0]
	}
	for _, a := range work.Author {
		meta.Authors = append(meta.Authors, types.Author{Given: a.Given, Family: a.Family})
	}
	return meta, nil
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title          []string         `json:"title"`
	ContainerTitle []string         `json:"container-title"`
	Author         []crossrefAuthor `json:"author"`
	Published      crossrefDate     `json:"published"`
	Issued         crossrefDate     `json:"issued"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// year extracts the publication year, preferring the published date over
// the issued date.
func (w crossrefWork) year() int {
	for _, d := range []crossrefDate{w.Published, w.Issued} {
		if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
			return d.DateParts[0][0]
		}
	}
	return 0
}
