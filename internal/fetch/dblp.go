// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/bibcheck/internal/httputil"
	"github.com/pdiddy/bibcheck/internal/ratelimit"
	"github.com/pdiddy/bibcheck/internal/venue"
	"github.com/pdiddy/bibcheck/pkg/types"
)

// dblpAPIBase is the DBLP publication search endpoint. Declared as a var so
// tests can substitute an httptest server.
var dblpAPIBase = "https://dblp.org/search/publ/api"

const (
	dblpInterval = time.Second
	dblpMaxHits  = 10
)

// homonymSuffix matches the numeric suffix DBLP appends to author names to
// distinguish homonyms ("Wei Zhang 0004").
var homonymSuffix = regexp.MustCompile(`\s+\d{4}$`)

// nonAlphanumeric is used for title equality after punctuation stripping.
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// DBLPClient searches DBLP for the published version of a paper.
type DBLPClient struct {
	client     *http.Client
	limiter    *ratelimit.Limiter
	userAgent  string
	maxRetries int
}

// NewDBLPClient builds a client from cfg, registering its rate limiter in reg.
func NewDBLPClient(cfg types.FetchConfig, reg *ratelimit.Registry) *DBLPClient {
	return &DBLPClient{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    reg.Get("dblp", dblpInterval),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// Close releases idle connections. Safe to call more than once.
func (c *DBLPClient) Close() {
	c.client.CloseIdleConnections()
}

// SearchByTitle looks up the published record for a title, narrowing the
// query with the venue when given. Preprint records (journals/corr keys)
// are skipped, and a hit must match the title exactly after punctuation and
// case are stripped. Returns (nil, nil) when no hit qualifies.
func (c *DBLPClient) SearchByTitle(ctx context.Context, title, venueName string) (*types.PaperMetadata, error) {
	query := strings.TrimSpace(title)
	if query == "" {
		return nil, nil
	}
	if venueName != "" {
		query += " " + venue.DBLPSearchName(venueName)
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"h":      {strconv.Itoa(dblpMaxHits)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dblpAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, c.limiter, req, c.maxRetries)
	if err != nil {
		return nil, &ProviderError{Provider: "dblp", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "dblp", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var dr dblpResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, &ProviderError{Provider: "dblp", Err: fmt.Errorf("parsing response: %w", err)}
	}

	for _, hit := range dr.Result.Hits.Hit {
		info := hit.Info
		if strings.HasPrefix(info.Key, "journals/corr") {
			continue
		}
		if !titlesEqual(title, info.Title) {
			continue
		}
		return info.toMetadata(), nil
	}
	return nil, nil
}

// titlesEqual compares titles after lower-casing, stripping punctuation,
// and dropping the trailing period DBLP appends to titles.
func titlesEqual(a, b string) bool {
	return foldTitle(a) == foldTitle(b)
}

func foldTitle(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	s = nonAlphanumeric.ReplaceAllString(strings.ToLower(s), " ")
	return strings.TrimSpace(s)
}

// DBLP API JSON structures.
type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []dblpHit `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpHit struct {
	Info dblpInfo `json:"info"`
}

type dblpInfo struct {
	Key     string          `json:"key"`
	Title   string          `json:"title"`
	Venue   string          `json:"venue"`
	Year    string          `json:"year"`
	DOI     string          `json:"doi"`
	Authors dblpAuthorField `json:"authors"`
}

// dblpAuthorField decodes DBLP's authors wrapper, which serializes a single
// author as an object and multiple authors as an array.
type dblpAuthorField struct {
	Author []dblpAuthor
}

type dblpAuthor struct {
	Text string `json:"text"`
}

func (f *dblpAuthorField) UnmarshalJSON(data []byte) error {
	var multi struct {
		Author []dblpAuthor `json:"author"`
	}
	if err := json.Unmarshal(data, &multi); err == nil {
		f.Author = multi.Author
		return nil
	}

	var single struct {
		Author dblpAuthor `json:"author"`
	}
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	f.Author = []dblpAuthor{single.Author}
	return nil
}

// toMetadata converts a DBLP hit. Author names arrive in natural order
// with possible homonym suffixes; the suffix is dropped and the final
// token becomes the family name.
func (i dblpInfo) toMetadata() *types.PaperMetadata {
	meta := &types.PaperMetadata{
		Title:  strings.TrimSuffix(strings.TrimSpace(i.Title), "."),
		Venue:  i.Venue,
		DOI:    i.DOI,
		Source: types.SourceDBLP,
	}
	if y, err := strconv.Atoi(i.Year); err == nil {
		meta.Year = y
	}
	for _, a := range i.Authors.Author {
		name := homonymSuffix.ReplaceAllString(strings.TrimSpace(a.Text), "")
		if name == "" {
			continue
		}
		if idx := strings.LastIndex(name, " "); idx >= 0 {
			meta.Authors = append(meta.Authors, types.Author{Given: name[:idx], Family: name[idx+1:]})
		} else {
			meta.Authors = append(meta.Authors, types.Author{Family: name})
		}
	}
	return meta
}
