// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch implements the metadata provider clients (Semantic Scholar,
// CrossRef, DBLP, arXiv) and the source selector that picks exactly one of
// them as the source of truth for a paper.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/bibcheck/internal/httputil"
	"github.com/pdiddy/bibcheck/internal/ratelimit"
	"github.com/pdiddy/bibcheck/pkg/types"
)

// semanticAPIBase is the Semantic Scholar graph API root. Declared as a var
// so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

// resolveFields is the field list requested for identifier resolution.
const resolveFields = "paperId,externalIds,venue,title"

// searchFields additionally requests the year so title-search candidates
// can be ranked and displayed.
const searchFields = "paperId,externalIds,venue,title,year"

// batchSize is the Semantic Scholar /paper/batch limit per request.
const batchSize = 500

// Rate limits. Keyed traffic paces against its own quota, so the two
// intervals register under different limiter names.
const (
	semanticInterval      = time.Second
	semanticKeyedInterval = 100 * time.Millisecond
)

// bareArxivPattern matches a modern arXiv identifier with no namespace
// prefix, e.g. "2106.09685" or "2106.09685v2".
var bareArxivPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

// SemanticClient resolves paper identifiers through the Semantic Scholar
// graph API.
type SemanticClient struct {
	client     *http.Client
	limiter    *ratelimit.Limiter
	apiKey     string
	userAgent  string
	maxRetries int
}

// NewSemanticClient builds a client from cfg, registering its rate limiter
// in reg under a name that separates keyed from keyless quota.
func NewSemanticClient(cfg types.FetchConfig, reg *ratelimit.Registry) *SemanticClient {
	name, interval := "semantic-scholar", semanticInterval
	if cfg.SemanticScholarAPIKey != "" {
		name, interval = "semantic-scholar-keyed", semanticKeyedInterval
	}

	return &SemanticClient{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    reg.Get(name, interval),
		apiKey:     cfg.SemanticScholarAPIKey,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// Close releases idle connections. Safe to call more than once.
func (c *SemanticClient) Close() {
	c.client.CloseIdleConnections()
}

// NormalizePaperID puts an identifier into the form the graph API expects:
// "ARXIV:"/"DOI:" prefixes upper-cased, bare modern arXiv IDs prefixed
// with "ARXIV:", everything else passed through.
func NormalizePaperID(id string) string {
	id = strings.TrimSpace(id)
	switch {
	case len(id) > 6 && strings.EqualFold(id[:6], "arxiv:"):
		return "ARXIV:" + id[6:]
	case len(id) > 4 && strings.EqualFold(id[:4], "doi:"):
		return "DOI:" + id[4:]
	case bareArxivPattern.MatchString(id):
		return "ARXIV:" + id
	default:
		return id
	}
}

// ResolveIDs looks up the external identifiers for one paper. Returns
// (nil, nil) when the resolver has no such paper.
func (c *SemanticClient) ResolveIDs(ctx context.Context, paperID string) (*types.ResolvedIDs, error) {
	params := url.Values{"fields": {resolveFields}}
	// DOIs contain slashes that the API expects unescaped in the path.
	reqURL := semanticAPIBase + "/paper/" + NormalizePaperID(paperID) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.client, c.limiter, req, c.maxRetries)
	if err != nil {
		return nil, &ProviderError{Provider: "semantic-scholar", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "semantic-scholar", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var paper resolvePaper
	if err := json.NewDecoder(resp.Body).Decode(&paper); err != nil {
		return nil, &ProviderError{Provider: "semantic-scholar", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return paper.toResolvedIDs(), nil
}

// ResolveIDsBatch resolves identifiers in bulk through /paper/batch,
// splitting the input into chunks of 500. The result maps each input
// identifier to its resolution; identifiers the resolver does not know are
// absent from the map. The batch endpoint returns results positionally with
// nulls for unknown papers, so the correspondence to inputs is exact.
func (c *SemanticClient) ResolveIDsBatch(ctx context.Context, paperIDs []string) (map[string]*types.ResolvedIDs, error) {
	results := make(map[string]*types.ResolvedIDs, len(paperIDs))

	for start := 0; start < len(paperIDs); start += batchSize {
		end := start + batchSize
		if end > len(paperIDs) {
			end = len(paperIDs)
		}
		chunk := paperIDs[start:end]

		normalized := make([]string, len(chunk))
		for i, id := range chunk {
			normalized[i] = NormalizePaperID(id)
		}

		papers, err := c.resolveChunk(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if len(papers) != len(chunk) {
			return nil, &ProviderError{
				Provider: "semantic-scholar",
				Err:      fmt.Errorf("batch returned %d results for %d identifiers", len(papers), len(chunk)),
			}
		}

		for i, paper := range papers {
			if paper == nil {
				continue
			}
			results[chunk[i]] = paper.toResolvedIDs()
		}
	}

	return results, nil
}

func (c *SemanticClient) resolveChunk(ctx context.Context, ids []string) ([]*resolvePaper, error) {
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("encoding batch request: %w", err)
	}

	params := url.Values{"fields": {resolveFields}}
	reqURL := semanticAPIBase + "/paper/batch?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.client, c.limiter, req, c.maxRetries)
	if err != nil {
		return nil, &ProviderError{Provider: "semantic-scholar", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "semantic-scholar", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var papers []*resolvePaper
	if err := json.NewDecoder(resp.Body).Decode(&papers); err != nil {
		return nil, &ProviderError{Provider: "semantic-scholar", Err: fmt.Errorf("parsing batch response: %w", err)}
	}
	return papers, nil
}

// SearchByTitle runs a relevance search and returns up to limit candidate
// resolutions. Returns an empty slice when nothing matches.
func (c *SemanticClient) SearchByTitle(ctx context.Context, title string, limit int) ([]*types.ResolvedIDs, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{
		"query":  {title},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {searchFields},
	}
	reqURL := semanticAPIBase + "/paper/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.client, c.limiter, req, c.maxRetries)
	if err != nil {
		return nil, &ProviderError{Provider: "semantic-scholar", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "semantic-scholar", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &ProviderError{Provider: "semantic-scholar", Err: fmt.Errorf("parsing search response: %w", err)}
	}

	out := make([]*types.ResolvedIDs, 0, len(sr.Data))
	for _, paper := range sr.Data {
		out = append(out, paper.toResolvedIDs())
	}
	return out, nil
}

func (c *SemanticClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}

// Semantic Scholar API JSON structures.
type searchResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []*resolvePaper `json:"data"`
}

type resolvePaper struct {
	PaperID     string              `json:"paperId"`
	Title       string              `json:"title"`
	Venue       string              `json:"venue"`
	Year        int                 `json:"year"`
	ExternalIDs semanticExternalIDs `json:"externalIds"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
	DBLP  string `json:"DBLP"`
}

// toResolvedIDs converts an API record. arXiv-issued DOIs (the 10.48550
// registrations, spelled with "arxiv" in the suffix) are dropped: they
// carry no publication venue and would misroute fetching to CrossRef.
func (p *resolvePaper) toResolvedIDs() *types.ResolvedIDs {
	doi := p.ExternalIDs.DOI
	if strings.Contains(strings.ToLower(doi), "arxiv") {
		doi = ""
	}
	return &types.ResolvedIDs{
		PaperID: p.PaperID,
		DOI:     doi,
		ArxivID: p.ExternalIDs.ArXiv,
		DBLPID:  p.ExternalIDs.DBLP,
		Venue:   p.Venue,
		Title:   p.Title,
	}
}
