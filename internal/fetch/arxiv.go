// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
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

// arxivAPIBase is the arXiv Atom query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "http://export.arxiv.org/api/query"

// arXiv asks automated clients to stay around one request every three seconds.
const arxivInterval = 3 * time.Second

// versionSuffix matches the trailing version marker on an arXiv ID.
var versionSuffix = regexp.MustCompile(`v\d+$`)

// ArxivClient fetches preprint metadata from the arXiv Atom API.
type ArxivClient struct {
	client     *http.Client
	limiter    *ratelimit.Limiter
	userAgent  string
	maxRetries int
}

// NewArxivClient builds a client from cfg, registering its rate limiter in reg.
func NewArxivClient(cfg types.FetchConfig, reg *ratelimit.Registry) *ArxivClient {
	return &ArxivClient{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    reg.Get("arxiv", arxivInterval),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// Close releases idle connections. Safe to call more than once.
func (c *ArxivClient) Close() {
	c.client.CloseIdleConnections()
}

// NormalizeArxivID strips the "arXiv:" prefix and any version suffix and
// lower-cases the identifier.
func NormalizeArxivID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}
	return versionSuffix.ReplaceAllString(strings.ToLower(id), "")
}

// Metadata fetches the record for one arXiv ID. The venue is always
// "arXiv". Returns (nil, nil) when arXiv has no such paper.
func (c *ArxivClient) Metadata(ctx context.Context, arxivID string) (*types.PaperMetadata, error) {
	id := NormalizeArxivID(arxivID)
	if id == "" {
		return nil, nil
	}

	params := url.Values{"id_list": {id}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, c.limiter, req, c.maxRetries)
	if err != nil {
		return nil, &ProviderError{Provider: "arxiv", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "arxiv", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, &ProviderError{Provider: "arxiv", Err: fmt.Errorf("parsing Atom feed: %w", err)}
	}

	// An unknown ID comes back as an empty feed or an entry with no title.
	if len(feed.Entries) == 0 {
		return nil, nil
	}
	entry := feed.Entries[0]
	title := collapseSpace(entry.Title)
	if title == "" {
		return nil, nil
	}

	meta := &types.PaperMetadata{
		Title:   title,
		Venue:   "arXiv",
		ArxivID: id,
		Source:  types.SourceArxiv,
	}
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		meta.Year = t.Year()
	}
	for _, a := range entry.Authors {
		if author, ok := parseArxivAuthor(a.Name); ok {
			meta.Authors = append(meta.Authors, author)
		}
	}
	return meta, nil
}

// parseArxivAuthor splits a natural-order name into given and family parts.
// Organization placeholders (short tokens, all-caps acronyms, entries with
// no letters) are filtered out.
func parseArxivAuthor(name string) (types.Author, bool) {
	name = collapseSpace(name)
	if len(name) <= 2 || !strings.ContainsFunc(name, isLetter) {
		return types.Author{}, false
	}

	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		if name == strings.ToUpper(name) {
			return types.Author{}, false
		}
		return types.Author{Family: name}, true
	}
	return types.Author{Given: name[:idx], Family: name[idx+1:]}, true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed structures.
type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}
