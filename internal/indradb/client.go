// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package indradb retrieves statements and their per-source evidence counts
// from the INDRA DB REST API.
// See docs/ARCHITECTURE § Statement Fetcher.
package indradb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pdiddy/channel-evidence/internal/httputil"
	"github.com/pdiddy/channel-evidence/pkg/types"
)

// DefaultBaseURL is the public INDRA DB REST endpoint.
const DefaultBaseURL = "https://db.indra.bio"

const (
	defaultEvidenceLimit = 100
	defaultMaxPages      = 10
	defaultCacheTTL      = time.Hour
)

// FetchOptions controls a single statement query.
type FetchOptions struct {
	// EvidenceLimit caps the evidence returned per statement.
	EvidenceLimit int

	// BestFirst orders statements by evidence count on the server.
	BestFirst bool
}

// Batch is the response for one gene: statements plus the source-count
// table for exactly those statements' hashes.
type Batch struct {
	Statements     []*types.Statement
	SourceCounts   types.SourceCounts
	EvidenceTotals map[string]int
}

// Fetcher retrieves the statements mentioning a gene.
type Fetcher interface {
	Fetch(ctx context.Context, gene string, opts FetchOptions) (*Batch, error)
}

// Client is the HTTP Fetcher for the INDRA DB REST API.
type Client struct {
	BaseURL   string
	APIKey    string
	UserAgent string

	// MaxPages bounds offset paging per query.
	MaxPages int

	doer  *httputil.Doer
	cache *gocache.Cache
}

// NewClient builds a Client from cfg. Responses are memoized for
// cfg.CacheTTL so repeated genes cost one request per run.
func NewClient(httpClient *http.Client, cfg types.FetchConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Client{
		BaseURL:   baseURL,
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
		MaxPages:  maxPages,
		doer:      httputil.NewDoer(httpClient, cfg.RequestsPerSecond, cfg.MaxRetries),
		cache:     gocache.New(ttl, 2*ttl),
	}
}

// Doer exposes the underlying request executor, e.g. to attach an OnRetry hook.
func (c *Client) Doer() *httputil.Doer { return c.doer }

// Fetch returns the statements mentioning gene. Pages are followed until
// the server reports no further offset or MaxPages is reached.
func (c *Client) Fetch(ctx context.Context, gene string, opts FetchOptions) (*Batch, error) {
	if gene == "" {
		return nil, fmt.Errorf("empty gene symbol")
	}
	if opts.EvidenceLimit <= 0 {
		opts.EvidenceLimit = defaultEvidenceLimit
	}

	key := cacheKey(gene, opts)
	if v, ok := c.cache.Get(key); ok {
		return v.(*Batch), nil
	}

	var pages []*statementsResponse
	offset := 0
	for page := 0; page < c.MaxPages; page++ {
		resp, err := c.fetchPage(ctx, gene, opts, offset)
		if err != nil {
			return nil, fmt.Errorf("fetching statements for %s: %w", gene, err)
		}
		pages = append(pages, resp)
		if resp.Offset == nil || len(resp.Statements) == 0 || *resp.Offset <= offset {
			break
		}
		offset = *resp.Offset
	}

	batch, err := mergePages(pages)
	if err != nil {
		return nil, fmt.Errorf("decoding statements for %s: %w", gene, err)
	}
	c.cache.SetDefault(key, batch)
	return batch, nil
}

func cacheKey(gene string, opts FetchOptions) string {
	return fmt.Sprintf("%s|%d|%t", gene, opts.EvidenceLimit, opts.BestFirst)
}

// statementsResponse mirrors the from_agents JSON response.
type statementsResponse struct {
	Statements     map[string]json.RawMessage `json:"statements"`
	SourceCounts   map[string]map[string]int  `json:"source_counts"`
	EvidenceTotals map[string]int             `json:"evidence_totals"`
	Offset         *int                       `json:"offset"`
}

func (c *Client) fetchPage(ctx context.Context, gene string, opts FetchOptions, offset int) (*statementsResponse, error) {
	params := url.Values{
		"agent0":     {gene},
		"ev_limit":   {strconv.Itoa(opts.EvidenceLimit)},
		"best_first": {strconv.FormatBool(opts.BestFirst)},
		"format":     {"json"},
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}

	reqURL := c.BaseURL + "/statements/from_agents?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("INDRA DB request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("INDRA DB returned HTTP %d", resp.StatusCode)
	}

	var sr statementsResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing INDRA DB response: %w", err)
	}
	return &sr, nil
}

// mergePages combines pages into one Batch. Statements are ordered by
// evidence total, descending, then by hash, since the response map has no
// stable order.
func mergePages(pages []*statementsResponse) (*Batch, error) {
	b := &Batch{
		SourceCounts:   make(types.SourceCounts),
		EvidenceTotals: make(map[string]int),
	}
	seen := make(map[string]bool)
	for _, p := range pages {
		for key, raw := range p.Statements {
			stmt, err := decodeStatement(key, raw)
			if err != nil {
				return nil, err
			}
			if seen[stmt.Hash] {
				continue
			}
			seen[stmt.Hash] = true
			b.Statements = append(b.Statements, stmt)
		}
		for h, counts := range p.SourceCounts {
			b.SourceCounts[h] = counts
		}
		for h, n := range p.EvidenceTotals {
			b.EvidenceTotals[h] = n
		}
	}

	sort.SliceStable(b.Statements, func(i, j int) bool {
		ti, tj := b.EvidenceTotals[b.Statements[i].Hash], b.EvidenceTotals[b.Statements[j].Hash]
		if ti != tj {
			return ti > tj
		}
		return b.Statements[i].Hash < b.Statements[j].Hash
	})
	return b, nil
}
