// Package arxiv implements the arXiv export API client used for paper
// search and batch metadata lookup.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/papersources"
)

const (
	// DefaultBaseURL is the default arXiv export API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default rate limit (3 requests per second),
	// matching arXiv's published usage policy.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per search.
	DefaultMaxResults = 10

	// DefaultMaxRetries is the number of attempts for a failing request.
	DefaultMaxRetries = 3

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// arxivIDRegex extracts the arXiv ID from the entry URL.
// Matches "http://arxiv.org/abs/2301.12345v1" and "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(v\d+)?$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv export API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum results to return per search request.
	MaxResults int

	// MaxRetries is the maximum number of retry attempts per request.
	MaxRetries int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
}

// Client is a rate-limited arXiv export API client.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
		UserAgent:  "LitXplore/1.0",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries arXiv for papers relevant to the query. An empty
// result is not an error. When the plain query yields nothing the
// search is repeated once with an "all:" field prefix, which matches
// across every metadata field.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query", "search query is required")
	}
	if maxResults <= 0 {
		maxResults = c.config.MaxResults
	}

	papers, err := c.search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return c.search(ctx, "all:"+query, maxResults)
	}
	return papers, nil
}

func (c *Client) search(ctx context.Context, searchQuery string, maxResults int) ([]domain.Paper, error) {
	query := url.Values{}
	query.Set("search_query", searchQuery)
	query.Set("max_results", strconv.Itoa(maxResults))
	query.Set("sortBy", "relevance")
	query.Set("sortOrder", "descending")

	feed, err := c.fetchFeed(ctx, query)
	if err != nil {
		return nil, err
	}

	return feedToPapers(feed), nil
}

// FetchByIDs retrieves papers by arXiv ID in a single id_list request.
// Version suffixes should be stripped by the caller; arXiv then returns
// the latest version of each paper. IDs that resolve to nothing are
// silently absent from the result.
func (c *Client) FetchByIDs(ctx context.Context, ids []string) ([]domain.Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("id_list", strings.Join(ids, ","))
	query.Set("max_results", strconv.Itoa(len(ids)))

	feed, err := c.fetchFeed(ctx, query)
	if err != nil {
		return nil, err
	}

	return feedToPapers(feed), nil
}

// fetchFeed executes a query against the export API and decodes the
// Atom response.
func (c *Client) fetchFeed(ctx context.Context, query url.Values) (*Feed, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	// Limit body to 10MB; a search response is far smaller.
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &feed, nil
}

func feedToPapers(feed *Feed) []domain.Paper {
	papers := make([]domain.Paper, 0, len(feed.Entries))
	for i := range feed.Entries {
		if paper, ok := entryToPaper(&feed.Entries[i]); ok {
			papers = append(papers, paper)
		}
	}
	return papers
}

// entryToPaper converts an arXiv Atom entry to a domain Paper.
func entryToPaper(entry *Entry) (domain.Paper, bool) {
	arxivID := extractArXivID(entry.ID)
	if arxivID == "" {
		return domain.Paper{}, false
	}

	var published time.Time
	if entry.Published != "" {
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			published = t
		}
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	pageURL := ""
	for _, link := range entry.Links {
		if link.Rel == "alternate" {
			pageURL = link.Href
			break
		}
	}
	if pageURL == "" {
		pageURL = "https://arxiv.org/abs/" + arxivID
	}

	return domain.Paper{
		ID:        arxivID,
		Title:     normalizeWhitespace(entry.Title),
		Authors:   authors,
		Summary:   normalizeWhitespace(entry.Summary),
		Published: published,
		URL:       pageURL,
		Source:    domain.PaperSourceArXiv,
	}, true
}

// extractArXivID extracts the bare arXiv ID from the entry URL,
// dropping any version suffix.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// normalizeWhitespace trims and collapses runs of whitespace. arXiv
// titles and abstracts arrive with embedded newlines and indentation.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
