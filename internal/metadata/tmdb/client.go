package tmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mediasort/internal/metadata"
)

// Result represents a single TMDB movie match.
type Result struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	Popularity    float64 `json:"popularity"`
}

// Year returns the release year, or "" when TMDB has no release date.
func (r Result) Year() string {
	date := strings.TrimSpace(r.ReleaseDate)
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// Candidate converts a result into the shared candidate shape.
func (r Result) Candidate() metadata.Candidate {
	return metadata.Candidate{
		ExternalID:  r.ID,
		Title:       strings.TrimSpace(r.Title),
		Year:        r.Year(),
		Description: strings.TrimSpace(r.Overview),
	}
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Candidates converts every result, keeping TMDB's order.
func (r *Response) Candidates() []metadata.Candidate {
	if r == nil || len(r.Results) == 0 {
		return nil
	}
	out := make([]metadata.Candidate, 0, len(r.Results))
	for _, result := range r.Results {
		out = append(out, result.Candidate())
	}
	return out
}

// SearchOptions contains optional parameters for TMDB movie search.
type SearchOptions struct {
	Year int `json:"year,omitempty"`
}

// Client provides access to the TMDB API for searches.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	fetcher  *metadata.Fetcher
}

type settings struct {
	httpClient        *http.Client
	retry             metadata.RetryPolicy
	requestsPerSecond float64
	logger            *slog.Logger
}

// Option configures a Client.
type Option func(*settings)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the default retry budget.
func WithRetryPolicy(policy metadata.RetryPolicy) Option {
	return func(s *settings) {
		s.retry = policy
	}
}

// WithRateLimit caps requests per second. Zero disables the limit.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(s *settings) {
		s.requestsPerSecond = requestsPerSecond
	}
}

// WithLogger attaches a logger for request and retry events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	s := settings{retry: metadata.DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: strings.TrimSpace(language),
		fetcher: metadata.NewFetcher(metadata.FetcherOptions{
			Service:           "tmdb",
			UserAgent:         "mediasort",
			RequestsPerSecond: s.requestsPerSecond,
			Retry:             s.retry,
			HTTPClient:        s.httpClient,
			Logger:            s.logger,
		}),
	}, nil
}

// SearchMovie searches TMDB for the supplied title.
func (c *Client) SearchMovie(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := c.baseParams()
	params.Set("query", query)
	params.Set("include_adult", "false")
	if opts.Year > 0 {
		params.Set("year", strconv.Itoa(opts.Year))
	}

	var payload Response
	if err := c.fetcher.GetJSON(ctx, c.endpoint("/search/movie", params), &payload); err != nil {
		return nil, fmt.Errorf("tmdb movie search %q: %w", query, err)
	}
	return &payload, nil
}

// SearchCandidates adapts SearchMovie to metadata.MovieSearchFunc.
func (c *Client) SearchCandidates(ctx context.Context, query string, year int) ([]metadata.Candidate, error) {
	resp, err := c.SearchMovie(ctx, query, SearchOptions{Year: year})
	if err != nil {
		return nil, err
	}
	return resp.Candidates(), nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}

func (c *Client) endpoint(path string, params url.Values) string {
	return c.baseURL + path + "?" + params.Encode()
}
