package tvmaze

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
	"mediasort/internal/textutil"
)

// DefaultBaseURL is the public TVmaze endpoint.
const DefaultBaseURL = "https://api.tvmaze.com"

// Show is the subset of a TVmaze show record mediasort uses.
type Show struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Premiered string `json:"premiered"`
	Summary   string `json:"summary"`
}

// Candidate converts a show into the shared candidate shape.
func (s Show) Candidate() metadata.Candidate {
	return metadata.Candidate{
		ExternalID:  s.ID,
		Title:       strings.TrimSpace(s.Name),
		Status:      strings.TrimSpace(s.Status),
		Description: textutil.StripTags(s.Summary),
	}
}

// SearchResult is one entry of /search/shows.
type SearchResult struct {
	Score float64 `json:"score"`
	Show  Show    `json:"show"`
}

// Episode is a TVmaze episode record.
type Episode struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Airdate string `json:"airdate"`
}

// Client talks to TVmaze through a metadata.Fetcher.
type Client struct {
	baseURL string
	fetcher *metadata.Fetcher
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

// New creates a TVmaze client. userAgent must describe the caller.
func New(baseURL, userAgent string, opts ...Option) (*Client, error) {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, errors.New("tvmaze user agent required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	s := settings{retry: metadata.DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: metadata.NewFetcher(metadata.FetcherOptions{
			Service:           "tvmaze",
			UserAgent:         userAgent,
			RequestsPerSecond: s.requestsPerSecond,
			Retry:             s.retry,
			HTTPClient:        s.httpClient,
			Logger:            s.logger,
		}),
	}, nil
}

// SearchShows runs a show search.
func (c *Client) SearchShows(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("q", query)

	var payload []SearchResult
	if err := c.fetcher.GetJSON(ctx, c.endpoint("/search/shows", params), &payload); err != nil {
		return nil, fmt.Errorf("tvmaze show search %q: %w", query, err)
	}
	return payload, nil
}

// SearchCandidates adapts SearchShows to metadata.ShowSearchFunc.
func (c *Client) SearchCandidates(ctx context.Context, query string) ([]metadata.Candidate, error) {
	results, err := c.SearchShows(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	out := make([]metadata.Candidate, 0, len(results))
	for _, result := range results {
		out = append(out, result.Show.Candidate())
	}
	return out, nil
}

// EpisodeByNumber fetches one episode. An unknown episode returns an error
// marked services.ErrNotFound.
func (c *Client) EpisodeByNumber(ctx context.Context, showID int64, season, number int) (*Episode, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	params := url.Values{}
	params.Set("season", strconv.Itoa(season))
	params.Set("number", strconv.Itoa(number))

	var payload Episode
	path := fmt.Sprintf("/shows/%d/episodebynumber", showID)
	if err := c.fetcher.GetJSON(ctx, c.endpoint(path, params), &payload); err != nil {
		return nil, fmt.Errorf("tvmaze episode S%02dE%02d of show %d: %w", season, number, showID, err)
	}
	return &payload, nil
}

// EpisodesByDate lists the episodes that aired on date (YYYY-MM-DD).
func (c *Client) EpisodesByDate(ctx context.Context, showID int64, date string) ([]Episode, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, errors.New("date must not be empty")
	}
	params := url.Values{}
	params.Set("date", date)

	var payload []Episode
	path := fmt.Sprintf("/shows/%d/episodesbydate", showID)
	if err := c.fetcher.GetJSON(ctx, c.endpoint(path, params), &payload); err != nil {
		return nil, fmt.Errorf("tvmaze episodes of show %d on %s: %w", showID, date, err)
	}
	return payload, nil
}

func (c *Client) endpoint(path string, params url.Values) string {
	return c.baseURL + path + "?" + params.Encode()
}
