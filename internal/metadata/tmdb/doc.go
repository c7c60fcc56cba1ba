// Package tmdb provides the minimal TMDB API client used to identify movies.
//
// It authenticates requests with an API key and exposes year-filtered movie
// search plus movie detail retrieval. All requests go through a
// metadata.Fetcher, so rate limiting and retries are shared with the TV
// client. Options let tests supply an httptest client and a fast retry policy.
package tmdb
