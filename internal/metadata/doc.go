// Package metadata holds the transport and lookup policies shared by the
// movie (TMDB) and TV (TVmaze) catalog clients.
//
// Fetcher is the single GET path both clients use: it waits on a per-service
// token bucket, stamps the User-Agent, classifies HTTP status codes into the
// services error markers and retries rate-limit and transient failures with
// quadratic back-off. YearWindow and DropLastToken are the named query
// heuristics the reconciler layers on top of a plain search.
package metadata
