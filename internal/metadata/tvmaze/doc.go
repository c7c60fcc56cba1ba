// Package tvmaze is a small client for the public TVmaze API: show search,
// episode by season/number and episodes by air date.
//
// TVmaze asks every client to identify itself, so New refuses an empty
// User-Agent. Show summaries arrive as HTML and are reduced to plain text.
package tvmaze
