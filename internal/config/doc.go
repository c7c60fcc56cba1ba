// Package config loads, normalizes, and validates mediasort configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY. The Config type is passed explicitly into every component
// constructor; nothing reads configuration from package state.
package config
