// Package services defines shared utilities consumed by the sort pipeline
// components.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, archive phases, and file
//     names for logging.
//   - Structured error markers plus the Wrap helper that classify per-file
//     failures (parse, resolution, abort, conflict) into batch dispositions.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across movies and TV.
package services
