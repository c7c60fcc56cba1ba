// Package logging assembles structured slog loggers and formatting helpers used
// across mediasort components.
//
// It owns the console/JSON handlers, level parsing, and output plumbing
// (stderr plus a size-rotated log file), and exposes context-aware helpers so
// pipeline code automatically tags log lines with the run identifier, phase,
// and file name. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
