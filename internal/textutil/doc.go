// Package textutil provides small text helpers shared by the metadata clients,
// the reconciler, and the terminal prompts: path-segment sanitization for
// catalog titles, HTML stripping for summaries, and rune-safe truncation.
package textutil
