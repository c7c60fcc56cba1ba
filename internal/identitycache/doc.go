// Package identitycache remembers which show each normalized title resolved
// to during one run, so every episode of a show after the first skips the
// catalog search and the operator prompt.
//
// Keys are case-folded encoded titles. Two different shows whose titles
// fold to the same key are treated as one show; this is a known limitation,
// not something the cache tries to detect. Nothing is persisted.
package identitycache
