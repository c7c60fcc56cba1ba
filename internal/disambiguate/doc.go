// Package disambiguate selects one catalog candidate out of a search result.
//
// Zero candidates is "no match" and one candidate is taken as is; neither
// asks anybody anything. Several candidates are handed to a Chooser, which is
// the terminal in production and a scripted answer list in tests. Nothing in
// this package scores or guesses.
package disambiguate
