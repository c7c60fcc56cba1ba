// Package mediaparse turns loosely named download filenames into structured
// identifiers.
//
// Episode names are matched against a fixed, ordered list of marker
// grammars (multi-episode, SxxEyy, dated, 1x02, loose SxxEyy); the first
// grammar that matches wins and nothing is guessed when none do. Movie names
// are keyed on a single four digit release year. The package performs no I/O.
package mediaparse
