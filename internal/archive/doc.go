// Package archive moves identified media from the download area into the
// canonical library through an intermediate staging directory.
//
// An Executor works in phases: Stage moves candidate files out of the
// download directory (flattened, filtered by extension, size, and the word
// "sample"), Rename gives each identified file its canonical name in place,
// Archive shows the plan for confirmation and moves files into the library,
// and Cleanup either trashes the leftovers or, when nothing was archived,
// moves every staged file back to where it came from.
//
// Nothing is ever deleted outright. Overwritten library entries and cleanup
// leftovers go to the trash directory.
package archive
