// Package history records every file mediasort archives in a small SQLite
// database (state_dir/history.db): which run moved it, what it was called,
// what it became and where it went.
//
// The engine only writes to it; `mediasort history` reads it back. The schema
// is versioned the same way as other mediasort stores: a mismatch asks the
// operator to delete the file rather than migrating in place.
package history
