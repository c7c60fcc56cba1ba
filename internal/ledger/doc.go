// Package ledger keeps the append-only list of files whose identification
// failed for good, so later runs skip them instead of querying the catalogs
// again.
//
// The file holds one entry per line, "filename<TAB>reason<TAB>timestamp",
// with blank lines and # comments ignored. A bare filename line is accepted so
// operators can add entries by hand. Forget rewrites the file without one
// entry, which is how a file gets another chance.
package ledger
