// Package reconcile turns staged filenames into identification records.
//
// A Reconciler parses each name, resolves it against the metadata services
// (TMDB for movies, TVmaze for shows and episodes), asks the operator when the
// catalog returns more than one candidate, and formats the canonical archive
// name. Show identities are resolved once per run through the identity cache.
//
// Every file ends in StateIdentified or StateFailed. Permanent resolution
// failures are appended to the failure ledger and files already listed there
// are skipped without a lookup. A failure never stops the batch; only context
// cancellation does.
package reconcile
