// Package sortrun drives one sort run end to end.
//
// A Runner takes the staging lock, opens the failure ledger and the archive
// history, builds the TMDB and TVmaze clients from configuration, and then
// carries each requested media kind through stage, identify, rename, archive,
// and cleanup. Kinds run one after another on the calling goroutine; the
// identity cache lives for the whole run so a show resolved once is never
// searched again in the same run.
package sortrun
