// Package preflight provides readiness checks for the metadata services and
// filesystem paths that mediasort depends on.
//
// The sort commands call RunAll before staging anything; a failed check stops
// the run so no file is moved while a service or directory is unusable. The
// "mediasort status" command shows the same results next to the pending
// download counts from Backlog.
package preflight
