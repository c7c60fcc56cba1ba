// Package main hosts the mediasort CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the terminal
// operator, and hands sort runs to internal/sortrun. The remaining commands
// inspect the state a run leaves behind: staging contents, the failure
// ledger, and the archive history.
package main
