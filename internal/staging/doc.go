// Package staging guards and inspects the staging directory that sits
// between the download areas and the archive.
//
// A sort run holds an exclusive advisory lock on <staging>/.mediasort.lock
// for its whole lifetime, so two runs can never interleave moves through the
// same staging tree. ListEntries feeds the `mediasort staging list` command.
package staging
