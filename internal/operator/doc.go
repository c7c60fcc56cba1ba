// Package operator is the terminal side of mediasort's human decisions:
// choosing among several catalog matches, supplying a missing movie year or
// title, resolving library collisions, and confirming the archive plan.
//
// A Terminal that is not interactive never blocks. Choices and manual input
// abort, collisions skip, and the archive plan is approved only with
// AssumeYes.
package operator
