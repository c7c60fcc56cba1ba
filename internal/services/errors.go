package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse marks filenames that match no recognized naming convention.
	ErrParse = errors.New("parse error")
	// ErrResolution marks lookups that exhausted retries or returned no candidates.
	ErrResolution = errors.New("resolution error")
	// ErrAborted marks an explicit operator cancellation during disambiguation.
	ErrAborted = errors.New("disambiguation aborted")
	// ErrConflict marks an archive destination that already exists.
	ErrConflict = errors.New("filesystem conflict")

	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Disposition describes what a batch does with a file after a failure.
type Disposition string

const (
	// DispositionSkip leaves the file in place without recording it.
	DispositionSkip Disposition = "skip"
	// DispositionLedger leaves the file in place and records it in the failure ledger.
	DispositionLedger Disposition = "ledger"
	// DispositionStop ends the batch; remaining files stay where they are.
	DispositionStop Disposition = "stop"
)

// FailureDisposition maps a per-file error to the action the batch should take.
// Only permanent resolution failures are ledgered so the next run does not
// re-query them.
func FailureDisposition(err error) Disposition {
	switch {
	case err == nil:
		return DispositionSkip
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return DispositionStop
	case errors.Is(err, ErrAborted):
		return DispositionSkip
	case errors.Is(err, ErrResolution) && !errors.Is(err, ErrTransient) && !errors.Is(err, ErrRateLimited):
		return DispositionLedger
	default:
		return DispositionSkip
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
