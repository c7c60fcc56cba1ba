package disambiguate

import (
	"context"
	"errors"
	"testing"

	"mediasort/internal/metadata"
	"mediasort/internal/services"
)

func candidates(n int) []metadata.Candidate {
	out := make([]metadata.Candidate, n)
	for i := range out {
		out[i] = metadata.Candidate{ExternalID: int64(i + 1), Title: "Show", Year: "2000"}
	}
	return out
}

func TestPickZeroCandidatesNeverPrompts(t *testing.T) {
	chooser := NewScripted(0)
	_, err := Pick(context.Background(), chooser, Subject{Filename: "x.mkv"}, nil)
	if !errors.Is(err, ErrNoMatch) || !errors.Is(err, services.ErrResolution) {
		t.Fatalf("expected ErrNoMatch resolution error, got %v", err)
	}
	if chooser.Calls() != 0 {
		t.Fatalf("expected no prompt, got %d", chooser.Calls())
	}
}

func TestPickSingleCandidateNeverPrompts(t *testing.T) {
	chooser := NewScripted()
	got, err := Pick(context.Background(), chooser, Subject{}, candidates(1))
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if got.ExternalID != 1 {
		t.Fatalf("unexpected pick %#v", got)
	}
	if chooser.Calls() != 0 {
		t.Fatalf("expected no prompt, got %d", chooser.Calls())
	}
}

func TestPickManyUsesChooser(t *testing.T) {
	chooser := NewScripted(2)
	got, err := Pick(context.Background(), chooser, Subject{Filename: "show.s01e01.mkv"}, candidates(3))
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if got.ExternalID != 3 {
		t.Fatalf("expected third candidate, got %#v", got)
	}
	if chooser.Calls() != 1 || chooser.Asked()[0].Filename != "show.s01e01.mkv" {
		t.Fatalf("unexpected chooser history %#v", chooser.Asked())
	}
}

func TestPickAbort(t *testing.T) {
	_, err := Pick(context.Background(), NewScripted(Abort), Subject{}, candidates(2))
	if !errors.Is(err, services.ErrAborted) {
		t.Fatalf("expected abort, got %v", err)
	}
	if services.FailureDisposition(err) != services.DispositionSkip {
		t.Fatal("abort must skip the file")
	}
}

func TestPickRejectsOutOfRangeIndex(t *testing.T) {
	_, err := Pick(context.Background(), NewScripted(5), Subject{}, candidates(2))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPickWithoutChooserAborts(t *testing.T) {
	if _, err := Pick(context.Background(), nil, Subject{}, candidates(2)); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected abort without chooser, got %v", err)
	}
}

func TestDeclineAlwaysAborts(t *testing.T) {
	_, err := Pick(context.Background(), Decline{}, Subject{Query: "the office"}, candidates(4))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected abort, got %v", err)
	}
}

func TestPickChooserFuncErrorBecomesAbort(t *testing.T) {
	chooser := ChooserFunc(func(context.Context, Subject, []metadata.Candidate) (int, error) {
		return 0, errors.New("terminal gone")
	})
	if _, err := Pick(context.Background(), chooser, Subject{}, candidates(2)); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected chooser failure to abort, got %v", err)
	}
}

func TestPickCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Pick(ctx, NewScripted(0), Subject{}, candidates(2)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
