package logging

import (
	"context"
	"log/slog"

	"mediasort/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for sort run identifiers.
	FieldRunID = "run_id"
	// FieldPhase is the standardized structured logging key for archive phases.
	FieldPhase = "phase"
	// FieldFile is the standardized structured logging key for the file being processed.
	FieldFile = "file"
	// FieldEventType names the kind of event a line records.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step after a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType groups decision log lines.
	FieldDecisionType = "decision_type"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if phase, ok := services.PhaseFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPhase, phase))
	}
	if name, ok := services.FileFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFile, name))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
