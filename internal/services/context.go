package services

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	runIDKey contextKey = "run_id"
	phaseKey contextKey = "phase"
	fileKey  contextKey = "file"
)

// NewRunID returns a fresh identifier for one sort run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID annotates context with the sort run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPhase annotates context with the archive phase name (stage, rename, archive, cleanup).
func WithPhase(ctx context.Context, phase string) context.Context {
	if phase == "" {
		return ctx
	}
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the phase name if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(phaseKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithFile annotates context with the filename currently being processed.
func WithFile(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, fileKey, name)
}

// FileFromContext returns the filename if present.
func FileFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(fileKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
