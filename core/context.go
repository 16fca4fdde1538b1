package core

import "context"

// Context keys for analysis options
type contextKey string

const runIDKey contextKey = "runID"

// withRunID attaches the batch run ID so per-path outcomes can be recorded.
func withRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFromContext returns the batch run ID, or "" outside a tracked batch.
func runIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}
