package session

import (
	"context"

	"deepwork/internal/store"
)

// RecordStore is the durable system of record for focus sessions. It is
// treated as remote, slow and fallible; every call the manager awaits is
// bounded by a deadline.
type RecordStore interface {
	CreateSession(ctx context.Context, userID string, taskID *string, label string, targetMinutes int) (*store.FocusSession, error)
	UpdateSession(ctx context.Context, id string, patch store.SessionPatch) (*store.FocusSession, error)
	ActiveSession(ctx context.Context, userID string) (*store.FocusSession, error)
	SessionHistory(ctx context.Context, userID string, limit int) ([]store.FocusSession, error)
}

// TaskGateway requests a task status change as a side effect of session
// completion. The call is best-effort: its failure never blocks session
// termination.
type TaskGateway interface {
	SetTaskStatus(ctx context.Context, id, status string) error
}
