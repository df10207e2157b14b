package cases

import (
	"context"
	"time"

	"probate-backend/internal/phases"
)

// ListFilter narrows admin listings.
type ListFilter struct {
	Status phases.CaseStatus
	Limit  int
	Offset int
}

// Repo defines persistence operations for cases. Every mutation is applied
// atomically and bumps Version; an expectedVersion above zero must match the
// stored version or the write fails with ErrConflict.
type Repo interface {
	Create(ctx context.Context, c Case) error
	GetByID(ctx context.Context, caseID string) (Case, error)
	ListByUser(ctx context.Context, userID string) ([]Case, error)
	ListAll(ctx context.Context, filter ListFilter) ([]Case, error)
	MergePhase(ctx context.Context, caseID, phaseKey string, fields map[string]any, expectedVersion int64, now time.Time) (Case, error)
	Advance(ctx context.Context, caseID string, from, to phases.Phase, expectedVersion int64, now time.Time) (Case, error)
	SetStatus(ctx context.Context, caseID string, status phases.CaseStatus, expectedVersion int64, now time.Time) (Case, error)
	RecordPayment(ctx context.Context, caseID string, p Payment, now time.Time) (Case, error)
}

func completionFields(now time.Time) map[string]any {
	return map[string]any{
		"status":      phases.CompleteFlag,
		"completedAt": now.UTC().Format(time.RFC3339),
	}
}
