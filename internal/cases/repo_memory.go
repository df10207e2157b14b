package cases

import (
	"context"
	"sort"
	"sync"
	"time"

	"probate-backend/internal/phases"
)

// MemoryRepo is an in-memory implementation of Repo. A single mutex makes
// each read-check-write step atomic.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Case
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Case)}
}

// Create stores a new case.
func (r *MemoryRepo) Create(ctx context.Context, c Case) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[c.ID]; exists {
		return ErrConflict
	}
	if c.Version == 0 {
		c.Version = 1
	}
	r.data[c.ID] = c.Clone()
	return nil
}

// GetByID returns a case by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, caseID string) (Case, error) {
	if err := ctx.Err(); err != nil {
		return Case{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[caseID]
	if !ok {
		return Case{}, ErrNotFound
	}
	return c.Clone(), nil
}

// ListByUser returns a user's cases, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Case, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Case, 0)
	for _, c := range r.data {
		if c.UserID == userID {
			out = append(out, c.Clone())
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

// ListAll returns every case matching filter, newest first.
func (r *MemoryRepo) ListAll(ctx context.Context, filter ListFilter) ([]Case, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Case, 0, len(r.data))
	for _, c := range r.data {
		if filter.Status == "" || c.Status == filter.Status {
			out = append(out, c.Clone())
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(out)

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Case{}, nil
	}
	end := len(out)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return out[offset:end], nil
}

// MergePhase merges fields into one phase sub-record.
func (r *MemoryRepo) MergePhase(ctx context.Context, caseID, phaseKey string, fields map[string]any, expectedVersion int64, now time.Time) (Case, error) {
	return r.mutate(ctx, caseID, expectedVersion, now, func(c *Case) error {
		mergeInto(c, phaseKey, fields)
		return nil
	})
}

// Advance marks from complete and moves the case to to.
func (r *MemoryRepo) Advance(ctx context.Context, caseID string, from, to phases.Phase, expectedVersion int64, now time.Time) (Case, error) {
	return r.mutate(ctx, caseID, expectedVersion, now, func(c *Case) error {
		if c.CurrentPhase != from {
			return ErrConflict
		}
		mergeInto(c, from.Key(), completionFields(now))
		c.CurrentPhase = to
		return nil
	})
}

// SetStatus replaces the case status.
func (r *MemoryRepo) SetStatus(ctx context.Context, caseID string, status phases.CaseStatus, expectedVersion int64, now time.Time) (Case, error) {
	return r.mutate(ctx, caseID, expectedVersion, now, func(c *Case) error {
		c.Status = status
		return nil
	})
}

// RecordPayment stores the payment sub-record and activates a case that was
// waiting on payment.
func (r *MemoryRepo) RecordPayment(ctx context.Context, caseID string, p Payment, now time.Time) (Case, error) {
	return r.mutate(ctx, caseID, 0, now, func(c *Case) error {
		c.Payment = p
		if c.Status == phases.CasePendingPayment {
			c.Status = phases.CaseActive
		}
		return nil
	})
}

func (r *MemoryRepo) mutate(ctx context.Context, caseID string, expectedVersion int64, now time.Time, fn func(*Case) error) (Case, error) {
	if err := ctx.Err(); err != nil {
		return Case{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[caseID]
	if !ok {
		return Case{}, ErrNotFound
	}
	if expectedVersion > 0 && stored.Version != expectedVersion {
		return Case{}, ErrConflict
	}
	next := stored.Clone()
	if err := fn(&next); err != nil {
		return Case{}, err
	}
	next.Version = stored.Version + 1
	next.UpdatedAt = now
	r.data[caseID] = next
	return next.Clone(), nil
}

func mergeInto(c *Case, phaseKey string, fields map[string]any) {
	if c.Phases == nil {
		c.Phases = map[string]map[string]any{}
	}
	sub := c.Phases[phaseKey]
	if sub == nil {
		sub = map[string]any{}
	}
	for k, v := range fields {
		sub[k] = v
	}
	c.Phases[phaseKey] = sub
}

func sortNewestFirst(cs []Case) {
	sort.Slice(cs, func(i, j int) bool {
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}

var _ Repo = (*MemoryRepo)(nil)
