package messages

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Message
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Message)}
}

// Create stores a message.
func (r *MemoryRepo) Create(ctx context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[m.ID] = m
	return nil
}

// GetByID returns a message by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.data[id]
	if !ok {
		return Message{}, ErrNotFound
	}
	return m, nil
}

// ListByCase returns a thread oldest first.
func (r *MemoryRepo) ListByCase(ctx context.Context, caseID string) ([]Message, error) {
	r.mu.RLock()
	out := make([]Message, 0)
	for _, m := range r.data {
		if m.CaseID == caseID {
			out = append(out, m)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// MarkRead flags a message as read.
func (r *MemoryRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	m.Read = true
	r.data[id] = m
	return nil
}

// CountUnread implements Repo.
func (r *MemoryRepo) CountUnread(ctx context.Context, caseID string, fromAdmin bool) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, m := range r.data {
		if m.CaseID == caseID && !m.Read && m.IsAdmin == fromAdmin {
			n++
		}
	}
	return n, nil
}

var _ Repo = (*MemoryRepo)(nil)
