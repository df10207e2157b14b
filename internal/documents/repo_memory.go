package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Document)}
}

// Create stores a document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByCase returns a case's documents, newest first.
func (r *MemoryRepo) ListByCase(ctx context.Context, caseID string) ([]Document, error) {
	return r.filter(func(d Document) bool {
		return d.Scope == ScopeCase && d.CaseID == caseID
	}), nil
}

// ListVault returns a user's vault documents, newest first.
func (r *MemoryRepo) ListVault(ctx context.Context, userID string) ([]Document, error) {
	return r.filter(func(d Document) bool {
		return d.Scope == ScopeVault && d.UserID == userID
	}), nil
}

// Delete removes a document's metadata.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) filter(keep func(Document) bool) []Document {
	r.mu.RLock()
	out := make([]Document, 0)
	for _, d := range r.data {
		if keep(d) {
			out = append(out, d)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

var _ Repo = (*MemoryRepo)(nil)
