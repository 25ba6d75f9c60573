package cart

import (
	"context"
	"errors"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryRepository constructs an in-memory cart store for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{entries: make(map[string]Entry)}
}

func (r *memoryRepository) Insert(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.ID]; exists {
		return errors.New("cart entry exists")
	}
	r.entries[e.ID] = e
	return nil
}

func (r *memoryRepository) ListByOwner(_ context.Context, owner string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0)
	for _, e := range r.entries {
		if e.OwnerEmail == owner {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) FindMany(_ context.Context, owner string, ids []string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := r.entries[id]; ok && e.OwnerEmail == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepository) Delete(ctx context.Context, owner, id string) (int64, error) {
	return r.DeleteMany(ctx, owner, []string{id})
}

func (r *memoryRepository) DeleteMany(_ context.Context, owner string, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if e, ok := r.entries[id]; ok && e.OwnerEmail == owner {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}
