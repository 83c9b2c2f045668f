package kyc

import (
	"context"
	"errors"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Document
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Document)}
}

func (r *memoryRepository) Create(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[doc.ID]; exists {
		return errors.New("document exists")
	}
	r.storage[doc.ID] = doc
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.storage[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, d := range r.storage {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.storage[doc.ID]; !ok {
		return ErrNotFound
	}
	r.storage[doc.ID] = doc
	return nil
}

func (r *memoryRepository) CountApproved(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, d := range r.storage {
		if d.UserID == userID && d.Status == StatusApproved {
			count++
		}
	}
	return count, nil
}
