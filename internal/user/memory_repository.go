package user

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewMemoryRepository creates an in-memory repository for local development
// and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{profiles: make(map[string]*Profile)}
}

func (r *memoryRepository) GetProfile(_ context.Context, uid string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.profiles[uid]; ok {
		cp := *p
		return &cp, nil
	}
	return &Profile{UID: uid}, nil
}

func (r *memoryRepository) UpsertProfile(_ context.Context, uid string, updates UpdateInput) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current Profile
	if p, ok := r.profiles[uid]; ok {
		current = *p
	}
	merged := applyPatch(current, updates)
	merged.UID = uid
	merged.ProfileCompleted = current.ProfileCompleted || complete(&merged)
	r.profiles[uid] = &merged

	cp := merged
	return &cp, nil
}
