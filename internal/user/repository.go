package user

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	GetByExternalID(ctx context.Context, externalID string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	// CreateIfAbsent inserts u unless its external id is already mapped, and
	// returns whichever record owns the external id afterwards.
	CreateIfAbsent(ctx context.Context, u User) (User, error)
	UpdateName(ctx context.Context, id, name string) (User, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]User
	byExternal map[string]string
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	r := &InMemoryRepository{
		byID:       make(map[string]User, len(seed)),
		byExternal: make(map[string]string, len(seed)),
	}
	for _, u := range seed {
		r.byID[u.ID] = u
		r.byExternal[u.ExternalID] = u.ID
	}
	return r
}

func (r *InMemoryRepository) GetByExternalID(_ context.Context, externalID string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byExternal[externalID]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *InMemoryRepository) CreateIfAbsent(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byExternal[u.ExternalID]; ok {
		return r.byID[id], nil
	}
	r.byID[u.ID] = u
	r.byExternal[u.ExternalID] = u.ID
	return u, nil
}

func (r *InMemoryRepository) UpdateName(_ context.Context, id, name string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.Name = name
	u.UpdatedAt = time.Now().UTC()
	r.byID[id] = u
	return u, nil
}
