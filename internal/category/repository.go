package category

import (
	"context"
	"sort"
	"sync"
)

type Repository interface {
	List(ctx context.Context) ([]Category, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	counts map[string]int
}

func NewInMemoryRepository(counts map[string]int) *InMemoryRepository {
	r := &InMemoryRepository{counts: make(map[string]int, len(counts))}
	for k, v := range counts {
		r.counts[k] = v
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0, len(r.counts))
	for name, n := range r.counts {
		if n > 0 {
			out = append(out, Category{Name: name, ProductCount: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
