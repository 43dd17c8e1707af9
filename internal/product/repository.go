package product

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNotFound = errors.New("product not found")
	ErrInUse    = errors.New("product is referenced by orders")
)

type Repository interface {
	// List returns one page of products matching f and the total match count.
	List(ctx context.Context, f Filter) ([]Product, int, error)
	GetByID(ctx context.Context, id string) (Product, error)
	// ListByIDs returns the products that exist among ids, active or not.
	ListByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	SetStock(ctx context.Context, id string, qty int) (Product, error)
	SetActive(ctx context.Context, id string, active bool) (Product, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{products: make(map[string]Product, len(seed))}
	for _, p := range seed {
		r.products[p.ID] = p
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		if !f.IncludeInactive && !p.IsActive {
			continue
		}
		if f.Category != "" && (p.Category == nil || *p.Category != f.Category) {
			continue
		}
		if search != "" && !matches(p, search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if f.Sort == SortName {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matches(p Product, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), search)
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) ListByIDs(_ context.Context, ids []string) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[p.ID]
	if !ok {
		return Product{}, ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	r.products[p.ID] = p
	return p, nil
}

func (r *InMemoryRepository) SetStock(_ context.Context, id string, qty int) (Product, error) {
	return r.mutate(id, func(p *Product) { p.StockQuantity = qty })
}

func (r *InMemoryRepository) SetActive(_ context.Context, id string, active bool) (Product, error) {
	return r.mutate(id, func(p *Product) { p.IsActive = active })
}

func (r *InMemoryRepository) mutate(id string, fn func(*Product)) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	fn(&p)
	r.products[id] = p
	return p, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}
