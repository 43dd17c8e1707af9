package cart

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("cart item not found")
	ErrLimitExceeded = errors.New("cart quantity would exceed the limit")
)

type Repository interface {
	// List returns the user's lines, newest first, without product data.
	List(ctx context.Context, userID string) ([]Line, error)
	Get(ctx context.Context, userID, lineID string) (Line, error)
	FindByProduct(ctx context.Context, userID, productID string) (Line, error)
	// AddQuantity creates the line or increments it in one step. An increment
	// that would take the line above limit changes nothing and returns
	// ErrLimitExceeded.
	AddQuantity(ctx context.Context, userID, productID string, qty, limit int) (Line, error)
	SetQuantity(ctx context.Context, userID, lineID string, qty int) (Line, error)
	// Delete succeeds when the line does not exist.
	Delete(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}

type memLine struct {
	Line
	seq int
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.RWMutex
	lines map[string]memLine
	seq   int
	now   func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{lines: make(map[string]memLine), now: time.Now}
}

func (r *InMemoryRepository) List(_ context.Context, userID string) ([]Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]memLine, 0)
	for _, l := range r.lines {
		if l.UserID == userID {
			matched = append(matched, l)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})
	out := make([]Line, len(matched))
	for i, l := range matched {
		out[i] = l.Line
	}
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, userID, lineID string) (Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lines[lineID]
	if !ok || l.UserID != userID {
		return Line{}, ErrNotFound
	}
	return l.Line, nil
}

func (r *InMemoryRepository) FindByProduct(_ context.Context, userID, productID string) (Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.findLocked(userID, productID); ok {
		return l.Line, nil
	}
	return Line{}, ErrNotFound
}

func (r *InMemoryRepository) findLocked(userID, productID string) (memLine, bool) {
	for _, l := range r.lines {
		if l.UserID == userID && l.ProductID == productID {
			return l, true
		}
	}
	return memLine{}, false
}

func (r *InMemoryRepository) AddQuantity(_ context.Context, userID, productID string, qty, limit int) (Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	if l, ok := r.findLocked(userID, productID); ok {
		if l.Quantity+qty > limit {
			return Line{}, ErrLimitExceeded
		}
		l.Quantity += qty
		l.UpdatedAt = now
		r.lines[l.ID] = l
		return l.Line, nil
	}
	r.seq++
	l := memLine{
		Line: Line{
			ID:        uuid.NewString(),
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: r.seq,
	}
	r.lines[l.ID] = l
	return l.Line, nil
}

func (r *InMemoryRepository) SetQuantity(_ context.Context, userID, lineID string, qty int) (Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[lineID]
	if !ok || l.UserID != userID {
		return Line{}, ErrNotFound
	}
	l.Quantity = qty
	l.UpdatedAt = r.now().UTC()
	r.lines[lineID] = l
	return l.Line, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, userID, lineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lines[lineID]; ok && l.UserID == userID {
		delete(r.lines, lineID)
	}
	return nil
}

func (r *InMemoryRepository) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.lines {
		if l.UserID == userID {
			delete(r.lines, id)
		}
	}
	return nil
}
