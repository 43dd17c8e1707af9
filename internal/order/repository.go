package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/product"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	// RunInTx runs fn against one unit of work. Stores with transactions roll
	// back everything fn wrote when it returns an error.
	RunInTx(ctx context.Context, fn func(Tx) error) error
	// Get returns the user's order with its lines, oldest line first.
	Get(ctx context.Context, userID, orderID string) (Order, error)
	// ListByUser returns the user's orders newest first, without lines.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// TransitionStatus moves the order from -> to and reports whether the
	// order was still in from.
	TransitionStatus(ctx context.Context, userID, orderID string, from, to Status) (bool, error)
}

type Tx interface {
	// LockProducts returns the current state of the given products, keyed by
	// id, holding them against concurrent change until the unit of work ends.
	LockProducts(ctx context.Context, ids []string) (map[string]ProductState, error)
	InsertOrder(ctx context.Context, o *Order) error
	InsertLines(ctx context.Context, orderID string, lines []Line) error
	DeleteOrder(ctx context.Context, orderID string) error
	// Atomic reports whether a failed unit of work is rolled back by the store.
	Atomic() bool
}

// ProductSource is the catalog view the in-memory store locks against.
type ProductSource interface {
	ListByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

// InMemoryRepository is used for tests and local scenarios. It has no
// rollback, so RunInTx units are not atomic.
type InMemoryRepository struct {
	mu       sync.Mutex
	products ProductSource
	orders   map[string]Order
	lines    map[string][]Line
}

func NewInMemoryRepository(products ProductSource) *InMemoryRepository {
	return &InMemoryRepository{
		products: products,
		orders:   make(map[string]Order),
		lines:    make(map[string][]Line),
	}
}

func (r *InMemoryRepository) RunInTx(ctx context.Context, fn func(Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(memTx{r: r})
}

func (r *InMemoryRepository) Get(_ context.Context, userID, orderID string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.UserID != userID {
		return Order{}, ErrNotFound
	}
	o.Lines = append([]Line(nil), r.lines[orderID]...)
	return o, nil
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OrderNumber > out[j].OrderNumber
	})
	return out, nil
}

func (r *InMemoryRepository) TransitionStatus(_ context.Context, userID, orderID string, from, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.UserID != userID {
		return false, ErrNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = o
	return true, nil
}

// memTx runs with the repository mutex held.
type memTx struct {
	r *InMemoryRepository
}

func (t memTx) LockProducts(ctx context.Context, ids []string) (map[string]ProductState, error) {
	products, err := t.r.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ProductState, len(products))
	for _, p := range products {
		out[p.ID] = ProductState{ID: p.ID, Name: p.Name, Price: p.Price, StockQuantity: p.StockQuantity, IsActive: p.IsActive}
	}
	return out, nil
}

func (t memTx) InsertOrder(_ context.Context, o *Order) error {
	for _, existing := range t.r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return errors.New("duplicate order number")
		}
	}
	stored := *o
	stored.Lines = nil
	t.r.orders[o.ID] = stored
	return nil
}

func (t memTx) InsertLines(_ context.Context, orderID string, lines []Line) error {
	if _, ok := t.r.orders[orderID]; !ok {
		return ErrNotFound
	}
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
		lines[i].OrderID = orderID
	}
	t.r.lines[orderID] = append(t.r.lines[orderID], lines...)
	return nil
}

func (t memTx) DeleteOrder(_ context.Context, orderID string) error {
	delete(t.r.lines, orderID)
	delete(t.r.orders, orderID)
	return nil
}

func (memTx) Atomic() bool { return false }
