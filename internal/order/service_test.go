package order

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/product"
)

const (
	userA   = "aaaaaaaa-0000-0000-0000-000000000001"
	userB   = "aaaaaaaa-0000-0000-0000-000000000002"
	pWidget = "bbbbbbbb-0000-0000-0000-000000000001"
	pGadget = "bbbbbbbb-0000-0000-0000-000000000002"
)

var hong = Shipping{Name: "Hong", Address: "Seoul", Phone: "010-0000-0000"}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	svc     *Service
	repo    *InMemoryRepository
	carts   *cart.Service
	catalog *product.InMemoryRepository
	events  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Now().UTC()
	catalog := product.NewInMemoryRepository([]product.Product{
		{ID: pWidget, Name: "Widget", Price: 10000, StockQuantity: 5, IsActive: true, CreatedAt: now},
		{ID: pGadget, Name: "Gadget", Price: 2500, StockQuantity: 10, IsActive: true, CreatedAt: now},
	})
	carts := cart.NewService(cart.NewInMemoryRepository(), catalog, nil)
	repo := NewInMemoryRepository(catalog)
	events := &recordingPublisher{}
	return &fixture{
		svc:     NewService(repo, carts, events),
		repo:    repo,
		carts:   carts,
		catalog: catalog,
		events:  events,
	}
}

func (f *fixture) add(t *testing.T, userID, productID string, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), userID, productID, qty)
	require.NoError(t, err)
}

func TestCreateOrder_SingleLineScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pWidget, 2)

	o, err := f.svc.CreateOrder(ctx, userA, hong)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), o.TotalAmount)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORDER-"))
	assert.Equal(t, hong, o.Shipping)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, pWidget, o.Lines[0].ProductID)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, int64(10000), o.Lines[0].Price)

	stored, err := f.svc.GetOrder(ctx, userA, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, o.Lines[0].ID, stored.Lines[0].ID)

	// stock is untouched and the cart is kept until payment is confirmed
	p, err := f.catalog.GetByID(ctx, pWidget)
	require.NoError(t, err)
	assert.Equal(t, 5, p.StockQuantity)
	lines, err := f.carts.ListItems(ctx, userA)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestCreateOrder_TotalIsSumOfLines(t *testing.T) {
	f := newFixture(t)
	f.add(t, userA, pWidget, 2)
	f.add(t, userA, pGadget, 3)

	o, err := f.svc.CreateOrder(context.Background(), userA, hong)
	require.NoError(t, err)

	var sum int64
	for _, l := range o.Lines {
		sum += l.Price * int64(l.Quantity)
	}
	assert.Equal(t, sum, o.TotalAmount)
	assert.Equal(t, int64(27500), o.TotalAmount)
	require.Len(t, o.Lines, 2)
}

func TestCreateOrder_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pWidget, 1)

	o, err := f.svc.CreateOrder(ctx, userA, hong)
	require.NoError(t, err)

	p, err := f.catalog.GetByID(ctx, pWidget)
	require.NoError(t, err)
	p.Price = 99999
	_, err = f.catalog.Update(ctx, p)
	require.NoError(t, err)

	stored, err := f.svc.GetOrder(ctx, userA, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), stored.Lines[0].Price)
	assert.Equal(t, int64(10000), stored.TotalAmount)
}

// frozenCache keeps answering with the cart as it was first cached.
type frozenCache struct {
	cart.NopCache
	lines []cart.Line
}

func (c frozenCache) Get(context.Context, string) ([]cart.Line, error) { return c.lines, nil }

func TestCreateOrder_ReadsCartFromStoreNotCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartRepo := cart.NewInMemoryRepository()
	stale := frozenCache{lines: []cart.Line{{ID: "gone", UserID: userA, ProductID: pGadget, Quantity: 4}}}
	carts := cart.NewService(cartRepo, f.catalog, stale)
	svc := NewService(f.repo, carts, f.events)

	_, err := carts.AddItem(ctx, userA, pWidget, 2)
	require.NoError(t, err)

	o, err := svc.CreateOrder(ctx, userA, hong)
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, pWidget, o.Lines[0].ProductID)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, int64(20000), o.TotalAmount)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, userA, hong)
	require.Error(t, err)
	assert.Equal(t, apperror.EmptyCart, apperror.KindOf(err))

	orders, err := f.svc.ListOrders(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.events.events)
}

func TestCreateOrder_InsufficientStockCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pGadget, 1)
	f.add(t, userA, pWidget, 4)
	_, err := f.catalog.SetStock(ctx, pWidget, 3)
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(ctx, userA, hong)
	require.Error(t, err)
	assert.Equal(t, apperror.InsufficientStock, apperror.KindOf(err))
	var ae *apperror.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, pWidget, ae.Field)
	assert.Contains(t, ae.Message, "only 3 left")

	orders, err := f.svc.ListOrders(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.repo.lines)
}

func TestCreateOrder_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pGadget, 1)
	_, err := f.catalog.SetActive(ctx, pGadget, false)
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(ctx, userA, hong)
	require.Error(t, err)
	assert.Equal(t, apperror.ProductUnavailable, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "Gadget")
	assert.Empty(t, f.repo.orders)
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pWidget, 1)

	_, err := f.svc.CreateOrder(ctx, "", hong)
	assert.Equal(t, apperror.Unauthenticated, apperror.KindOf(err))

	_, err = f.svc.CreateOrder(ctx, userA, Shipping{Name: "Hong", Address: "Seoul", Phone: "   "})
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))
	var ae *apperror.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "phone", ae.Field)
}

// failingRepo hands out transactions whose line insert always fails.
type failingRepo struct {
	*InMemoryRepository
}

type failingTx struct {
	Tx
}

func (failingTx) InsertLines(context.Context, string, []Line) error {
	return errors.New("order_items: connection reset")
}

func (r failingRepo) RunInTx(ctx context.Context, fn func(Tx) error) error {
	return r.InMemoryRepository.RunInTx(ctx, func(tx Tx) error {
		return fn(failingTx{Tx: tx})
	})
}

func TestCreateOrder_LineFailureRemovesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pWidget, 2)
	svc := NewService(failingRepo{f.repo}, f.carts, f.events)

	_, err := svc.CreateOrder(ctx, userA, hong)
	require.Error(t, err)
	assert.Equal(t, apperror.OrderCreationFailed, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "connection reset")

	assert.Empty(t, f.repo.orders)
	assert.Empty(t, f.repo.lines)
	assert.Empty(t, f.events.events)
}

func TestCreateOrder_PublishFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	f.add(t, userA, pWidget, 1)

	o, err := f.svc.CreateOrder(context.Background(), userA, hong)
	require.NoError(t, err)
	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, EventOrderCreated, ev.Type)
	assert.Equal(t, o.ID, ev.OrderID)
	require.Len(t, ev.Items, 1)
	assert.Equal(t, int64(10000), ev.Items[0].Price)
}

func TestCancelOrder_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pWidget, 1)
	o, err := f.svc.CreateOrder(ctx, userA, hong)
	require.NoError(t, err)

	cancelled, err := f.svc.CancelOrder(ctx, userA, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = f.svc.CancelOrder(ctx, userA, o.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidTransition, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "already cancelled")

	require.Len(t, f.events.events, 2)
	assert.Equal(t, EventOrderCancelled, f.events.events[1].Type)
}

func TestCancelOrder_ProcessingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pWidget, 1)
	o, err := f.svc.CreateOrder(ctx, userA, hong)
	require.NoError(t, err)
	ok, err := f.repo.TransitionStatus(ctx, userA, o.ID, StatusPending, StatusConfirmed)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.CancelOrder(ctx, userA, o.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidTransition, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "being processed")
}

func TestCancelOrder_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pWidget, 1)
	o, err := f.svc.CreateOrder(ctx, userA, hong)
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, userB, o.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
	_, err = f.svc.CancelOrder(ctx, userA, "not-a-uuid")
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

// racingRepo lets another writer confirm the order between read and update.
type racingRepo struct {
	*InMemoryRepository
}

func (r racingRepo) TransitionStatus(ctx context.Context, userID, orderID string, from, to Status) (bool, error) {
	if _, err := r.InMemoryRepository.TransitionStatus(ctx, userID, orderID, StatusPending, StatusConfirmed); err != nil {
		return false, err
	}
	return r.InMemoryRepository.TransitionStatus(ctx, userID, orderID, from, to)
}

func TestCancelOrder_LostRaceReportsCurrentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pWidget, 1)
	o, err := f.svc.CreateOrder(ctx, userA, hong)
	require.NoError(t, err)

	svc := NewService(racingRepo{f.repo}, f.carts, f.events)
	_, err = svc.CancelOrder(ctx, userA, o.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidTransition, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "status: confirmed")
}

func TestListOrders_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, userA, pWidget, 1)

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return clock }
	first, err := f.svc.CreateOrder(ctx, userA, hong)
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	second, err := f.svc.CreateOrder(ctx, userA, hong)
	require.NoError(t, err)

	orders, err := f.svc.ListOrders(ctx, userA)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	others, err := f.svc.ListOrders(ctx, userB)
	require.NoError(t, err)
	assert.Empty(t, others)
}
