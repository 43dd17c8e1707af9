package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/validation"
)

// CartReader is the part of the cart store checkout reads from. It must read
// the store directly, not a cache.
type CartReader interface {
	CurrentItems(ctx context.Context, userID string) ([]cart.Line, error)
}

type Service struct {
	repo      Repository
	carts     CartReader
	events    Publisher
	now       func() time.Time
	newNumber func(time.Time) string
}

// NewService wires the order store. A nil publisher disables events.
func NewService(repo Repository, carts CartReader, events Publisher) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		repo:      repo,
		carts:     carts,
		events:    events,
		now:       func() time.Time { return time.Now().UTC() },
		newNumber: NewOrderNumber,
	}
}

var errUnauthenticated = apperror.New(apperror.Unauthenticated, "authentication required")

// CreateOrder turns the user's cart into a pending order. Every line is checked
// against live product state and priced from it; the first failing line aborts
// the whole order. Stock is left untouched and the cart is not cleared.
func (s *Service) CreateOrder(ctx context.Context, userID string, shipping Shipping) (Order, error) {
	if userID == "" {
		return Order{}, errUnauthenticated
	}
	shipping = normalizeShipping(shipping)
	if err := validation.Struct(shipping); err != nil {
		return Order{}, err
	}

	var placed Order
	err := s.repo.RunInTx(ctx, func(tx Tx) error {
		lines, err := s.carts.CurrentItems(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperror.New(apperror.EmptyCart, "your cart is empty")
		}
		o, err := s.place(ctx, tx, userID, shipping, lines)
		if err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.Internal {
			log.Errorw("create order failed", "user_id", userID, "error", err)
			return Order{}, apperror.Wrap(err, apperror.OrderCreationFailed, "could not create order")
		}
		return Order{}, err
	}

	log.Infow("order created", "order_id", placed.ID, "order_number", placed.OrderNumber, "user_id", userID, "total_amount", placed.TotalAmount)
	s.publish(ctx, EventOrderCreated, placed)
	return placed, nil
}

func (s *Service) place(ctx context.Context, tx Tx, userID string, shipping Shipping, cartLines []cart.Line) (Order, error) {
	ids := make([]string, len(cartLines))
	for i, l := range cartLines {
		ids[i] = l.ProductID
	}
	live, err := tx.LockProducts(ctx, ids)
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	o := Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		OrderNumber: s.newNumber(now),
		Status:      StatusPending,
		Shipping:    shipping,
		CreatedAt:   now,
		UpdatedAt:   now,
		Lines:       make([]Line, 0, len(cartLines)),
	}
	for i, cl := range cartLines {
		p, ok := live[cl.ProductID]
		if !ok || !p.IsActive {
			name := cl.ProductID
			if ok {
				name = p.Name
			} else if cl.Product != nil {
				name = cl.Product.Name
			}
			return Order{}, apperror.New(apperror.ProductUnavailable, "%s is no longer available", name).WithField(cl.ProductID)
		}
		if cl.Quantity > p.StockQuantity {
			return Order{}, apperror.New(apperror.InsufficientStock, "%s: only %d left in stock", p.Name, p.StockQuantity).WithField(p.ID)
		}
		line := Line{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    cl.Quantity,
			Price:       p.Price,
			// keeps cart order when lines are read back oldest first
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		}
		o.TotalAmount += line.Subtotal()
		o.Lines = append(o.Lines, line)
	}

	if err := tx.InsertOrder(ctx, &o); err != nil {
		return Order{}, err
	}
	if err := tx.InsertLines(ctx, o.ID, o.Lines); err != nil {
		if !tx.Atomic() {
			if derr := tx.DeleteOrder(ctx, o.ID); derr != nil {
				log.Errorw("compensating order delete failed", "order_id", o.ID, "error", derr)
			} else {
				log.Warnw("order removed after line insert failure", "order_id", o.ID, "error", err)
			}
		}
		return Order{}, apperror.New(apperror.OrderCreationFailed, "could not save order items: %v", err)
	}
	return o, nil
}

// CancelOrder moves one of the user's pending orders to cancelled.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (Order, error) {
	o, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return Order{}, err
	}
	if err := cancellable(o.Status); err != nil {
		return Order{}, err
	}

	ok, err := s.repo.TransitionStatus(ctx, userID, o.ID, StatusPending, StatusCancelled)
	if errors.Is(err, ErrNotFound) {
		return Order{}, apperror.New(apperror.NotFound, "order not found")
	}
	if err != nil {
		log.Errorw("cancel order failed", "order_id", o.ID, "error", err)
		return Order{}, apperror.Wrap(err, apperror.Internal, "could not cancel order")
	}
	if !ok {
		// someone else moved it first
		cur, err := s.GetOrder(ctx, userID, o.ID)
		if err != nil {
			return Order{}, err
		}
		if err := cancellable(cur.Status); err != nil {
			return Order{}, err
		}
		return Order{}, apperror.New(apperror.InvalidTransition, "order status changed, try again")
	}

	o.Status = StatusCancelled
	o.UpdatedAt = s.now()
	log.Infow("order cancelled", "order_id", o.ID, "user_id", userID)
	s.publish(ctx, EventOrderCancelled, o)
	return o, nil
}

func cancellable(st Status) error {
	switch {
	case st == StatusCancelled:
		return apperror.New(apperror.InvalidTransition, "order is already cancelled")
	case !CanTransition(st, StatusCancelled):
		return apperror.New(apperror.InvalidTransition, "order is already being processed (status: %s)", st)
	}
	return nil
}

// GetOrder returns one of the user's orders with its lines.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (Order, error) {
	if userID == "" {
		return Order{}, errUnauthenticated
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return Order{}, apperror.New(apperror.NotFound, "order not found")
	}
	o, err := s.repo.Get(ctx, userID, orderID)
	if errors.Is(err, ErrNotFound) {
		return Order{}, apperror.New(apperror.NotFound, "order not found")
	}
	if err != nil {
		log.Errorw("get order failed", "order_id", orderID, "error", err)
		return Order{}, apperror.Wrap(err, apperror.Internal, "could not load order")
	}
	return o, nil
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, errUnauthenticated
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Errorw("list orders failed", "user_id", userID, "error", err)
		return nil, apperror.Wrap(err, apperror.Internal, "could not load orders")
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, typ string, o Order) {
	if err := s.events.Publish(ctx, newEvent(typ, o, s.now())); err != nil {
		log.Warnw("order event not published", "event", typ, "order_id", o.ID, "error", err)
	}
}

func normalizeShipping(in Shipping) Shipping {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Note != nil {
		n := strings.TrimSpace(*in.Note)
		if n == "" {
			in.Note = nil
		} else {
			in.Note = &n
		}
	}
	return in
}
