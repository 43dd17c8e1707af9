package cart

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/product"
	"golang.org/x/sync/singleflight"
)

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
	ListByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

type Service struct {
	repo     Repository
	products ProductReader
	cache    Cache
	group    singleflight.Group
}

// NewService wires the cart store. A nil cache disables caching.
func NewService(repo Repository, products ProductReader, cache Cache) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{repo: repo, products: products, cache: cache}
}

var errUnauthenticated = apperror.New(apperror.Unauthenticated, "authentication required")

// AddItem puts qty units of a product in the cart, merging with an existing line.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (Line, error) {
	if userID == "" {
		return Line{}, errUnauthenticated
	}
	if qty < 1 {
		return Line{}, apperror.New(apperror.InvalidQuantity, "quantity must be at least 1").WithField("quantity")
	}
	p, err := s.available(ctx, productID)
	if err != nil {
		return Line{}, err
	}
	if qty > p.StockQuantity {
		return Line{}, apperror.New(apperror.OutOfStock, "%s: only %d in stock", p.Name, p.StockQuantity).WithField(p.ID)
	}

	line, err := s.repo.AddQuantity(ctx, userID, p.ID, qty, p.StockQuantity)
	if errors.Is(err, ErrLimitExceeded) {
		inCart := 0
		if cur, ferr := s.repo.FindByProduct(ctx, userID, p.ID); ferr == nil {
			inCart = cur.Quantity
		}
		return Line{}, apperror.New(apperror.OutOfStock, "%s: only %d in stock and %d already in your cart", p.Name, p.StockQuantity, inCart).WithField(p.ID)
	}
	if err != nil {
		log.Errorw("add to cart failed", "user_id", userID, "product_id", p.ID, "error", err)
		return Line{}, apperror.Wrap(err, apperror.Internal, "could not add to cart")
	}
	s.invalidate(ctx, userID)
	line.Product = snapshot(p)
	return line, nil
}

// SetQuantity replaces the quantity of one of the user's lines.
func (s *Service) SetQuantity(ctx context.Context, userID, lineID string, qty int) (Line, error) {
	if userID == "" {
		return Line{}, errUnauthenticated
	}
	if qty < 1 {
		return Line{}, apperror.New(apperror.InvalidQuantity, "quantity must be at least 1").WithField("quantity")
	}
	if _, err := uuid.Parse(lineID); err != nil {
		return Line{}, apperror.New(apperror.NotFound, "cart item not found")
	}
	cur, err := s.repo.Get(ctx, userID, lineID)
	if errors.Is(err, ErrNotFound) {
		return Line{}, apperror.New(apperror.NotFound, "cart item not found")
	}
	if err != nil {
		return Line{}, apperror.Wrap(err, apperror.Internal, "could not load cart item")
	}
	p, err := s.available(ctx, cur.ProductID)
	if err != nil {
		return Line{}, err
	}
	if qty > p.StockQuantity {
		return Line{}, apperror.New(apperror.OutOfStock, "%s: only %d in stock", p.Name, p.StockQuantity).WithField(p.ID)
	}

	line, err := s.repo.SetQuantity(ctx, userID, lineID, qty)
	if errors.Is(err, ErrNotFound) {
		return Line{}, apperror.New(apperror.NotFound, "cart item not found")
	}
	if err != nil {
		log.Errorw("update cart quantity failed", "user_id", userID, "line_id", lineID, "error", err)
		return Line{}, apperror.Wrap(err, apperror.Internal, "could not update cart")
	}
	s.invalidate(ctx, userID)
	line.Product = snapshot(p)
	return line, nil
}

// RemoveItem deletes one of the user's lines. Removing a missing line succeeds.
func (s *Service) RemoveItem(ctx context.Context, userID, lineID string) error {
	if userID == "" {
		return errUnauthenticated
	}
	if _, err := uuid.Parse(lineID); err != nil {
		return nil
	}
	if err := s.repo.Delete(ctx, userID, lineID); err != nil {
		log.Errorw("remove cart item failed", "user_id", userID, "line_id", lineID, "error", err)
		return apperror.Wrap(err, apperror.Internal, "could not remove cart item")
	}
	s.invalidate(ctx, userID)
	return nil
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return errUnauthenticated
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		return apperror.Wrap(err, apperror.Internal, "could not clear cart")
	}
	s.invalidate(ctx, userID)
	return nil
}

// ListItems returns the user's lines, newest first, each joined with the
// product's current state. Lines whose product no longer exists are skipped.
// Reads may be served from the cache.
func (s *Service) ListItems(ctx context.Context, userID string) ([]Line, error) {
	if userID == "" {
		return nil, errUnauthenticated
	}
	lines, err := s.cache.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Warnw("cart cache read failed", "user_id", userID, "error", err)
		}
		// shared by all waiters, so not tied to the first caller's cancellation
		loadCtx := context.WithoutCancel(ctx)
		v, ferr, _ := s.group.Do(userID, func() (any, error) {
			return s.refill(loadCtx, userID)
		})
		if ferr != nil {
			log.Errorw("list cart failed", "user_id", userID, "error", ferr)
			return nil, apperror.Wrap(ferr, apperror.Internal, "could not load cart")
		}
		lines = v.([]Line)
	}
	return s.hydrate(ctx, lines)
}

// refill loads the lines from the store and caches them unless a cart write
// happened after the version was read.
func (s *Service) refill(ctx context.Context, userID string) ([]Line, error) {
	version, verr := s.cache.Version(ctx, userID)
	if verr != nil {
		log.Warnw("cart cache version read failed", "user_id", userID, "error", verr)
	}
	fresh, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		if err := s.cache.Set(ctx, userID, version, fresh); err != nil {
			log.Warnw("cart cache write failed", "user_id", userID, "error", err)
		}
	}
	return fresh, nil
}

// CurrentItems is ListItems straight from the store, bypassing the cache.
// Checkout reads the cart through it.
func (s *Service) CurrentItems(ctx context.Context, userID string) ([]Line, error) {
	if userID == "" {
		return nil, errUnauthenticated
	}
	lines, err := s.repo.List(ctx, userID)
	if err != nil {
		log.Errorw("list cart failed", "user_id", userID, "error", err)
		return nil, apperror.Wrap(err, apperror.Internal, "could not load cart")
	}
	return s.hydrate(ctx, lines)
}

func (s *Service) View(ctx context.Context, userID string) (View, error) {
	lines, err := s.ListItems(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return View{Items: lines, Summary: Summarize(lines)}, nil
}

func (s *Service) hydrate(ctx context.Context, lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return []Line{}, nil
	}
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.Internal, "could not load cart products")
	}
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		l.Product = snapshot(p)
		out = append(out, l)
	}
	return out, nil
}

// available returns the product when it exists and is active.
func (s *Service) available(ctx context.Context, productID string) (product.Product, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return product.Product{}, apperror.New(apperror.ProductUnavailable, "product not found").WithField(productID)
	}
	p, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, product.ErrNotFound) {
		return product.Product{}, apperror.New(apperror.ProductUnavailable, "product not found").WithField(productID)
	}
	if err != nil {
		return product.Product{}, apperror.Wrap(err, apperror.Internal, "could not load product")
	}
	if !p.IsActive {
		return product.Product{}, apperror.New(apperror.ProductUnavailable, "%s is no longer on sale", p.Name).WithField(p.ID)
	}
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Warnw("cart cache invalidation failed", "user_id", userID, "error", err)
	}
}

func snapshot(p product.Product) *ProductSnapshot {
	return &ProductSnapshot{
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		Category:      p.Category,
	}
}
