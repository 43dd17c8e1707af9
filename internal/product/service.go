package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/validation"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

var errNotFound = apperror.New(apperror.NotFound, "product not found")

// ListProducts lists active products only.
func (s *Service) ListProducts(ctx context.Context, f Filter) (Page, error) {
	f.IncludeInactive = false
	return s.list(ctx, f)
}

// ListAll is the admin listing, inactive products included.
func (s *Service) ListAll(ctx context.Context, f Filter) (Page, error) {
	f.IncludeInactive = true
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f Filter) (Page, error) {
	f = f.Normalize()
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		log.Errorw("list products failed", "error", err)
		return Page{}, apperror.Wrap(err, apperror.Internal, "could not load products")
	}
	return newPage(items, total, f), nil
}

// GetProduct returns an active product; inactive ones are reported as missing.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !p.IsActive {
		return Product{}, errNotFound
	}
	return p, nil
}

func (s *Service) get(ctx context.Context, id string) (Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, errNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	return p, s.translate(err, "get product", id)
}

func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	if err := validation.Struct(&in); err != nil {
		return Product{}, err
	}
	now := s.now().UTC()
	p := Product{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
		IsActive:      true,
		StockQuantity: in.StockQuantity,
	}
	apply(&p, in)
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, s.translate(err, "create product", p.ID)
	}
	log.Infow("product created", "product_id", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Product, error) {
	if err := validation.Struct(&in); err != nil {
		return Product{}, err
	}
	cur, err := s.get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	apply(&cur, in)
	cur.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, cur)
	return updated, s.translate(err, "update product", id)
}

func (s *Service) SetStock(ctx context.Context, id string, qty int) (Product, error) {
	if qty < 0 {
		return Product{}, apperror.New(apperror.InvalidInput, "stock quantity must be zero or more").WithField("stockQuantity")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, errNotFound
	}
	p, err := s.repo.SetStock(ctx, id, qty)
	return p, s.translate(err, "set stock", id)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, errNotFound
	}
	p, err := s.repo.SetActive(ctx, id, active)
	return p, s.translate(err, "set active", id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errNotFound
	}
	return s.translate(s.repo.Delete(ctx, id), "delete product", id)
}

func (s *Service) translate(err error, op, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return errNotFound
	case errors.Is(err, ErrInUse):
		return apperror.New(apperror.InvalidInput, "product has orders; deactivate it instead")
	default:
		log.Errorw(op+" failed", "product_id", id, "error", err)
		return apperror.Wrap(err, apperror.Internal, op+" failed")
	}
}

func apply(p *Product, in Input) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.StockQuantity = in.StockQuantity
	p.Category = in.Category
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}
