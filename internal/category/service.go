package category

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		log.Errorw("list categories failed", "error", err)
		return nil, apperror.Wrap(err, apperror.Internal, "could not load categories")
	}
	for i := range items {
		items[i].Label = Label(items[i].Name)
	}
	return items, nil
}
