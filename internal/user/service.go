package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ResolveOrCreate maps an external identity to its internal user id, creating
// the user with a placeholder name the first time it is seen. Concurrent first
// calls for the same identity resolve to the same id.
func (s *Service) ResolveOrCreate(ctx context.Context, externalID string) (string, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return "", apperror.New(apperror.Unresolvable, "identity unconfirmed")
	}

	u, err := s.repo.GetByExternalID(ctx, externalID)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		log.Errorw("lookup user failed", "error", err)
		return "", apperror.Wrap(err, apperror.Unresolvable, "identity unconfirmed")
	}

	now := s.now().UTC()
	u, err = s.repo.CreateIfAbsent(ctx, User{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		Name:       PlaceholderName,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		log.Errorw("create user failed", "error", err)
		return "", apperror.Wrap(err, apperror.Unresolvable, "identity unconfirmed")
	}
	log.Infow("user resolved", "user_id", u.ID)
	return u.ID, nil
}

func (s *Service) Profile(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	return u, translate(err)
}

func (s *Service) Rename(ctx context.Context, id, name string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, apperror.New(apperror.InvalidInput, "name is required").WithField("name")
	}
	u, err := s.repo.UpdateName(ctx, id, name)
	return u, translate(err)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperror.New(apperror.NotFound, "user not found")
	default:
		return apperror.Wrap(err, apperror.Internal, "user lookup failed")
	}
}
