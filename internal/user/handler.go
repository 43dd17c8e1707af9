package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/validation"
)

const userIDKey = "userID"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/profile", h.getProfile)
	r.Patch("/profile", h.updateProfile)
}

// RequireUser resolves the verified token subject to an internal user id and
// stores it for UserIDFromCtx. It must run after the token middleware.
func RequireUser(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub, err := auth.Subject(c)
		if err != nil {
			return apperror.Respond(c, err)
		}
		id, err := s.ResolveOrCreate(c.UserContext(), sub)
		if err != nil {
			return apperror.Respond(c, err)
		}
		c.Locals(userIDKey, id)
		return c.Next()
	}
}

// UserIDFromCtx returns the internal id of the caller.
func UserIDFromCtx(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(userIDKey).(string)
	if !ok || id == "" {
		return "", apperror.New(apperror.Unauthenticated, "authentication required")
	}
	return id, nil
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	id, err := UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	u, err := h.service.Profile(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, u)
}

type profileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	id, err := UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req profileRequest
	if err := validation.Bind(c, &req); err != nil {
		return apperror.Respond(c, err)
	}
	u, err := h.service.Rename(c.UserContext(), id, req.Name)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, u)
}
