package cart

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/user"
	"github.com/wichananm65/storefront-backend/internal/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Patch("/cart/items/:id", h.updateItem)
	r.Delete("/cart/items/:id", h.removeItem)
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	view, err := h.service.View(c.UserContext(), userID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, view)
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	userID, err := user.UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req addItemRequest
	if err := validation.Bind(c, &req); err != nil {
		return apperror.Respond(c, err)
	}
	line, err := h.service.AddItem(c.UserContext(), userID, req.ProductID, req.Quantity)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, line)
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	userID, err := user.UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req updateItemRequest
	if err := validation.Bind(c, &req); err != nil {
		return apperror.Respond(c, err)
	}
	line, err := h.service.SetQuantity(c.UserContext(), userID, c.Params("id"), req.Quantity)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, line)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := user.UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := h.service.RemoveItem(c.UserContext(), userID, c.Params("id")); err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, fiber.Map{"id": c.Params("id")})
}
