package order

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
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/:id", h.getOrder)
	r.Post("/orders/:id/cancel", h.cancelOrder)
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	userID, err := user.UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req Shipping
	if err := validation.Bind(c, &req); err != nil {
		return apperror.Respond(c, err)
	}
	o, err := h.service.CreateOrder(c.UserContext(), userID, req)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusCreated, o)
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	userID, err := user.UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	orders, err := h.service.ListOrders(c.UserContext(), userID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	userID, err := user.UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	o, err := h.service.GetOrder(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, o)
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	userID, err := user.UserIDFromCtx(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	o, err := h.service.CancelOrder(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, o)
}
