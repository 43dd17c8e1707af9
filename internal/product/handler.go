package product

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/products", h.getProducts)
	r.Get("/products/:id", h.getProduct)
}

// RegisterAdminRoutes expects r to be guarded by the admin policy.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/products", h.getAllProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/:id", h.updateProduct)
	r.Delete("/products/:id", h.deleteProduct)
	r.Patch("/products/:id/stock", h.setStock)
	r.Patch("/products/:id/active", h.setActive)
}

func filterFromQuery(c *fiber.Ctx) Filter {
	return Filter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     Sort(c.Query("sort")),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("limit", DefaultPageSize),
	}
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	page, err := h.service.ListProducts(c.UserContext(), filterFromQuery(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, page)
}

func (h *Handler) getAllProducts(c *fiber.Ctx) error {
	page, err := h.service.ListAll(c.UserContext(), filterFromQuery(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, page)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	p, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, p)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	var in Input
	if err := validation.Bind(c, &in); err != nil {
		return apperror.Respond(c, err)
	}
	p, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusCreated, p)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	var in Input
	if err := validation.Bind(c, &in); err != nil {
		return apperror.Respond(c, err)
	}
	p, err := h.service.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, p)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, fiber.Map{"id": c.Params("id")})
}

type stockRequest struct {
	StockQuantity *int `json:"stockQuantity" validate:"required"`
}

func (h *Handler) setStock(c *fiber.Ctx) error {
	var req stockRequest
	if err := validation.Bind(c, &req); err != nil {
		return apperror.Respond(c, err)
	}
	p, err := h.service.SetStock(c.UserContext(), c.Params("id"), *req.StockQuantity)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, p)
}

type activeRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *Handler) setActive(c *fiber.Ctx) error {
	var req activeRequest
	if err := validation.Bind(c, &req); err != nil {
		return apperror.Respond(c, err)
	}
	p, err := h.service.SetActive(c.UserContext(), c.Params("id"), *req.IsActive)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return apperror.OK(c, fiber.StatusOK, p)
}
