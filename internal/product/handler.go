package product

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
	perPage int
}

func NewHandler(service *Service, perPage int) *Handler {
	return &Handler{service: service, perPage: perPage}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/:id", h.getProduct)
}

// getProducts lists the catalogue. q searches names, type filters by category.
func (h *Handler) getProducts(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), Query{
		Search:  c.Query("q"),
		Type:    c.Query("type"),
		Page:    c.QueryInt("page", 1),
		PerPage: h.perPage,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to list products"})
	}
	return c.JSON(page)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	p, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(p)
}
