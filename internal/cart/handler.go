package cart

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
)

// Handler delegates cart operations to the cart service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/product/cart", h.addToCart)
	app.Delete("/api/v1/cart", h.clearCart)
	app.Delete("/api/v1/cart/:id", h.removeItem)
}

type cartRequest struct {
	ProductID string `json:"productID"`
	Quantity  *int   `json:"quantity,omitempty"`
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	payload := new(cartRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productID"})
	}
	qty := 1
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}

	items, err := h.service.Add(c.UserContext(), user.IdentityFromCtx(c), payload.ProductID, qty)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), user.IdentityFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext(), user.IdentityFromCtx(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	if err := h.service.Clear(c.UserContext(), user.IdentityFromCtx(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	case errors.Is(err, product.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "cart item not found"})
	case errors.Is(err, ErrAlreadyPaid):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "cart item already paid"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
