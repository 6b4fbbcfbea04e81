package order

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
)

// Handler exposes checkout over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/orders", h.createOrder)
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	payload := new(PlaceOrderInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	rc, err := h.service.PlaceOrder(c.UserContext(), user.IdentityFromCtx(c), *payload)
	if err != nil {
		var stockErr *product.InsufficientStockError
		switch {
		case errors.Is(err, user.ErrUnauthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Please log in to place an order"})
		case errors.As(err, &stockErr):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message":   stockErr.Error(),
				"productId": stockErr.ProductID,
				"available": stockErr.Available,
			})
		case errors.Is(err, cart.ErrAlreadyPaid):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
		case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrInvalidItem),
			errors.Is(err, ErrInvalidTotal), errors.Is(err, product.ErrNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(rc)
}
