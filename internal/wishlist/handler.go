package wishlist

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
)

// Handler delegates wishlist operations to the wishlist service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/wishlist", h.getWishlist)
	app.Post("/api/v1/wishlist", h.addToWishlist)
	app.Delete("/api/v1/wishlist/:productId", h.removeFromWishlist)
}

type wishlistRequest struct {
	ProductID string `json:"productId"`
}

func (h *Handler) addToWishlist(c *fiber.Ctx) error {
	payload := new(wishlistRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}

	entry, err := h.service.Add(c.UserContext(), user.IdentityFromCtx(c), payload.ProductID)
	switch {
	case errors.Is(err, user.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	case errors.Is(err, product.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
	case errors.Is(err, ErrAlreadyWishlisted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "product already in wishlist"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *Handler) removeFromWishlist(c *fiber.Ctx) error {
	err := h.service.Remove(c.UserContext(), user.IdentityFromCtx(c), c.Params("productId"))
	switch {
	case errors.Is(err, user.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	case errors.Is(err, ErrNotWishlisted):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not in wishlist"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) getWishlist(c *fiber.Ctx) error {
	entries, err := h.service.List(c.UserContext(), user.IdentityFromCtx(c))
	if errors.Is(err, user.ErrUnauthenticated) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(entries)
}
