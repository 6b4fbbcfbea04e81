package history

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/orders", h.getHistory)
}

// getHistory reports failures with a generic message; per-receipt problems
// never reach the client.
func (h *Handler) getHistory(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	entries, err := h.service.FetchPurchaseHistory(c.UserContext(), user.IdentityFromCtx(c), page)
	switch {
	case errors.Is(err, user.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Please log in to view your purchase history",
			"history": entries,
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to fetch purchase history",
			"history": entries,
		})
	}
	return c.JSON(fiber.Map{"page": page, "history": entries})
}
