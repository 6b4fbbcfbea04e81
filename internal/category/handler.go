package category

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const defaultLimit = 100

type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(s *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: s, log: log}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/product/category", h.listCategories)
}

// listCategories answers ?limit=N; non-positive limits fall back to the default.
func (h *Handler) listCategories(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}

	categories, err := h.service.List(c.UserContext(), limit)
	if err != nil {
		h.log.WithError(err).Error("list categories")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to list categories"})
	}
	return c.JSON(categories)
}
