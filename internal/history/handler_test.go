package history

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/storefront-backend/internal/collections"
	"github.com/wichananm65/storefront-backend/internal/logging"
	"github.com/wichananm65/storefront-backend/internal/receipt"
)

func makeAppWithHistoryHandler(repo receipt.Repository) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": utils.CopyString(v)}})
		}
		return c.Next()
	})
	NewHandler(NewService(repo, testOptions, logging.Discard())).RegisterProtectedRoutes(app)
	return app
}

type historyResponse struct {
	Message string  `json:"message"`
	Page    int     `json:"page"`
	History []Entry `json:"history"`
}

func getHistory(t *testing.T, app *fiber.App, userID, query string) (int, historyResponse) {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/v1/orders"+query, nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	var body historyResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res.StatusCode, body
}

func TestHistoryRoute(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "Bowl", "30")
	rc := f.receipt(t, "u1", "30")
	f.purchase(t, "u1", rc, "p1", 2)
	app := makeAppWithHistoryHandler(f.receipts)

	status, body := getHistory(t, app, "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Please log in to view your purchase history", body.Message)
	assert.NotNil(t, body.History)
	assert.Empty(t, body.History)

	status, body = getHistory(t, app, "u1", "?page=1")
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body.History, 1)
	assert.Equal(t, rc, body.History[0].ID)
	require.Len(t, body.History[0].Products, 1)
	assert.Equal(t, 2, body.History[0].Products[0].Quantity)
}

func TestHistoryRoute_Failure(t *testing.T) {
	app := makeAppWithHistoryHandler(brokenReceipts{})

	status, body := getHistory(t, app, "u1", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to fetch purchase history", body.Message)
	assert.Empty(t, body.History)
}

func TestHistoryRoute_ImageURLNullWithoutImage(t *testing.T) {
	f := newFixture(t)
	f.create(t, collections.Products, map[string]any{"id": "p1", "name": "Leash", "price": decimal.RequireFromString("15"), "quantity": 4})
	rc := f.receipt(t, "u1", "15")
	f.purchase(t, "u1", rc, "p1", 1)
	app := makeAppWithHistoryHandler(f.receipts)

	req := httptest.NewRequest("GET", "/api/v1/orders", nil)
	req.Header.Set("X-User-ID", "u1")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var raw struct {
		History []struct {
			Products []map[string]any `json:"products"`
		} `json:"history"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&raw))
	require.Len(t, raw.History, 1)
	require.Len(t, raw.History[0].Products, 1)
	image, ok := raw.History[0].Products[0]["imageUrl"]
	assert.True(t, ok)
	assert.Nil(t, image)
}
