package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/storefront-backend/internal/collections"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

const testSecret = "test-secret"

// makeAppWithUserHandler injects a jwt.Token into locals when the X-User-ID
// header is present, standing in for jwtware.
func makeAppWithUserHandler(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": utils.CopyString(v)}})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := recordstore.NewInMemoryStore(collections.Schema())
	return NewService(NewRecordRepository(store), testSecret)
}

func TestSignUpAndSignIn(t *testing.T) {
	app := makeAppWithUserHandler(NewHandler(newTestService(t)))

	body := `{"email":"jenny@example.com","password":"pw123","name":"Jenny"}`
	req := httptest.NewRequest("POST", "/api/v1/sign-up", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	b, _ := io.ReadAll(res.Body)
	assert.NotContains(t, string(b), "password")
	assert.Contains(t, string(b), `"firstLogin":true`)

	req = httptest.NewRequest("POST", "/api/v1/sign-up", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)

	req = httptest.NewRequest("POST", "/api/v1/sign-in", strings.NewReader(`{"email":"jenny@example.com","password":"pw123"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var login struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&login))
	assert.NotEmpty(t, login.Token)

	parsed, err := jwt.Parse(login.Token, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, login.User.ID, claims["user_id"])

	req = httptest.NewRequest("POST", "/api/v1/sign-in", strings.NewReader(`{"email":"jenny@example.com","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestSignUpMissingFields(t *testing.T) {
	app := makeAppWithUserHandler(NewHandler(newTestService(t)))

	req := httptest.NewRequest("POST", "/api/v1/sign-up", strings.NewReader(`{"email":"a@b.c"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestProfileRoute(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.Register(context.Background(), User{Email: "j@example.com", Password: "pw", Name: "Jenny"})
	require.NoError(t, err)
	app := makeAppWithUserHandler(NewHandler(svc))

	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	req = httptest.NewRequest("GET", "/api/v1/profile", nil)
	req.Header.Set("X-User-ID", created.ID)
	res, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	b, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(b), "j@example.com")
	assert.NotContains(t, string(b), "password")

	req = httptest.NewRequest("GET", "/api/v1/profile", nil)
	req.Header.Set("X-User-ID", "ghost")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestCompleteTutorial(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.Register(context.Background(), User{Email: "t@example.com", Password: "pw", Name: "T"})
	require.NoError(t, err)
	require.True(t, created.FirstLogin)
	app := makeAppWithUserHandler(NewHandler(svc))

	req := httptest.NewRequest("POST", "/api/v1/profile/tutorial", nil)
	req.Header.Set("X-User-ID", created.ID)
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	got, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, got.FirstLogin)

	req = httptest.NewRequest("POST", "/api/v1/profile/tutorial", nil)
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}
