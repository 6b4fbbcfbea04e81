package user

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromCtx(t *testing.T) {
	cases := []struct {
		name   string
		locals any
		want   Identity
	}{
		{"no token", nil, Identity{}},
		{"string claim", &jwt.Token{Claims: jwt.MapClaims{"user_id": "u1"}}, Identity{UserID: "u1"}},
		{"numeric claim", &jwt.Token{Claims: jwt.MapClaims{"user_id": float64(42)}}, Identity{UserID: "42"}},
		{"missing claim", &jwt.Token{Claims: jwt.MapClaims{"email": "x"}}, Identity{}},
		{"wrong local type", "u1", Identity{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			var got Identity
			app.Get("/", func(c *fiber.Ctx) error {
				if tc.locals != nil {
					c.Locals("user", tc.locals)
				}
				got = IdentityFromCtx(c)
				return nil
			})
			_, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.UserID != "", got.Authenticated())
		})
	}
}

func TestIdentityFromCtx_DoesNotAliasClaim(t *testing.T) {
	app := fiber.New()
	var got Identity
	app.Get("/", func(c *fiber.Ctx) error {
		buf := []byte("u1")
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": utils.UnsafeString(buf)}})
		got = IdentityFromCtx(c)
		buf[1] = '9'
		return nil
	})
	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
}
