package user

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v4"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the authenticated caller. The zero value means nobody is
// signed in.
type Identity struct {
	UserID string
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// IdentityFromCtx reads the user_id claim of the token jwtware stored in
// c.Locals("user"). Requests without a usable token yield the zero Identity.
func IdentityFromCtx(c *fiber.Ctx) Identity {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return Identity{}
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}
	}
	switch v := claims["user_id"].(type) {
	case string:
		// the id is stored in records, so it must not alias request memory
		return Identity{UserID: utils.CopyString(v)}
	case float64:
		// tokens issued before ids became strings
		return Identity{UserID: strconv.FormatInt(int64(v), 10)}
	default:
		return Identity{}
	}
}
