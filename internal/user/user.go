package user

import (
	"time"

	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Password   string    `json:"password,omitempty"`
	Name       string    `json:"name"`
	FirstLogin bool      `json:"firstLogin"`
	Created    time.Time `json:"created"`
}

func fromRecord(rec recordstore.Record) User {
	return User{
		ID:         rec.ID,
		Email:      rec.String("email"),
		Password:   rec.String("password"),
		Name:       rec.String("name"),
		FirstLogin: rec.Bool("firstLogin"),
		Created:    rec.Created,
	}
}

func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
