package user

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront-backend/internal/collections"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	SetFirstLogin(ctx context.Context, id string, firstLogin bool) (User, error)
}

// RecordRepository keeps users in the "users" collection.
type RecordRepository struct {
	store recordstore.Store
}

func NewRecordRepository(store recordstore.Store) *RecordRepository {
	return &RecordRepository{store: store}
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (User, error) {
	rec, err := r.store.GetOne(ctx, collections.Users, id, "")
	if errors.Is(err, recordstore.ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return fromRecord(rec), nil
}

func (r *RecordRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	res, err := r.store.List(ctx, collections.Users, 1, 1, recordstore.ListOptions{
		Filter: recordstore.Filter("email", recordstore.OpEq, email),
	})
	if err != nil {
		return User{}, err
	}
	if len(res.Items) == 0 {
		return User{}, ErrNotFound
	}
	return fromRecord(res.Items[0]), nil
}

func (r *RecordRepository) Create(ctx context.Context, user User) (User, error) {
	fields := map[string]any{
		"email":      user.Email,
		"password":   user.Password,
		"name":       user.Name,
		"firstLogin": user.FirstLogin,
	}
	if user.ID != "" {
		fields["id"] = user.ID
	}
	rec, err := r.store.Create(ctx, collections.Users, fields)
	if err != nil {
		return User{}, err
	}
	return fromRecord(rec), nil
}

func (r *RecordRepository) SetFirstLogin(ctx context.Context, id string, firstLogin bool) (User, error) {
	rec, err := r.store.Update(ctx, collections.Users, id, map[string]any{"firstLogin": firstLogin})
	if errors.Is(err, recordstore.ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return fromRecord(rec), nil
}
