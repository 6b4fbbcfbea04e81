package wishlist

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
)

// ProductLookup is the part of the catalogue the wishlist needs.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

type Service struct {
	repo     Repository
	products ProductLookup
}

func NewService(repo Repository, products ProductLookup) *Service {
	return &Service{repo: repo, products: products}
}

func (s *Service) List(ctx context.Context, id user.Identity) ([]Entry, error) {
	if !id.Authenticated() {
		return nil, user.ErrUnauthenticated
	}
	return s.repo.List(ctx, id.UserID)
}

func (s *Service) Add(ctx context.Context, id user.Identity, productID string) (Entry, error) {
	if !id.Authenticated() {
		return Entry{}, user.ErrUnauthenticated
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return Entry{}, err
	}
	if _, err := s.repo.Find(ctx, id.UserID, productID); err == nil {
		return Entry{}, ErrAlreadyWishlisted
	} else if !errors.Is(err, ErrNotWishlisted) {
		return Entry{}, err
	}
	return s.repo.Create(ctx, id.UserID, productID)
}

func (s *Service) Remove(ctx context.Context, id user.Identity, productID string) error {
	if !id.Authenticated() {
		return user.ErrUnauthenticated
	}
	e, err := s.repo.Find(ctx, id.UserID, productID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, e.ID)
}
