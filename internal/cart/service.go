package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/wichananm65/storefront-backend/internal/lock"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
)

// ProductLookup is the part of the catalogue the cart needs.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

// Service orchestrates cart operations.
type Service struct {
	repo     Repository
	products ProductLookup
	locker   lock.Locker
}

func NewService(repo Repository, products ProductLookup, locker lock.Locker) *Service {
	return &Service{repo: repo, products: products, locker: locker}
}

// Add merges qty into the caller's unpaid line for productID. Negative
// quantities take units off and a line reaching zero is removed. The updated
// cart is returned.
func (s *Service) Add(ctx context.Context, id user.Identity, productID string, qty int) ([]Item, error) {
	if !id.Authenticated() {
		return nil, user.ErrUnauthenticated
	}
	if qty == 0 {
		return s.repo.ListUnpaid(ctx, id.UserID)
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "cart:"+id.UserID+":"+productID)
	if err != nil {
		return nil, fmt.Errorf("lock cart line: %w", err)
	}
	defer unlock()

	existing, err := s.repo.FindUnpaid(ctx, id.UserID, productID)
	switch {
	case errors.Is(err, ErrNotFound):
		if qty > 0 {
			_, err = s.repo.Create(ctx, Item{UserID: id.UserID, ProductID: productID, Quantity: qty})
		} else {
			err = nil
		}
	case err != nil:
	case existing.Quantity+qty <= 0:
		err = s.repo.Delete(ctx, existing.ID)
	default:
		_, err = s.repo.SetQuantity(ctx, existing.ID, existing.Quantity+qty)
	}
	if err != nil {
		return nil, err
	}

	return s.repo.ListUnpaid(ctx, id.UserID)
}

// List returns the caller's unpaid lines with their products expanded.
func (s *Service) List(ctx context.Context, id user.Identity) ([]Item, error) {
	if !id.Authenticated() {
		return nil, user.ErrUnauthenticated
	}
	return s.repo.ListUnpaid(ctx, id.UserID)
}

// Get returns a single line regardless of owner or payment status.
func (s *Service) Get(ctx context.Context, itemID string) (Item, error) {
	return s.repo.GetByID(ctx, itemID)
}

// Remove deletes one of the caller's unpaid lines.
func (s *Service) Remove(ctx context.Context, id user.Identity, itemID string) error {
	if !id.Authenticated() {
		return user.ErrUnauthenticated
	}
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != id.UserID {
		return ErrNotFound
	}
	if item.StatusPayment {
		return ErrAlreadyPaid
	}
	return s.repo.Delete(ctx, itemID)
}

// Clear deletes every unpaid line of the caller.
func (s *Service) Clear(ctx context.Context, id user.Identity) error {
	items, err := s.List(ctx, id)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := s.repo.Delete(ctx, item.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// MarkPaid flips an unpaid line to paid. Paying a line twice fails with
// ErrAlreadyPaid.
func (s *Service) MarkPaid(ctx context.Context, itemID string) error {
	return s.repo.SetPaid(ctx, itemID, true)
}

// MarkUnpaid reverts MarkPaid when a checkout is rolled back.
func (s *Service) MarkUnpaid(ctx context.Context, itemID string) error {
	return s.repo.SetPaid(ctx, itemID, false)
}
