package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockContention   = errors.New("stock update kept conflicting")
)

// InsufficientStockError names the product and how much of it is left.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Only %d left.", e.Name, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func stockLockKey(id string) string {
	return "product-stock:" + id
}

// DecrementStock takes amount units off the product's stock. The product is
// locked, re-read and written with a compare-and-swap, so two buyers can never
// both take the last unit.
func (s *Service) DecrementStock(ctx context.Context, id string, amount int) (Product, error) {
	if amount <= 0 {
		return Product{}, fmt.Errorf("decrement %d units of %s: amount must be positive", amount, id)
	}
	return s.adjustStock(ctx, id, -amount)
}

// RestoreStock puts amount units back, undoing an earlier DecrementStock.
func (s *Service) RestoreStock(ctx context.Context, id string, amount int) (Product, error) {
	if amount <= 0 {
		return Product{}, fmt.Errorf("restore %d units of %s: amount must be positive", amount, id)
	}
	return s.adjustStock(ctx, id, amount)
}

func (s *Service) adjustStock(ctx context.Context, id string, delta int) (Product, error) {
	unlock, err := s.locker.Lock(ctx, stockLockKey(id))
	if err != nil {
		return Product{}, fmt.Errorf("lock stock of %s: %w", id, err)
	}
	defer unlock()

	for attempt := 1; attempt <= s.attempts; attempt++ {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return Product{}, err
		}

		next := current.Quantity + delta
		if next < 0 {
			return current, &InsufficientStockError{
				ProductID: id,
				Name:      current.Name,
				Available: current.Quantity,
				Requested: -delta,
			}
		}

		updated, err := s.repo.SetQuantityIf(ctx, id, current.Quantity, next)
		if errors.Is(err, ErrStockChanged) {
			s.log.WithFields(logrus.Fields{"product": id, "attempt": attempt}).Warn("stock changed underneath update, retrying")
			continue
		}
		if err != nil {
			return Product{}, err
		}

		s.log.WithFields(logrus.Fields{
			"product": id,
			"from":    current.Quantity,
			"to":      updated.Quantity,
		}).Debug("stock updated")
		return updated, nil
	}

	return Product{}, fmt.Errorf("%w: product %s after %d attempts", ErrStockContention, id, s.attempts)
}
