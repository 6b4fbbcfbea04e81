package product

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/storefront-backend/internal/lock"
)

type Service struct {
	repo     Repository
	locker   lock.Locker
	attempts int
	log      logrus.FieldLogger
}

// NewService wires the catalogue. attempts bounds compare-and-swap retries of a
// single stock update.
func NewService(repo Repository, locker lock.Locker, attempts int, log logrus.FieldLogger) *Service {
	if attempts < 1 {
		attempts = 1
	}
	return &Service{repo: repo, locker: locker, attempts: attempts, log: log}
}

func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) GetByID(ctx context.Context, id string) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	return s.repo.Create(ctx, p)
}

// Seed inserts products when the catalogue is empty, e.g. for local runs on
// the in-memory store.
func (s *Service) Seed(ctx context.Context, products []Product) error {
	existing, err := s.repo.List(ctx, Query{Page: 1, PerPage: 1})
	if err != nil {
		return err
	}
	if existing.TotalItems > 0 {
		return nil
	}
	for _, p := range products {
		if _, err := s.repo.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
