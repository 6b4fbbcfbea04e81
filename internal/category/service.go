package category

import (
	"context"
	"sort"

	"github.com/wichananm65/storefront-backend/internal/product"
)

const scanBatch = 200

// Catalogue is the product listing categories are derived from.
type Catalogue interface {
	List(ctx context.Context, q product.Query) (product.Page, error)
}

type Service struct {
	catalogue Catalogue
}

func NewService(c Catalogue) *Service {
	return &Service{catalogue: c}
}

// List returns at most limit categories, largest first. Products without a
// type are not counted.
func (s *Service) List(ctx context.Context, limit int) ([]Category, error) {
	byName := map[string]*Category{}
	for page := 1; ; page++ {
		res, err := s.catalogue.List(ctx, product.Query{Page: page, PerPage: scanBatch})
		if err != nil {
			return nil, err
		}
		for _, p := range res.Items {
			if p.Type == "" {
				continue
			}
			c, ok := byName[p.Type]
			if !ok {
				c = &Category{Name: p.Type, ImageURL: p.ImageURL}
				byName[p.Type] = c
			}
			c.Products++
		}
		if page >= res.TotalPages {
			break
		}
	}

	out := make([]Category, 0, len(byName))
	for _, c := range byName {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Products != out[j].Products {
			return out[i].Products > out[j].Products
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
