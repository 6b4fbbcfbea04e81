package product

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront-backend/internal/collections"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

var (
	ErrNotFound = errors.New("product not found")
	// ErrStockChanged means the stored quantity moved between read and write.
	ErrStockChanged = errors.New("product stock changed")
)

type Repository interface {
	List(ctx context.Context, q Query) (Page, error)
	GetByID(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	// SetQuantityIf writes next only while the stored quantity is still current.
	SetQuantityIf(ctx context.Context, id string, current, next int) (Product, error)
}

// RecordRepository keeps products in the "products" collection.
type RecordRepository struct {
	store recordstore.Store
	files recordstore.Files
}

func NewRecordRepository(store recordstore.Store, files recordstore.Files) *RecordRepository {
	return &RecordRepository{store: store, files: files}
}

func (r *RecordRepository) List(ctx context.Context, q Query) (Page, error) {
	filter := recordstore.And(
		optional("name", recordstore.OpLike, q.Search),
		optional("type", recordstore.OpEq, q.Type),
	)
	res, err := r.store.List(ctx, collections.Products, q.Page, q.PerPage, recordstore.ListOptions{
		Filter: filter,
		Sort:   "name",
	})
	if err != nil {
		return Page{}, err
	}

	page := Page{
		Page:       res.Page,
		TotalPages: res.TotalPages,
		TotalItems: res.TotalItems,
		Items:      make([]Product, 0, len(res.Items)),
	}
	for _, rec := range res.Items {
		page.Items = append(page.Items, FromRecord(rec, r.files))
	}
	return page, nil
}

func optional(field string, op recordstore.Op, value string) string {
	if value == "" {
		return ""
	}
	return recordstore.Filter(field, op, value)
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (Product, error) {
	rec, err := r.store.GetOne(ctx, collections.Products, id, "")
	if errors.Is(err, recordstore.ErrNotFound) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return FromRecord(rec, r.files), nil
}

func (r *RecordRepository) Create(ctx context.Context, p Product) (Product, error) {
	rec, err := r.store.Create(ctx, collections.Products, p.fields())
	if err != nil {
		return Product{}, err
	}
	return FromRecord(rec, r.files), nil
}

func (r *RecordRepository) SetQuantityIf(ctx context.Context, id string, current, next int) (Product, error) {
	rec, err := r.store.UpdateIf(ctx, collections.Products, id,
		map[string]any{"quantity": current},
		map[string]any{"quantity": next},
	)
	switch {
	case errors.Is(err, recordstore.ErrConflict):
		return Product{}, ErrStockChanged
	case errors.Is(err, recordstore.ErrNotFound):
		return Product{}, ErrNotFound
	case err != nil:
		return Product{}, err
	}
	return FromRecord(rec, r.files), nil
}
