// Package wishlist keeps the products a user saved for later.
package wishlist

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront-backend/internal/collections"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

var (
	ErrAlreadyWishlisted = errors.New("product already in wishlist")
	ErrNotWishlisted     = errors.New("product not in wishlist")
)

const listBatch = 200

// Entry is one saved product. Product is nil when it no longer exists.
type Entry struct {
	ID        string           `json:"id"`
	ProductID string           `json:"productID"`
	Product   *product.Product `json:"product,omitempty"`
}

type Repository interface {
	List(ctx context.Context, userID string) ([]Entry, error)
	Find(ctx context.Context, userID, productID string) (Entry, error)
	Create(ctx context.Context, userID, productID string) (Entry, error)
	Delete(ctx context.Context, id string) error
}

// RecordRepository keeps entries in the "wishlist" collection.
type RecordRepository struct {
	store recordstore.Store
	files recordstore.Files
}

func NewRecordRepository(store recordstore.Store, files recordstore.Files) *RecordRepository {
	return &RecordRepository{store: store, files: files}
}

func (r *RecordRepository) toEntry(rec recordstore.Record) Entry {
	e := Entry{ID: rec.ID, ProductID: rec.String("productID")}
	if p, ok := rec.Expanded("productID"); ok {
		prod := product.FromRecord(p, r.files)
		e.Product = &prod
	}
	return e
}

func (r *RecordRepository) List(ctx context.Context, userID string) ([]Entry, error) {
	entries := make([]Entry, 0)
	for page := 1; ; page++ {
		res, err := r.store.List(ctx, collections.Wishlist, page, listBatch, recordstore.ListOptions{
			Filter: recordstore.Filter("userID", recordstore.OpEq, userID),
			Sort:   "-created",
			Expand: "productID",
		})
		if err != nil {
			return nil, err
		}
		for _, rec := range res.Items {
			entries = append(entries, r.toEntry(rec))
		}
		if page >= res.TotalPages {
			return entries, nil
		}
	}
}

func (r *RecordRepository) Find(ctx context.Context, userID, productID string) (Entry, error) {
	res, err := r.store.List(ctx, collections.Wishlist, 1, 1, recordstore.ListOptions{
		Filter: recordstore.And(
			recordstore.Filter("userID", recordstore.OpEq, userID),
			recordstore.Filter("productID", recordstore.OpEq, productID),
		),
	})
	if err != nil {
		return Entry{}, err
	}
	if len(res.Items) == 0 {
		return Entry{}, ErrNotWishlisted
	}
	return r.toEntry(res.Items[0]), nil
}

func (r *RecordRepository) Create(ctx context.Context, userID, productID string) (Entry, error) {
	rec, err := r.store.Create(ctx, collections.Wishlist, map[string]any{
		"userID":    userID,
		"productID": productID,
	})
	if err != nil {
		return Entry{}, err
	}
	return r.toEntry(rec), nil
}

func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, collections.Wishlist, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return ErrNotWishlisted
	}
	return err
}
