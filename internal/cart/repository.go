package cart

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront-backend/internal/collections"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

var (
	ErrNotFound    = errors.New("cart item not found")
	ErrAlreadyPaid = errors.New("cart item already paid")
)

const listBatch = 200

// Repository provides access to cart lines.
type Repository interface {
	GetByID(ctx context.Context, id string) (Item, error)
	ListUnpaid(ctx context.Context, userID string) ([]Item, error)
	FindUnpaid(ctx context.Context, userID, productID string) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	SetQuantity(ctx context.Context, id string, qty int) (Item, error)
	Delete(ctx context.Context, id string) error
	// SetPaid flips statusPayment from !paid to paid. A line already in the
	// target state yields ErrAlreadyPaid when paying.
	SetPaid(ctx context.Context, id string, paid bool) error
}

// RecordRepository keeps cart lines in the "cart" collection.
type RecordRepository struct {
	store recordstore.Store
	files recordstore.Files
}

func NewRecordRepository(store recordstore.Store, files recordstore.Files) *RecordRepository {
	return &RecordRepository{store: store, files: files}
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (Item, error) {
	rec, err := r.store.GetOne(ctx, collections.Cart, id, "productID")
	if errors.Is(err, recordstore.ErrNotFound) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return FromRecord(rec, r.files), nil
}

func (r *RecordRepository) ListUnpaid(ctx context.Context, userID string) ([]Item, error) {
	filter := recordstore.And(
		recordstore.Filter("userID", recordstore.OpEq, userID),
		"statusPayment = false",
	)

	items := make([]Item, 0)
	for page := 1; ; page++ {
		res, err := r.store.List(ctx, collections.Cart, page, listBatch, recordstore.ListOptions{
			Filter: filter,
			Sort:   "created",
			Expand: "productID",
		})
		if err != nil {
			return nil, err
		}
		for _, rec := range res.Items {
			items = append(items, FromRecord(rec, r.files))
		}
		if page >= res.TotalPages {
			return items, nil
		}
	}
}

func (r *RecordRepository) FindUnpaid(ctx context.Context, userID, productID string) (Item, error) {
	res, err := r.store.List(ctx, collections.Cart, 1, 1, recordstore.ListOptions{
		Filter: recordstore.And(
			recordstore.Filter("userID", recordstore.OpEq, userID),
			recordstore.Filter("productID", recordstore.OpEq, productID),
			"statusPayment = false",
		),
	})
	if err != nil {
		return Item{}, err
	}
	if len(res.Items) == 0 {
		return Item{}, ErrNotFound
	}
	return FromRecord(res.Items[0], r.files), nil
}

func (r *RecordRepository) Create(ctx context.Context, item Item) (Item, error) {
	fields := map[string]any{
		"userID":        item.UserID,
		"productID":     item.ProductID,
		"quantity":      item.Quantity,
		"statusPayment": item.StatusPayment,
	}
	if item.ID != "" {
		fields["id"] = item.ID
	}
	rec, err := r.store.Create(ctx, collections.Cart, fields)
	if err != nil {
		return Item{}, err
	}
	return FromRecord(rec, r.files), nil
}

func (r *RecordRepository) SetQuantity(ctx context.Context, id string, qty int) (Item, error) {
	rec, err := r.store.Update(ctx, collections.Cart, id, map[string]any{"quantity": qty})
	if errors.Is(err, recordstore.ErrNotFound) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return FromRecord(rec, r.files), nil
}

func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, collections.Cart, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *RecordRepository) SetPaid(ctx context.Context, id string, paid bool) error {
	_, err := r.store.UpdateIf(ctx, collections.Cart, id,
		map[string]any{"statusPayment": !paid},
		map[string]any{"statusPayment": paid},
	)
	switch {
	case errors.Is(err, recordstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, recordstore.ErrConflict):
		if paid {
			return ErrAlreadyPaid
		}
		// already unpaid
		return nil
	}
	return err
}
