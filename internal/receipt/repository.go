package receipt

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront-backend/internal/collections"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

var ErrNotFound = errors.New("receipt not found")

// Repository persists receipts and receipt-cart links.
type Repository interface {
	Create(ctx context.Context, r Receipt) (Receipt, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, page, perPage int) (Page, error)
	CreateLink(ctx context.Context, receiptID, cartID string) (Link, error)
	DeleteLink(ctx context.Context, id string) error
	ListLinks(ctx context.Context, receiptID string, page, perPage int) (LinkPage, error)
}

// RecordRepository keeps receipts in "receipt" and links in "receiptCart".
type RecordRepository struct {
	store recordstore.Store
	files recordstore.Files
}

func NewRecordRepository(store recordstore.Store, files recordstore.Files) *RecordRepository {
	return &RecordRepository{store: store, files: files}
}

func (r *RecordRepository) Create(ctx context.Context, rc Receipt) (Receipt, error) {
	rec, err := r.store.Create(ctx, collections.Receipts, map[string]any{
		"userID":        rc.UserID,
		"totalAmount":   rc.TotalAmount,
		"courier":       rc.Courier,
		"paymentOption": rc.PaymentOption,
	})
	if err != nil {
		return Receipt{}, err
	}
	return fromRecord(rec), nil
}

func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, collections.Receipts, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ListByUser returns the user's receipts newest first.
func (r *RecordRepository) ListByUser(ctx context.Context, userID string, page, perPage int) (Page, error) {
	res, err := r.store.List(ctx, collections.Receipts, page, perPage, recordstore.ListOptions{
		Filter: recordstore.Filter("userID", recordstore.OpEq, userID),
		Sort:   "-created",
	})
	if err != nil {
		return Page{}, err
	}
	out := Page{Page: res.Page, TotalPages: res.TotalPages, Items: make([]Receipt, 0, len(res.Items))}
	for _, rec := range res.Items {
		out.Items = append(out.Items, fromRecord(rec))
	}
	return out, nil
}

func (r *RecordRepository) CreateLink(ctx context.Context, receiptID, cartID string) (Link, error) {
	rec, err := r.store.Create(ctx, collections.ReceiptCart, map[string]any{
		"receiptID": receiptID,
		"cartID":    cartID,
	})
	if err != nil {
		return Link{}, err
	}
	return linkFromRecord(rec, r.files), nil
}

func (r *RecordRepository) DeleteLink(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, collections.ReceiptCart, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ListLinks returns one page of a receipt's links with the cart line and its
// product expanded.
func (r *RecordRepository) ListLinks(ctx context.Context, receiptID string, page, perPage int) (LinkPage, error) {
	res, err := r.store.List(ctx, collections.ReceiptCart, page, perPage, recordstore.ListOptions{
		Filter: recordstore.Filter("receiptID", recordstore.OpEq, receiptID),
		Sort:   "created",
		Expand: "cartID.productID",
	})
	if err != nil {
		return LinkPage{}, err
	}
	out := LinkPage{Page: res.Page, TotalPages: res.TotalPages, Items: make([]Link, 0, len(res.Items))}
	for _, rec := range res.Items {
		out.Items = append(out.Items, linkFromRecord(rec, r.files))
	}
	return out, nil
}
