package cart

import (
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

// Item is one cart line. StatusPayment flips to true once the line was
// bought; paid lines stay around as the purchase record.
type Item struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userID"`
	ProductID     string           `json:"productID"`
	Quantity      int              `json:"quantity"`
	StatusPayment bool             `json:"statusPayment"`
	Product       *product.Product `json:"product,omitempty"`
}

// FromRecord maps a cart record. Product is set when productID was expanded.
func FromRecord(rec recordstore.Record, files recordstore.Files) Item {
	item := Item{
		ID:            rec.ID,
		UserID:        rec.String("userID"),
		ProductID:     rec.String("productID"),
		Quantity:      rec.Int("quantity"),
		StatusPayment: rec.Bool("statusPayment"),
	}
	if p, ok := rec.Expanded("productID"); ok {
		prod := product.FromRecord(p, files)
		item.Product = &prod
	}
	return item
}
