// Package receipt stores checkout receipts and the links binding them to the
// cart lines they paid for.
package receipt

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

// Receipt is one completed checkout.
type Receipt struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userID"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Courier       string          `json:"courier"`
	PaymentOption string          `json:"paymentOption"`
	Created       time.Time       `json:"created"`
}

func fromRecord(rec recordstore.Record) Receipt {
	return Receipt{
		ID:            rec.ID,
		UserID:        rec.String("userID"),
		TotalAmount:   rec.Decimal("totalAmount"),
		Courier:       rec.String("courier"),
		PaymentOption: rec.String("paymentOption"),
		Created:       rec.Created,
	}
}

// Link binds a receipt to one cart line. Cart is nil when the line no longer
// resolves; Cart.Product is nil when its product no longer resolves.
type Link struct {
	ID        string     `json:"id"`
	CartID    string     `json:"cartID"`
	ReceiptID string     `json:"receiptID"`
	Cart      *cart.Item `json:"cart,omitempty"`
}

func linkFromRecord(rec recordstore.Record, files recordstore.Files) Link {
	l := Link{
		ID:        rec.ID,
		CartID:    rec.String("cartID"),
		ReceiptID: rec.String("receiptID"),
	}
	if c, ok := rec.Expanded("cartID"); ok {
		item := cart.FromRecord(c, files)
		l.Cart = &item
	}
	return l
}

// Page is one page of receipts.
type Page struct {
	Page       int
	TotalPages int
	Items      []Receipt
}

// LinkPage is one page of links.
type LinkPage struct {
	Page       int
	TotalPages int
	Items      []Link
}
