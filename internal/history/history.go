// Package history builds a user's purchase history from receipts and the cart
// lines linked to them.
package history

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductLine is one product bought on a receipt. Quantity comes from the
// cart line, not from stock. ImageURL is null for products without an image.
type ProductLine struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL *string         `json:"imageUrl"`
	Quantity int             `json:"quantity"`
}

// Entry is one receipt with the products it paid for.
type Entry struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userID"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Courier       string          `json:"courier"`
	PaymentOption string          `json:"paymentOption"`
	Created       time.Time       `json:"created"`
	Products      []ProductLine   `json:"products"`
}

// Options tunes how history is read.
type Options struct {
	// PageSize is used both for receipts and for each receipt's links.
	PageSize int
	// Retries is how many extra attempts a failed link read gets.
	Retries int
	Backoff time.Duration
	Workers int
}
