package order

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder   = errors.New("order has no items")
	ErrInvalidItem  = errors.New("invalid order item")
	ErrInvalidTotal = errors.New("total amount must not be negative")
)

// ProductRef is the client's view of the product on a cart line.
type ProductRef struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// Item is one cart line being bought.
type Item struct {
	CartItemID string     `json:"cartItemId"`
	Product    ProductRef `json:"product"`
	Quantity   int        `json:"quantity"`
}

// PlaceOrderInput is a checkout request.
type PlaceOrderInput struct {
	Items         []Item          `json:"selectedItems"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Courier       string          `json:"courier"`
	PaymentOption string          `json:"paymentOption"`
}

func (in PlaceOrderInput) validate() error {
	if len(in.Items) == 0 {
		return ErrEmptyOrder
	}
	if in.TotalAmount.IsNegative() {
		return ErrInvalidTotal
	}
	seen := make(map[string]struct{}, len(in.Items))
	for _, item := range in.Items {
		if item.CartItemID == "" || item.Product.ID == "" || item.Quantity <= 0 {
			return ErrInvalidItem
		}
		if _, dup := seen[item.CartItemID]; dup {
			return ErrInvalidItem
		}
		seen[item.CartItemID] = struct{}{}
	}
	return nil
}
