// Package collections names the storefront record collections and their relations.
package collections

import "github.com/wichananm65/storefront-backend/internal/recordstore"

const (
	Users       = "users"
	Products    = "products"
	Cart        = "cart"
	Receipts    = "receipt"
	ReceiptCart = "receiptCart"
	Wishlist    = "wishlist"
)

// Schema returns the relation map used for expansion.
func Schema() recordstore.Schema {
	return recordstore.Schema{
		Cart:        {"userID": Users, "productID": Products},
		Receipts:    {"userID": Users},
		ReceiptCart: {"cartID": Cart, "receiptID": Receipts},
		Wishlist:    {"userID": Users, "productID": Products},
	}
}
