package product

import (
	"github.com/shopspring/decimal"

	"github.com/wichananm65/storefront-backend/internal/recordstore"
)

// Product is one catalogue entry. Quantity is the remaining stock.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Type     string          `json:"type,omitempty"`
	Image    string          `json:"image,omitempty"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

// FromRecord maps a products record, resolving the image through files.
func FromRecord(rec recordstore.Record, files recordstore.Files) Product {
	image := rec.String("image")
	return Product{
		ID:       rec.ID,
		Name:     rec.String("name"),
		Price:    rec.Decimal("price"),
		Quantity: rec.Int("quantity"),
		Type:     rec.String("type"),
		Image:    image,
		ImageURL: files.URL(rec, image),
	}
}

func (p Product) fields() map[string]any {
	fields := map[string]any{
		"name":     p.Name,
		"price":    p.Price,
		"quantity": p.Quantity,
		"type":     p.Type,
		"image":    p.Image,
	}
	if p.ID != "" {
		fields["id"] = p.ID
	}
	return fields
}

// Page is one page of a catalogue listing.
type Page struct {
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	TotalItems int       `json:"totalItems"`
	Items      []Product `json:"items"`
}

// Query narrows a catalogue listing.
type Query struct {
	Search  string
	Type    string
	Page    int
	PerPage int
}
