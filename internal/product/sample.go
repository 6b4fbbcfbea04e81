package product

import "github.com/shopspring/decimal"

// SampleCatalogue is loaded into an empty store for local runs.
func SampleCatalogue() []Product {
	return []Product{
		{Name: "Cat Scratcher Bed", Price: decimal.NewFromInt(840), Quantity: 12, Type: "Pet Supplies", Image: "cat-bed.svg"},
		{Name: "Double Food Bowl", Price: decimal.NewFromInt(420), Quantity: 30, Type: "Pet Supplies", Image: "double-bowl.svg"},
		{Name: "Cat Sweater", Price: decimal.NewFromInt(260), Quantity: 8, Type: "Clothes and accessories", Image: "cat-sweater.svg"},
		{Name: "Cheese Cat House", Price: decimal.NewFromInt(399), Quantity: 5, Type: "Cat exercise", Image: "cheese-house.svg"},
		{Name: "Tuna Cat Treats", Price: decimal.RequireFromString("59.50"), Quantity: 100, Type: "Cat snacks", Image: "tuna-treats.svg"},
	}
}
