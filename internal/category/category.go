package category

// Category is a product type together with how many products carry it.
// Image is the image of the first product seen in it.
type Category struct {
	Name     string `json:"categoryName"`
	Products int    `json:"products"`
	ImageURL string `json:"categoryImg,omitempty"`
}
