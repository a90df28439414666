// Package catalog provides the product lookup surface the shopping tools
// search against. Merchants expose products through checkout line items, not
// a search API, so the catalog is supplied at construction time.
package catalog

import (
	"strings"
)

// Product is a purchasable item the agent can add to a checkout.
type Product struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Catalog holds a fixed product list and answers keyword searches.
type Catalog struct {
	products []Product
}

// New creates a catalog over the given products.
func New(products []Product) *Catalog {
	return &Catalog{products: products}
}

// Products returns the full product list.
func (c *Catalog) Products() []Product {
	return c.products
}

// Get returns the product with the given id, or false when absent.
func (c *Catalog) Get(id string) (Product, bool) {
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Search returns products whose title or id contains every keyword in the
// query, case-insensitively. An empty query, or one matching nothing,
// returns the full catalog so the caller always has products to present.
func (c *Catalog) Search(query string) []Product {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return c.products
	}

	var matches []Product
	for _, p := range c.products {
		haystack := strings.ToLower(p.Title + " " + p.ID)
		all := true
		for _, kw := range keywords {
			if !strings.Contains(haystack, kw) {
				all = false
				break
			}
		}
		if all {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return c.products
	}
	return matches
}
