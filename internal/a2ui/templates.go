package a2ui

import (
	"fmt"
)

// Pre-built commerce UI templates. Each builder returns the fixed three
// message sequence a renderer expects: beginRendering, surfaceUpdate with
// the component tree, and dataModelUpdate with the instance data.

// ProductSummary is one product row in a list template.
type ProductSummary struct {
	ID       string
	Name     string
	Price    string
	ImageURL string
}

// CheckoutItem is one order-summary row in the checkout template.
type CheckoutItem struct {
	Title    string
	Quantity int
	Total    string
}

func comp(id string, spec map[string]any) Component {
	return Component{ID: id, Spec: spec}
}

func weighted(id string, weight float64, spec map[string]any) Component {
	return Component{ID: id, Weight: weight, Spec: spec}
}

// === Product Card ===

// ProductCardComponents is the component tree for a single product card:
// image, name, price, description, and an add-to-cart button.
func ProductCardComponents() []Component {
	return []Component{
		comp("card", map[string]any{"Card": map[string]any{"child": "card-content"}}),
		comp("card-content", map[string]any{"Column": map[string]any{
			"children": map[string]any{"explicitList": []string{
				"product-image", "product-info", "product-actions",
			}},
		}}),
		comp("product-image", map[string]any{"Image": map[string]any{
			"url":       map[string]any{"path": "imageUrl"},
			"usageHint": "largeFeature",
			"fit":       "cover",
		}}),
		comp("product-info", map[string]any{"Column": map[string]any{
			"children": map[string]any{"explicitList": []string{
				"product-name", "product-price", "product-description",
			}},
		}}),
		comp("product-name", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "name"},
			"usageHint": "h2",
		}}),
		comp("product-price", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "price"},
			"usageHint": "h3",
		}}),
		comp("product-description", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "description"},
			"usageHint": "body",
		}}),
		comp("product-actions", map[string]any{"Row": map[string]any{
			"children":     map[string]any{"explicitList": []string{"add-to-cart-btn"}},
			"distribution": "end",
		}}),
		comp("add-to-cart-btn", map[string]any{"Button": map[string]any{
			"child":   "add-btn-text",
			"primary": true,
			"action": map[string]any{
				"name": "add_to_cart",
				"context": []any{
					map[string]any{"key": "productId", "value": map[string]any{"path": "id"}},
					map[string]any{"key": "quantity", "value": map[string]any{"literalNumber": 1}},
				},
			},
		}}),
		comp("add-btn-text", map[string]any{"Text": map[string]any{
			"text": map[string]any{"literalString": "Add to Cart"},
		}}),
	}
}

// ProductCard renders a single product on the product-detail surface.
func ProductCard(id, name, price, imageURL, description, primaryColor string) []Message {
	return []Message{
		Begin(SurfaceProductDetail, "card", primaryColor, ""),
		UpdateSurface(SurfaceProductDetail, ProductCardComponents()),
		UpdateData(SurfaceProductDetail, "/", []DataEntry{
			StringEntry("id", id),
			StringEntry("name", name),
			StringEntry("price", price),
			StringEntry("imageUrl", imageURL),
			StringEntry("description", description),
		}),
	}
}

// === Product List ===

// ProductListComponents is the component tree for a vertical product list
// with a templated row per product.
func ProductListComponents() []Component {
	return []Component{
		comp("root", map[string]any{"Column": map[string]any{
			"children": map[string]any{"explicitList": []string{"page-title", "product-list"}},
		}}),
		comp("page-title", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "title"},
			"usageHint": "h1",
		}}),
		comp("product-list", map[string]any{"List": map[string]any{
			"direction": "vertical",
			"children": map[string]any{"template": map[string]any{
				"componentId": "product-item",
				"dataBinding": "/products",
			}},
		}}),
		comp("product-item", map[string]any{"Card": map[string]any{"child": "item-content"}}),
		comp("item-content", map[string]any{"Row": map[string]any{
			"children":  map[string]any{"explicitList": []string{"item-image", "item-details"}},
			"alignment": "center",
		}}),
		weighted("item-image", 1, map[string]any{"Image": map[string]any{
			"url":       map[string]any{"path": "imageUrl"},
			"usageHint": "mediumFeature",
		}}),
		weighted("item-details", 2, map[string]any{"Column": map[string]any{
			"children": map[string]any{"explicitList": []string{
				"item-name", "item-price", "item-add-btn",
			}},
		}}),
		comp("item-name", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "name"},
			"usageHint": "h3",
		}}),
		comp("item-price", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "price"},
			"usageHint": "body",
		}}),
		comp("item-add-btn", map[string]any{"Button": map[string]any{
			"child":   "item-btn-text",
			"primary": true,
			"action": map[string]any{
				"name": "add_to_cart",
				"context": []any{
					map[string]any{"key": "productId", "value": map[string]any{"path": "id"}},
				},
			},
		}}),
		comp("item-btn-text", map[string]any{"Text": map[string]any{
			"text": map[string]any{"literalString": "Add to Cart"},
		}}),
	}
}

// ProductList renders a titled list of products on the products surface.
func ProductList(title string, products []ProductSummary, primaryColor string) []Message {
	entries := make([]DataEntry, 0, len(products))
	for i, p := range products {
		entries = append(entries, MapEntry(fmt.Sprintf("product_%d", i), []DataEntry{
			StringEntry("id", p.ID),
			StringEntry("name", p.Name),
			StringEntry("price", p.Price),
			StringEntry("imageUrl", p.ImageURL),
		}))
	}
	return []Message{
		Begin(SurfaceProducts, "root", primaryColor, ""),
		UpdateSurface(SurfaceProducts, ProductListComponents()),
		UpdateData(SurfaceProducts, "/", []DataEntry{
			StringEntry("title", title),
			MapEntry("products", entries),
		}),
	}
}

// === Checkout Form ===

// CheckoutComponents is the component tree for the checkout form: order
// summary rows, shipping address fields, and cancel/place-order actions.
func CheckoutComponents() []Component {
	return []Component{
		comp("checkout-root", map[string]any{"Column": map[string]any{
			"children": map[string]any{"explicitList": []string{
				"checkout-title", "checkout-divider", "order-summary",
				"shipping-section", "checkout-actions",
			}},
		}}),
		comp("checkout-title", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"literalString": "Checkout"},
			"usageHint": "h1",
		}}),
		comp("checkout-divider", map[string]any{"Divider": map[string]any{}}),

		comp("order-summary", map[string]any{"Column": map[string]any{
			"children": map[string]any{"explicitList": []string{
				"summary-title", "items-list", "total-row",
			}},
		}}),
		comp("summary-title", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"literalString": "Order Summary"},
			"usageHint": "h3",
		}}),
		comp("items-list", map[string]any{"List": map[string]any{
			"direction": "vertical",
			"children": map[string]any{"template": map[string]any{
				"componentId": "checkout-item",
				"dataBinding": "/items",
			}},
		}}),
		comp("checkout-item", map[string]any{"Row": map[string]any{
			"children":     map[string]any{"explicitList": []string{"item-title", "item-qty", "item-total"}},
			"distribution": "spaceBetween",
		}}),
		comp("item-title", map[string]any{"Text": map[string]any{"text": map[string]any{"path": "title"}}}),
		comp("item-qty", map[string]any{"Text": map[string]any{"text": map[string]any{"path": "quantity"}}}),
		comp("item-total", map[string]any{"Text": map[string]any{"text": map[string]any{"path": "total"}}}),
		comp("total-row", map[string]any{"Row": map[string]any{
			"children":     map[string]any{"explicitList": []string{"total-label", "total-value"}},
			"distribution": "spaceBetween",
		}}),
		comp("total-label", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"literalString": "Total:"},
			"usageHint": "h4",
		}}),
		comp("total-value", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "total"},
			"usageHint": "h4",
		}}),

		comp("shipping-section", map[string]any{"Column": map[string]any{
			"children": map[string]any{"explicitList": []string{
				"shipping-title", "name-row", "address-field", "city-row", "email-field",
			}},
		}}),
		comp("shipping-title", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"literalString": "Shipping Address"},
			"usageHint": "h3",
		}}),
		comp("name-row", map[string]any{"Row": map[string]any{
			"children": map[string]any{"explicitList": []string{"first-name-field", "last-name-field"}},
		}}),
		weighted("first-name-field", 1, map[string]any{"TextField": map[string]any{
			"label": map[string]any{"literalString": "First Name"},
			"text":  map[string]any{"path": "firstName"},
		}}),
		weighted("last-name-field", 1, map[string]any{"TextField": map[string]any{
			"label": map[string]any{"literalString": "Last Name"},
			"text":  map[string]any{"path": "lastName"},
		}}),
		comp("address-field", map[string]any{"TextField": map[string]any{
			"label": map[string]any{"literalString": "Street Address"},
			"text":  map[string]any{"path": "streetAddress"},
		}}),
		comp("city-row", map[string]any{"Row": map[string]any{
			"children": map[string]any{"explicitList": []string{"city-field", "state-field", "zip-field"}},
		}}),
		weighted("city-field", 2, map[string]any{"TextField": map[string]any{
			"label": map[string]any{"literalString": "City"},
			"text":  map[string]any{"path": "city"},
		}}),
		weighted("state-field", 1, map[string]any{"TextField": map[string]any{
			"label": map[string]any{"literalString": "State"},
			"text":  map[string]any{"path": "state"},
		}}),
		weighted("zip-field", 1, map[string]any{"TextField": map[string]any{
			"label": map[string]any{"literalString": "ZIP Code"},
			"text":  map[string]any{"path": "zipCode"},
		}}),
		comp("email-field", map[string]any{"TextField": map[string]any{
			"label": map[string]any{"literalString": "Email"},
			"text":  map[string]any{"path": "email"},
		}}),

		comp("checkout-actions", map[string]any{"Row": map[string]any{
			"children":     map[string]any{"explicitList": []string{"cancel-btn", "place-order-btn"}},
			"distribution": "spaceBetween",
		}}),
		comp("cancel-btn", map[string]any{"Button": map[string]any{
			"child":  "cancel-text",
			"action": map[string]any{"name": "cancel_checkout"},
		}}),
		comp("cancel-text", map[string]any{"Text": map[string]any{
			"text": map[string]any{"literalString": "Cancel"},
		}}),
		comp("place-order-btn", map[string]any{"Button": map[string]any{
			"child":   "place-order-text",
			"primary": true,
			"action": map[string]any{
				"name": "place_order",
				"context": []any{
					map[string]any{"key": "checkoutId", "value": map[string]any{"path": "checkoutId"}},
				},
			},
		}}),
		comp("place-order-text", map[string]any{"Text": map[string]any{
			"text": map[string]any{"literalString": "Place Order"},
		}}),
	}
}

// CheckoutUI renders the checkout form on the checkout surface. Shipping
// fields start empty for the user to fill in.
func CheckoutUI(checkoutID string, items []CheckoutItem, total, primaryColor string) []Message {
	entries := make([]DataEntry, 0, len(items))
	for i, item := range items {
		entries = append(entries, MapEntry(fmt.Sprintf("item_%d", i), []DataEntry{
			StringEntry("title", item.Title),
			StringEntry("quantity", fmt.Sprintf("%d", item.Quantity)),
			StringEntry("total", item.Total),
		}))
	}
	return []Message{
		Begin(SurfaceCheckout, "checkout-root", primaryColor, ""),
		UpdateSurface(SurfaceCheckout, CheckoutComponents()),
		UpdateData(SurfaceCheckout, "/", []DataEntry{
			StringEntry("checkoutId", checkoutID),
			MapEntry("items", entries),
			StringEntry("total", total),
			StringEntry("firstName", ""),
			StringEntry("lastName", ""),
			StringEntry("streetAddress", ""),
			StringEntry("city", ""),
			StringEntry("state", ""),
			StringEntry("zipCode", ""),
			StringEntry("email", ""),
		}),
	}
}

// === Order Confirmation ===

// OrderConfirmationComponents is the component tree for the post-purchase
// confirmation card.
func OrderConfirmationComponents() []Component {
	return []Component{
		comp("confirmation-root", map[string]any{"Card": map[string]any{
			"child": "confirmation-content",
		}}),
		comp("confirmation-content", map[string]any{"Column": map[string]any{
			"children": map[string]any{"explicitList": []string{
				"success-icon", "confirmation-title", "order-id", "divider",
				"items-summary", "total-section", "shipping-info",
			}},
			"alignment": "center",
		}}),
		comp("success-icon", map[string]any{"Icon": map[string]any{
			"name": map[string]any{"literalString": "check"},
		}}),
		comp("confirmation-title", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"literalString": "Order Confirmed!"},
			"usageHint": "h1",
		}}),
		comp("order-id", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "orderIdDisplay"},
			"usageHint": "body",
		}}),
		comp("divider", map[string]any{"Divider": map[string]any{}}),
		comp("items-summary", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "itemsSummary"},
			"usageHint": "body",
		}}),
		comp("total-section", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "totalDisplay"},
			"usageHint": "h3",
		}}),
		comp("shipping-info", map[string]any{"Column": map[string]any{
			"children": map[string]any{"explicitList": []string{"shipping-label", "shipping-address"}},
		}}),
		comp("shipping-label", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"literalString": "Shipping to:"},
			"usageHint": "caption",
		}}),
		comp("shipping-address", map[string]any{"Text": map[string]any{
			"text":      map[string]any{"path": "shippingAddress"},
			"usageHint": "body",
		}}),
	}
}

// OrderConfirmation renders the order confirmation card.
func OrderConfirmation(orderID, itemsSummary, total, shippingAddress, primaryColor string) []Message {
	return []Message{
		Begin(SurfaceOrderConfirmation, "confirmation-root", primaryColor, ""),
		UpdateSurface(SurfaceOrderConfirmation, OrderConfirmationComponents()),
		UpdateData(SurfaceOrderConfirmation, "/", []DataEntry{
			StringEntry("orderId", orderID),
			StringEntry("orderIdDisplay", "Order #"+orderID),
			StringEntry("itemsSummary", itemsSummary),
			StringEntry("totalDisplay", "Total: "+total),
			StringEntry("shippingAddress", shippingAddress),
		}),
	}
}
