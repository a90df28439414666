package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"ucp-agent/internal/model"
)

// Typed wrappers over the UCP REST endpoints. Each call is one round trip;
// there is no retry anywhere in this layer.

// FetchProfile retrieves the merchant's discovery document.
func (c *Client) FetchProfile(ctx context.Context) (*model.DiscoveryProfile, error) {
	var profile model.DiscoveryProfile
	if err := c.Do(ctx, http.MethodGet, "/.well-known/ucp", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateCheckout creates a new checkout session.
func (c *Client) CreateCheckout(ctx context.Context, req *model.CheckoutCreateRequest, opts ...RequestOption) (*model.Checkout, error) {
	var checkout model.Checkout
	if err := c.Do(ctx, http.MethodPost, "/checkout-sessions", req, &checkout, opts...); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// GetCheckout retrieves a checkout session by id.
func (c *Client) GetCheckout(ctx context.Context, checkoutID string) (*model.Checkout, error) {
	var checkout model.Checkout
	path := "/checkout-sessions/" + url.PathEscape(checkoutID)
	if err := c.Do(ctx, http.MethodGet, path, nil, &checkout); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// UpdateCheckout replaces a checkout session's state (full PUT semantics).
func (c *Client) UpdateCheckout(ctx context.Context, checkoutID string, req *model.CheckoutUpdateRequest, opts ...RequestOption) (*model.Checkout, error) {
	var checkout model.Checkout
	path := "/checkout-sessions/" + url.PathEscape(checkoutID)
	if err := c.Do(ctx, http.MethodPut, path, req, &checkout, opts...); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// CompleteCheckout submits payment and finalizes the checkout.
func (c *Client) CompleteCheckout(ctx context.Context, checkoutID string, req *model.CheckoutCompleteRequest, opts ...RequestOption) (*model.Checkout, error) {
	var checkout model.Checkout
	path := "/checkout-sessions/" + url.PathEscape(checkoutID) + "/complete"
	if err := c.Do(ctx, http.MethodPost, path, req, &checkout, opts...); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// CancelCheckout cancels a checkout session.
func (c *Client) CancelCheckout(ctx context.Context, checkoutID string, opts ...RequestOption) (*model.Checkout, error) {
	var checkout model.Checkout
	path := "/checkout-sessions/" + url.PathEscape(checkoutID) + "/cancel"
	if err := c.Do(ctx, http.MethodPost, path, nil, &checkout, opts...); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// GetOrder retrieves an order by id. Order schemas are merchant-defined, so
// the payload is returned unparsed.
func (c *Client) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	var order json.RawMessage
	path := "/orders/" + url.PathEscape(orderID)
	if err := c.Do(ctx, http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return order, nil
}
