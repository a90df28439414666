// Package session implements the client's view of a merchant checkout.
//
// A Session tracks at most one active checkout id per merchant and performs
// every mutation as fetch, merge locally, resubmit: the server rejects
// partial line-item lists, so each update carries the complete desired
// state, keeping server-assigned line-item ids intact and omitting ids on
// new items. The server is authoritative; the local cache is a convenience
// snapshot of the last response, never a source of truth.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"ucp-agent/internal/model"
	"ucp-agent/internal/transport"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "usd"

// Demo payment defaults accepted by sandbox merchants. Used whenever the
// caller does not name a payment handler and token.
const (
	DefaultPaymentHandlerID = "dev.ucp.demo_payment"
	DefaultPaymentToken     = "demo-token"
)

// CheckoutAPI is the transport surface a Session drives.
// *transport.Client satisfies it.
type CheckoutAPI interface {
	CreateCheckout(ctx context.Context, req *model.CheckoutCreateRequest, opts ...transport.RequestOption) (*model.Checkout, error)
	GetCheckout(ctx context.Context, checkoutID string) (*model.Checkout, error)
	UpdateCheckout(ctx context.Context, checkoutID string, req *model.CheckoutUpdateRequest, opts ...transport.RequestOption) (*model.Checkout, error)
	CompleteCheckout(ctx context.Context, checkoutID string, req *model.CheckoutCompleteRequest, opts ...transport.RequestOption) (*model.Checkout, error)
	CancelCheckout(ctx context.Context, checkoutID string, opts ...transport.RequestOption) (*model.Checkout, error)
	GetOrder(ctx context.Context, orderID string) (json.RawMessage, error)
}

// CustomerDetails carries the buyer identity and shipping address submitted
// during fulfillment negotiation.
type CustomerDetails struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	StreetAddress   string `json:"street_address,omitempty"`
	ExtendedAddress string `json:"extended_address,omitempty"`
	City            string `json:"city,omitempty"`
	Region          string `json:"region,omitempty"`
	Country         string `json:"country,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
}

// Readiness reports whether a checkout can be completed and, when it
// cannot, which prerequisites are still missing. Missing prerequisites are
// a normal conversational state, not an error.
type Readiness struct {
	Ready   bool                 `json:"ready"`
	Status  model.CheckoutStatus `json:"status"`
	Missing []string             `json:"missing,omitempty"`
}

// Session drives a single merchant checkout through its lifecycle.
// Safe for concurrent callers; each operation holds the session lock for
// its full fetch-merge-submit cycle.
type Session struct {
	api      CheckoutAPI
	currency string
	logger   *slog.Logger

	mu         sync.Mutex
	checkoutID string
	cached     *model.Checkout
}

// New creates a session against the given API surface.
func New(api CheckoutAPI, currency string, logger *slog.Logger) *Session {
	if currency == "" {
		currency = DefaultCurrency
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{api: api, currency: currency, logger: logger}
}

// Resume attaches the session to an existing checkout without contacting
// the server. The next operation fetches its actual state.
func (s *Session) Resume(checkoutID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkoutID = checkoutID
	s.cached = nil
}

// CheckoutID returns the active checkout id, or "" when no session exists.
func (s *Session) CheckoutID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutID
}

// store updates the tracked checkout from a server response.
// Callers must hold s.mu.
func (s *Session) store(checkout *model.Checkout) {
	s.checkoutID = checkout.ID
	s.cached = checkout
}

// clear drops the tracked checkout. Callers must hold s.mu.
func (s *Session) clear() {
	s.checkoutID = ""
	s.cached = nil
}

// AddToCheckout adds quantity of the given item, creating a checkout when
// none is active. Adding an item already present increments its quantity on
// the server-assigned line item. A stale checkout id (the server no longer
// knows it) is recovered by starting a fresh checkout containing the item;
// any other failure surfaces as-is.
func (s *Session) AddToCheckout(ctx context.Context, itemID string, quantity int) (*model.Checkout, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", model.ErrInvalidRequest, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkoutID == "" {
		return s.createWithItem(ctx, itemID, quantity)
	}

	checkout, err := s.api.GetCheckout(ctx, s.checkoutID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("checkout no longer exists, starting a new one",
				slog.String("checkout_id", s.checkoutID))
			s.clear()
			return s.createWithItem(ctx, itemID, quantity)
		}
		return nil, err
	}

	items := mergeAdd(checkout.LineItems, itemID, quantity)
	updated, err := s.submitItems(ctx, checkout, items)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("checkout vanished during update, starting a new one",
				slog.String("checkout_id", checkout.ID))
			s.clear()
			return s.createWithItem(ctx, itemID, quantity)
		}
		return nil, err
	}
	s.store(updated)
	return updated, nil
}

// createWithItem starts a fresh checkout containing one item.
// Callers must hold s.mu.
func (s *Session) createWithItem(ctx context.Context, itemID string, quantity int) (*model.Checkout, error) {
	req := &model.CheckoutCreateRequest{
		Currency: s.currency,
		LineItems: []model.LineItemCreate{
			{Item: model.ItemRef{ID: itemID}, Quantity: quantity},
		},
	}
	checkout, err := s.api.CreateCheckout(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating checkout: %w", err)
	}
	s.store(checkout)
	return checkout, nil
}

// RemoveFromCheckout removes every line item referencing the given item id.
func (s *Session) RemoveFromCheckout(ctx context.Context, itemID string) (*model.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkout, err := s.activeCheckout(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]model.LineItemUpdate, 0, len(checkout.LineItems))
	for _, li := range checkout.LineItems {
		if li.Item.ID == itemID {
			continue
		}
		items = append(items, model.LineItemUpdate{ID: li.ID, Item: li.Item, Quantity: li.Quantity})
	}

	updated, err := s.submitItems(ctx, checkout, items)
	if err != nil {
		return nil, err
	}
	s.store(updated)
	return updated, nil
}

// UpdateQuantity sets the quantity of the given item. Zero or negative
// removes it; a quantity for an item not in the checkout adds it.
func (s *Session) UpdateQuantity(ctx context.Context, itemID string, quantity int) (*model.Checkout, error) {
	if quantity <= 0 {
		return s.RemoveFromCheckout(ctx, itemID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	checkout, err := s.activeCheckout(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]model.LineItemUpdate, 0, len(checkout.LineItems)+1)
	found := false
	for _, li := range checkout.LineItems {
		qty := li.Quantity
		if li.Item.ID == itemID {
			qty = quantity
			found = true
		}
		items = append(items, model.LineItemUpdate{ID: li.ID, Item: li.Item, Quantity: qty})
	}
	if !found {
		items = append(items, model.LineItemUpdate{Item: model.ItemRef{ID: itemID}, Quantity: quantity})
	}

	updated, err := s.submitItems(ctx, checkout, items)
	if err != nil {
		return nil, err
	}
	s.store(updated)
	return updated, nil
}

// UpdateCustomerDetails submits buyer identity and shipping address, then
// walks the fulfillment negotiation as far as the server's responses allow:
// address first, then destination selection, then shipping option selection.
// Each step reads the ids the previous response assigned. When the server
// omits a nested structure the walk stops there and returns the latest
// checkout rather than failing.
func (s *Session) UpdateCustomerDetails(ctx context.Context, details CustomerDetails) (*model.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkout, err := s.activeCheckout(ctx)
	if err != nil {
		return nil, err
	}

	// Step 1: buyer + proposed destination.
	dest := model.Destination{
		ID:              shortID("dest"),
		StreetAddress:   details.StreetAddress,
		ExtendedAddress: details.ExtendedAddress,
		AddressLocality: details.City,
		AddressRegion:   details.Region,
		AddressCountry:  details.Country,
		PostalCode:      details.PostalCode,
		FirstName:       details.FirstName,
		LastName:        details.LastName,
	}
	req := updateRequestFrom(checkout)
	if details.Email != "" {
		req.Buyer = &model.Buyer{
			Email:     details.Email,
			FirstName: details.FirstName,
			LastName:  details.LastName,
		}
	}
	req.Fulfillment = &model.Fulfillment{
		Methods: []model.FulfillmentMethod{
			{Type: "shipping", Destinations: []model.Destination{dest}},
		},
	}
	checkout, err = s.api.UpdateCheckout(ctx, checkout.ID, req)
	if err != nil {
		return nil, fmt.Errorf("submitting customer details: %w", err)
	}
	s.store(checkout)

	// Step 2: select the destination the server assigned.
	method := shippingMethod(checkout)
	if method == nil || len(method.Destinations) == 0 {
		s.logger.Debug("merchant returned no destinations, stopping negotiation",
			slog.String("checkout_id", checkout.ID))
		return checkout, nil
	}
	method.SelectedDestinationID = method.Destinations[0].ID
	req = updateRequestFrom(checkout)
	checkout, err = s.api.UpdateCheckout(ctx, checkout.ID, req)
	if err != nil {
		return nil, fmt.Errorf("selecting destination: %w", err)
	}
	s.store(checkout)

	// Step 3: select a shipping option in every group that offers one.
	method = shippingMethod(checkout)
	if method == nil || !selectOptions(method) {
		s.logger.Debug("merchant returned no shipping options, stopping negotiation",
			slog.String("checkout_id", checkout.ID))
		return checkout, nil
	}
	req = updateRequestFrom(checkout)
	checkout, err = s.api.UpdateCheckout(ctx, checkout.ID, req)
	if err != nil {
		return nil, fmt.Errorf("selecting shipping option: %w", err)
	}
	s.store(checkout)
	return checkout, nil
}

// StartPayment reports whether the checkout is ready to complete. Missing
// prerequisites come back as a value, not an error, so the caller can relay
// them to the buyer.
func (s *Session) StartPayment(ctx context.Context) (*Readiness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkout, err := s.activeCheckout(ctx)
	if err != nil {
		return nil, err
	}
	s.store(checkout)

	r := &Readiness{Status: checkout.Status}
	if checkout.Status == model.StatusReadyForComplete {
		r.Ready = true
		return r, nil
	}

	if checkout.Buyer == nil || checkout.Buyer.Email == "" {
		r.Missing = append(r.Missing, "buyer email address")
	}
	if !hasShippingAddress(checkout) {
		r.Missing = append(r.Missing, "shipping address")
	}
	return r, nil
}

// CompleteCheckout finalizes the checkout with a card instrument for the
// given payment handler and token; empty values fall back to the demo
// handler. The checkout must be in ready_for_complete state. On success the
// session is cleared; the returned checkout carries the order reference.
func (s *Session) CompleteCheckout(ctx context.Context, handlerID, token string) (*model.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkout, err := s.activeCheckout(ctx)
	if err != nil {
		return nil, err
	}
	if checkout.Status != model.StatusReadyForComplete {
		return nil, &model.StateError{
			Message: fmt.Sprintf("checkout is not ready for completion (status %q)", checkout.Status),
		}
	}

	req := &model.CheckoutCompleteRequest{
		PaymentData: paymentInstrument(handlerID, token),
		RiskSignals: map[string]string{"session_type": "agent"},
	}
	completed, err := s.api.CompleteCheckout(ctx, checkout.ID, req)
	if err != nil {
		return nil, fmt.Errorf("completing checkout: %w", err)
	}

	s.logger.Info("checkout completed",
		slog.String("checkout_id", completed.ID),
		slog.String("order_id", completed.OrderID))
	s.clear()
	return completed, nil
}

// CancelCheckout cancels the active checkout and clears the session.
func (s *Session) CancelCheckout(ctx context.Context) (*model.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkoutID == "" {
		return nil, model.NewNoSessionError()
	}
	cancelled, err := s.api.CancelCheckout(ctx, s.checkoutID)
	if err != nil {
		return nil, fmt.Errorf("cancelling checkout: %w", err)
	}
	s.clear()
	return cancelled, nil
}

// GetCheckout re-fetches the active checkout from the server. Returns
// (nil, nil) when no checkout is active: absence of a session is a normal
// answer, not a failure.
func (s *Session) GetCheckout(ctx context.Context) (*model.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkoutID == "" {
		return nil, nil
	}
	checkout, err := s.api.GetCheckout(ctx, s.checkoutID)
	if err != nil {
		return nil, err
	}
	s.store(checkout)
	return checkout, nil
}

// GetOrder retrieves a completed order by id.
func (s *Session) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return s.api.GetOrder(ctx, orderID)
}

// ClearSession forgets the active checkout without contacting the server.
func (s *Session) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

// Close releases the session and, when the API surface owns network
// resources, those too.
func (s *Session) Close() error {
	s.ClearSession()
	if closer, ok := s.api.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// === Internals ===

// activeCheckout fetches the current server state of the tracked checkout.
// Callers must hold s.mu.
func (s *Session) activeCheckout(ctx context.Context) (*model.Checkout, error) {
	if s.checkoutID == "" {
		return nil, model.NewNoSessionError()
	}
	checkout, err := s.api.GetCheckout(ctx, s.checkoutID)
	if err != nil {
		return nil, fmt.Errorf("fetching checkout %s: %w", s.checkoutID, err)
	}
	return checkout, nil
}

// submitItems resubmits the checkout with the given full line-item list,
// preserving everything else the server currently holds.
func (s *Session) submitItems(ctx context.Context, checkout *model.Checkout, items []model.LineItemUpdate) (*model.Checkout, error) {
	req := updateRequestFrom(checkout)
	req.LineItems = items
	updated, err := s.api.UpdateCheckout(ctx, checkout.ID, req)
	if err != nil {
		return nil, fmt.Errorf("updating checkout %s: %w", checkout.ID, err)
	}
	return updated, nil
}

// updateRequestFrom builds a full-state update request mirroring the
// server's current checkout, server-assigned ids included.
func updateRequestFrom(checkout *model.Checkout) *model.CheckoutUpdateRequest {
	items := make([]model.LineItemUpdate, 0, len(checkout.LineItems))
	for _, li := range checkout.LineItems {
		items = append(items, model.LineItemUpdate{ID: li.ID, Item: li.Item, Quantity: li.Quantity})
	}
	req := &model.CheckoutUpdateRequest{
		ID:          checkout.ID,
		Currency:    checkout.Currency,
		LineItems:   items,
		Buyer:       checkout.Buyer,
		Fulfillment: checkout.Fulfillment,
	}
	if checkout.Payment != nil {
		req.Payment = *checkout.Payment
	}
	return req
}

// mergeAdd folds an addition into the server's line-item list: an existing
// entry for the item gets its quantity incremented, otherwise a new idless
// entry is appended.
func mergeAdd(current []model.LineItem, itemID string, quantity int) []model.LineItemUpdate {
	items := make([]model.LineItemUpdate, 0, len(current)+1)
	merged := false
	for _, li := range current {
		qty := li.Quantity
		if li.Item.ID == itemID {
			qty += quantity
			merged = true
		}
		items = append(items, model.LineItemUpdate{ID: li.ID, Item: li.Item, Quantity: qty})
	}
	if !merged {
		items = append(items, model.LineItemUpdate{Item: model.ItemRef{ID: itemID}, Quantity: quantity})
	}
	return items
}

// shippingMethod returns the checkout's shipping fulfillment method, or nil.
func shippingMethod(checkout *model.Checkout) *model.FulfillmentMethod {
	if checkout.Fulfillment == nil {
		return nil
	}
	for i := range checkout.Fulfillment.Methods {
		if checkout.Fulfillment.Methods[i].Type == "shipping" {
			return &checkout.Fulfillment.Methods[i]
		}
	}
	return nil
}

// selectOptions picks the first option in every group lacking a selection.
// Reports whether any group offered options at all.
func selectOptions(method *model.FulfillmentMethod) bool {
	any := false
	for i := range method.Groups {
		group := &method.Groups[i]
		if len(group.Options) == 0 {
			continue
		}
		any = true
		if group.SelectedOptionID == "" {
			group.SelectedOptionID = group.Options[0].ID
		}
	}
	return any
}

// hasShippingAddress reports whether any shipping method carries at least
// one destination.
func hasShippingAddress(checkout *model.Checkout) bool {
	method := shippingMethod(checkout)
	return method != nil && len(method.Destinations) > 0
}

// paymentInstrument builds the card instrument submitted on completion.
// Empty arguments select the test-mode demo handler merchants accept in
// sandbox environments.
func paymentInstrument(handlerID, token string) model.PaymentInstrument {
	if handlerID == "" {
		handlerID = DefaultPaymentHandlerID
	}
	if token == "" {
		token = DefaultPaymentToken
	}
	inst := model.PaymentInstrument{
		ID:         shortID("inst"),
		HandlerID:  handlerID,
		Type:       "card",
		Brand:      "visa",
		LastDigits: "4242",
		Credential: &model.TokenCredential{Type: "token", Token: token},
	}
	if handlerID == DefaultPaymentHandlerID {
		inst.HandlerName = "Demo Payment Handler"
	}
	return inst
}

// shortID generates a prefixed 8-hex-character identifier.
func shortID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}
