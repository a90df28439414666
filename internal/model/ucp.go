// Package model defines data structures for the UCP checkout protocol.
package model

import (
	"encoding/json"
)

// === Root Types ===

// Checkout mirrors the server's representation of a checkout session.
// It is received, never owned: the server is authoritative for every field,
// and the client echoes server-assigned identifiers back unchanged.
type Checkout struct {
	ID        string         `json:"id"`
	Status    CheckoutStatus `json:"status"`
	Currency  string         `json:"currency"`
	LineItems []LineItem     `json:"line_items"`

	Buyer       *Buyer       `json:"buyer,omitempty"`
	Fulfillment *Fulfillment `json:"fulfillment,omitempty"`
	Payment     *Payment     `json:"payment,omitempty"`

	// Order fields - populated after checkout completion
	OrderID string `json:"order_id,omitempty"`
}

// CheckoutStatus is the server-defined state of a checkout session.
// The set of values is open: compare for equality, never enumerate exhaustively.
type CheckoutStatus string

const (
	StatusNeedsInfo        CheckoutStatus = "needs_info"
	StatusReadyForComplete CheckoutStatus = "ready_for_complete"
	StatusCompleted        CheckoutStatus = "completed"
	StatusCancelled        CheckoutStatus = "cancelled"
)

// === Line Items ===

// LineItem is one product+quantity entry within a checkout.
// ID is server-assigned and must be echoed back unchanged on update.
type LineItem struct {
	ID       string  `json:"id"`
	Item     ItemRef `json:"item"`
	Quantity int     `json:"quantity"`
}

// ItemRef references a product by its catalog identifier.
type ItemRef struct {
	ID string `json:"id"`
}

// === Buyer ===

// Buyer represents the purchasing customer.
type Buyer struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// === Fulfillment ===
//
// The fulfillment structure is progressively populated by the server:
// submitting an address yields destinations, selecting a destination yields
// option groups, selecting an option makes the checkout completable. The
// client must read each response to discover the ids the next step needs.

// Fulfillment describes shipping methods for a checkout.
type Fulfillment struct {
	Methods []FulfillmentMethod `json:"methods,omitempty"`
}

// FulfillmentMethod is one way of fulfilling the order (currently "shipping").
type FulfillmentMethod struct {
	Type                  string        `json:"type"`
	Destinations          []Destination `json:"destinations,omitempty"`
	SelectedDestinationID string        `json:"selected_destination_id,omitempty"`
	Groups                []OptionGroup `json:"groups,omitempty"`
}

// Destination is a shipping address with a server-assigned id.
// On first submission the client sends a locally-generated id which the
// server may replace; subsequent steps must use the id the server echoes.
type Destination struct {
	ID              string `json:"id"`
	StreetAddress   string `json:"street_address,omitempty"`
	ExtendedAddress string `json:"extended_address,omitempty"`
	AddressLocality string `json:"address_locality,omitempty"`
	AddressRegion   string `json:"address_region,omitempty"`
	AddressCountry  string `json:"address_country,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

// OptionGroup holds shipping options the server computed for the selected
// destination, plus the client's selection.
type OptionGroup struct {
	ID               string              `json:"id,omitempty"`
	Options          []FulfillmentOption `json:"options,omitempty"`
	SelectedOptionID string              `json:"selected_option_id,omitempty"`
}

// FulfillmentOption is a single shipping choice within a group.
type FulfillmentOption struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	SubTitle string `json:"sub_title,omitempty"`
	Total    int64  `json:"total,omitempty"` // minor currency units
}

// === Payment ===

// Payment contains submitted payment instruments.
// Empty until the payment step.
type Payment struct {
	Instruments []PaymentInstrument `json:"instruments"`
}

// MarshalJSON serializes a nil instrument list as [], never null; servers
// validate instruments as a list and reject null.
func (p Payment) MarshalJSON() ([]byte, error) {
	type payment Payment
	out := payment(p)
	if out.Instruments == nil {
		out.Instruments = []PaymentInstrument{}
	}
	return json.Marshal(out)
}

// PaymentInstrument represents a payment method submitted by the buyer.
type PaymentInstrument struct {
	ID          string           `json:"id"`
	HandlerID   string           `json:"handler_id"`
	HandlerName string           `json:"handler_name,omitempty"`
	Type        string           `json:"type"`
	Brand       string           `json:"brand,omitempty"`
	LastDigits  string           `json:"last_digits,omitempty"`
	Credential  *TokenCredential `json:"credential,omitempty"`
}

// TokenCredential contains payment token data.
type TokenCredential struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// === Request Types ===
//
// Request bodies are discriminated per operation and validated before
// serialization. The server rejects partial line-item lists, so every update
// carries the complete desired state.

// CheckoutCreateRequest creates a new checkout session.
type CheckoutCreateRequest struct {
	Currency  string           `json:"currency"`
	LineItems []LineItemCreate `json:"line_items"`
	Payment   Payment          `json:"payment"`
}

// LineItemCreate is a new line item; the server assigns its id.
type LineItemCreate struct {
	Item     ItemRef `json:"item"`
	Quantity int     `json:"quantity"`
}

// CheckoutUpdateRequest replaces the checkout's state with full PUT semantics.
// LineItems is always the complete desired list: items kept from the server
// state preserve their server-assigned id, new items omit it.
type CheckoutUpdateRequest struct {
	ID          string           `json:"id"`
	Currency    string           `json:"currency"`
	LineItems   []LineItemUpdate `json:"line_items"`
	Payment     Payment          `json:"payment"`
	Buyer       *Buyer           `json:"buyer,omitempty"`
	Fulfillment *Fulfillment     `json:"fulfillment,omitempty"`
}

// LineItemUpdate is one entry of the full resubmitted line-item list.
type LineItemUpdate struct {
	ID       string  `json:"id,omitempty"`
	Item     ItemRef `json:"item"`
	Quantity int     `json:"quantity"`
}

// CheckoutCompleteRequest submits payment for completion.
type CheckoutCompleteRequest struct {
	PaymentData PaymentInstrument `json:"payment_data"`
	RiskSignals map[string]string `json:"risk_signals"`
}

// === Discovery Profile ===

// DiscoveryProfile is returned by the /.well-known/ucp endpoint.
type DiscoveryProfile struct {
	UCP UCPMetadata `json:"ucp"`
}

// UCPMetadata contains the merchant's protocol version and capability list.
type UCPMetadata struct {
	Version         string               `json:"version"`
	Capabilities    []Capability         `json:"capabilities,omitempty"`
	PaymentHandlers []PaymentHandlerInfo `json:"payment_handlers,omitempty"`
}

// PaymentHandlerInfo advertises a payment collection strategy the merchant
// accepts.
type PaymentHandlerInfo struct {
	ID      string       `json:"id"`
	Name    string       `json:"name,omitempty"`
	Version VersionField `json:"version"`
}

// Capability is a named, versioned optional protocol feature.
type Capability struct {
	Name    string       `json:"name"`
	Version VersionField `json:"version"`
}

// AgentCapability is a capability the agent declares statically.
type AgentCapability struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// VersionField accepts both a bare string and an object wrapping the string
// under "root", as emitted by some generated-model servers.
type VersionField struct {
	value string
}

// NewVersion creates a VersionField holding value.
func NewVersion(value string) VersionField {
	return VersionField{value: value}
}

// String returns the unwrapped version value.
func (v VersionField) String() string {
	return v.value
}

// UnmarshalJSON handles both "2026-01-11" and {"root": "2026-01-11"}.
func (v *VersionField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.value = s
		return nil
	}

	var wrapped struct {
		Root string `json:"root"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	v.value = wrapped.Root
	return nil
}

// MarshalJSON always emits the bare string form.
func (v VersionField) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.value)
}
