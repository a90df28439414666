// Package toolkit exposes the checkout session, product catalog, and
// merchant discovery as MCP tools an LLM agent can call.
package toolkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ucp-agent/internal/catalog"
	"ucp-agent/internal/discovery"
	"ucp-agent/internal/model"
	"ucp-agent/internal/session"
)

// Toolkit binds the commerce components behind one tool surface.
type Toolkit struct {
	session    *session.Session
	catalog    *catalog.Catalog
	negotiator *discovery.Negotiator
	logger     *slog.Logger
}

// New assembles a toolkit. The negotiator may be nil when discovery is
// handled elsewhere.
func New(sess *session.Session, cat *catalog.Catalog, neg *discovery.Negotiator, logger *slog.Logger) *Toolkit {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Toolkit{session: sess, catalog: cat, negotiator: neg, logger: logger}
}

// CheckMerchant verifies the merchant speaks a compatible UCP version.
// Call once at startup; a VersionError here means no tool call can succeed.
func (t *Toolkit) CheckMerchant(ctx context.Context) error {
	if t.negotiator == nil {
		return nil
	}
	profile, err := t.negotiator.Discover(ctx)
	if err != nil {
		return err
	}
	t.logger.Info("merchant profile negotiated",
		slog.String("merchant_version", profile.UCP.Version),
		slog.Int("capabilities", len(profile.UCP.Capabilities)))
	return nil
}

// ClearSession forgets the active checkout.
func (t *Toolkit) ClearSession() {
	t.session.ClearSession()
}

// Close releases the toolkit's resources.
func (t *Toolkit) Close() error {
	return t.session.Close()
}

// === Tool Input/Output Types ===

// SearchCatalogInput is the input schema for search_shopping_catalog.
type SearchCatalogInput struct {
	Query string `json:"query" jsonschema:"search keywords,required"`
}

// SearchCatalogOutput lists matching products.
type SearchCatalogOutput struct {
	Products []catalog.Product `json:"products"`
}

// AddToCheckoutInput is the input schema for add_to_checkout.
type AddToCheckoutInput struct {
	ItemID   string `json:"item_id" jsonschema:"product ID from the catalog,required"`
	Quantity int    `json:"quantity,omitempty" jsonschema:"quantity to add (default 1)"`
}

// RemoveFromCheckoutInput is the input schema for remove_from_checkout.
type RemoveFromCheckoutInput struct {
	ItemID string `json:"item_id" jsonschema:"product ID to remove,required"`
}

// UpdateCheckoutInput is the input schema for update_checkout.
type UpdateCheckoutInput struct {
	ItemID   string `json:"item_id" jsonschema:"product ID,required"`
	Quantity int    `json:"quantity" jsonschema:"new quantity (0 removes the item),required"`
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// CheckoutState reports the current checkout, if any.
type CheckoutState struct {
	Active   bool            `json:"active"`
	Checkout *model.Checkout `json:"checkout,omitempty"`
}

// UpdateCustomerDetailsInput is the input schema for update_customer_details.
type UpdateCustomerDetailsInput struct {
	Email           string `json:"email" jsonschema:"buyer email address,required"`
	FirstName       string `json:"first_name,omitempty" jsonschema:"buyer first name"`
	LastName        string `json:"last_name,omitempty" jsonschema:"buyer last name"`
	StreetAddress   string `json:"street_address,omitempty" jsonschema:"street address line"`
	ExtendedAddress string `json:"extended_address,omitempty" jsonschema:"apartment, suite, etc."`
	City            string `json:"city,omitempty" jsonschema:"city"`
	Region          string `json:"region,omitempty" jsonschema:"state or region code"`
	Country         string `json:"country,omitempty" jsonschema:"two-letter country code"`
	PostalCode      string `json:"postal_code,omitempty" jsonschema:"postal code"`
}

// CompleteCheckoutInput is the input schema for complete_checkout. Both
// fields default to the sandbox demo handler when omitted.
type CompleteCheckoutInput struct {
	PaymentHandlerID string `json:"payment_handler_id,omitempty" jsonschema:"payment handler id (defaults to the demo handler)"`
	PaymentToken     string `json:"payment_token,omitempty" jsonschema:"payment token issued by the handler (defaults to the demo token)"`
}

// GetOrderInput is the input schema for get_order.
type GetOrderInput struct {
	OrderID string `json:"order_id" jsonschema:"order ID from a completed checkout,required"`
}

// GetOrderOutput carries the merchant-defined order payload.
type GetOrderOutput struct {
	Order json.RawMessage `json:"order"`
}

// === Server ===

// NewMCPServer creates an MCP server with all commerce tools registered.
func (t *Toolkit) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "ucp-agent",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "UCP shopping agent - search the catalog, manage a checkout " +
				"session, collect customer details, and complete the purchase.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_shopping_catalog",
		Description: "Search the product catalog by keywords. Returns all products when the query is empty or matches nothing.",
	}, t.searchCatalog)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_checkout",
		Description: "Add an item to the checkout, creating a checkout session if none exists. Adding the same item again increases its quantity.",
	}, t.addToCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_from_checkout",
		Description: "Remove an item from the checkout entirely.",
	}, t.removeFromCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_checkout",
		Description: "Set the quantity of an item in the checkout. Quantity 0 removes the item.",
	}, t.updateCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_checkout",
		Description: "Get the current state of the checkout session, fetched fresh from the merchant.",
	}, t.getCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_customer_details",
		Description: "Submit the buyer's email and shipping address, and negotiate shipping options with the merchant.",
	}, t.updateCustomerDetails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_payment",
		Description: "Check whether the checkout is ready for payment. Lists any missing prerequisites such as email or shipping address.",
	}, t.startPayment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_checkout",
		Description: "Complete the checkout and place the order. The checkout must be ready for completion. Accepts an optional payment handler id and token; the demo handler is used when omitted.",
	}, t.completeCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_checkout",
		Description: "Cancel the active checkout session.",
	}, t.cancelCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_order",
		Description: "Look up an order placed by a completed checkout.",
	}, t.getOrder)

	return server
}

// NewMCPHandler returns an HTTP handler serving the MCP endpoint.
// Mount this at /mcp on your mux.
func (t *Toolkit) NewMCPHandler() http.Handler {
	server := t.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (t *Toolkit) searchCatalog(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchCatalogInput,
) (*mcp.CallToolResult, SearchCatalogOutput, error) {
	products := t.catalog.Search(input.Query)
	t.logger.Debug("catalog searched",
		slog.String("query", input.Query),
		slog.Int("results", len(products)))
	return nil, SearchCatalogOutput{Products: products}, nil
}

func (t *Toolkit) addToCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCheckoutInput,
) (*mcp.CallToolResult, *model.Checkout, error) {
	if _, ok := t.catalog.Get(input.ItemID); !ok {
		return nil, nil, toolError(&model.NotFoundError{
			Message: fmt.Sprintf("product %q is not in the catalog", input.ItemID),
		})
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	checkout, err := t.session.AddToCheckout(ctx, input.ItemID, quantity)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, checkout, nil
}

func (t *Toolkit) removeFromCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveFromCheckoutInput,
) (*mcp.CallToolResult, *model.Checkout, error) {
	checkout, err := t.session.RemoveFromCheckout(ctx, input.ItemID)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, checkout, nil
}

func (t *Toolkit) updateCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateCheckoutInput,
) (*mcp.CallToolResult, *model.Checkout, error) {
	checkout, err := t.session.UpdateQuantity(ctx, input.ItemID, input.Quantity)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, checkout, nil
}

func (t *Toolkit) getCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, CheckoutState, error) {
	checkout, err := t.session.GetCheckout(ctx)
	if err != nil {
		return nil, CheckoutState{}, toolError(err)
	}
	return nil, CheckoutState{Active: checkout != nil, Checkout: checkout}, nil
}

func (t *Toolkit) updateCustomerDetails(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateCustomerDetailsInput,
) (*mcp.CallToolResult, *model.Checkout, error) {
	checkout, err := t.session.UpdateCustomerDetails(ctx, session.CustomerDetails{
		Email:           input.Email,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		StreetAddress:   input.StreetAddress,
		ExtendedAddress: input.ExtendedAddress,
		City:            input.City,
		Region:          input.Region,
		Country:         input.Country,
		PostalCode:      input.PostalCode,
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, checkout, nil
}

func (t *Toolkit) startPayment(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *session.Readiness, error) {
	readiness, err := t.session.StartPayment(ctx)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, readiness, nil
}

func (t *Toolkit) completeCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CompleteCheckoutInput,
) (*mcp.CallToolResult, *model.Checkout, error) {
	checkout, err := t.session.CompleteCheckout(ctx, input.PaymentHandlerID, input.PaymentToken)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, checkout, nil
}

func (t *Toolkit) cancelCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *model.Checkout, error) {
	checkout, err := t.session.CancelCheckout(ctx)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, checkout, nil
}

func (t *Toolkit) getOrder(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetOrderInput,
) (*mcp.CallToolResult, GetOrderOutput, error) {
	order, err := t.session.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, GetOrderOutput{}, toolError(err)
	}
	return nil, GetOrderOutput{Order: order}, nil
}

// toolError rewords domain errors for the calling agent. Structured detail
// from validation failures is preserved so the model can correct its input.
func toolError(err error) error {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return fmt.Errorf("the merchant rejected the request: %s", validationErr.Error())
	}
	if errors.Is(err, model.ErrNoSession) {
		return errors.New("no active checkout session; add an item to the checkout first")
	}
	var stateErr *model.StateError
	if errors.As(err, &stateErr) {
		return errors.New(stateErr.Error())
	}
	var versionErr *model.VersionError
	if errors.As(err, &versionErr) {
		return fmt.Errorf("merchant is incompatible: %s", versionErr.Error())
	}
	return err
}
