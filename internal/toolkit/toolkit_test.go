package toolkit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"ucp-agent/internal/catalog"
	"ucp-agent/internal/model"
	"ucp-agent/internal/session"
	"ucp-agent/internal/transport"
)

// scriptedAPI returns canned responses so handler plumbing can be tested
// without a merchant.
type scriptedAPI struct {
	checkout    *model.Checkout
	err         error
	completeReq *model.CheckoutCompleteRequest
}

func (a *scriptedAPI) CreateCheckout(ctx context.Context, req *model.CheckoutCreateRequest, opts ...transport.RequestOption) (*model.Checkout, error) {
	if a.err != nil {
		return nil, a.err
	}
	created := *a.checkout
	for _, li := range req.LineItems {
		created.LineItems = append(created.LineItems, model.LineItem{
			ID: "li_1", Item: li.Item, Quantity: li.Quantity,
		})
	}
	return &created, nil
}

func (a *scriptedAPI) GetCheckout(ctx context.Context, checkoutID string) (*model.Checkout, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.checkout, nil
}

func (a *scriptedAPI) UpdateCheckout(ctx context.Context, checkoutID string, req *model.CheckoutUpdateRequest, opts ...transport.RequestOption) (*model.Checkout, error) {
	return a.checkout, a.err
}

func (a *scriptedAPI) CompleteCheckout(ctx context.Context, checkoutID string, req *model.CheckoutCompleteRequest, opts ...transport.RequestOption) (*model.Checkout, error) {
	a.completeReq = req
	return a.checkout, a.err
}

func (a *scriptedAPI) CancelCheckout(ctx context.Context, checkoutID string, opts ...transport.RequestOption) (*model.Checkout, error) {
	return a.checkout, a.err
}

func (a *scriptedAPI) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	if a.err != nil {
		return nil, a.err
	}
	return json.RawMessage(`{"id":"ord_1"}`), nil
}

func newTestToolkit(api session.CheckoutAPI) *Toolkit {
	cat := catalog.New([]catalog.Product{
		{ID: "sku_mug", Title: "Coffee Mug"},
		{ID: "sku_lamp", Title: "Desk Lamp"},
	})
	return New(session.New(api, "", nil), cat, nil, nil)
}

func TestSearchCatalogTool(t *testing.T) {
	tk := newTestToolkit(&scriptedAPI{})
	_, out, err := tk.searchCatalog(context.Background(), nil, SearchCatalogInput{Query: "mug"})
	if err != nil {
		t.Fatalf("searchCatalog: %v", err)
	}
	if len(out.Products) != 1 || out.Products[0].ID != "sku_mug" {
		t.Errorf("products = %+v", out.Products)
	}
}

func TestAddToCheckoutDefaultQuantity(t *testing.T) {
	api := &scriptedAPI{checkout: &model.Checkout{ID: "chk_1", Status: model.StatusNeedsInfo, Currency: "usd"}}
	tk := newTestToolkit(api)

	_, checkout, err := tk.addToCheckout(context.Background(), nil, AddToCheckoutInput{ItemID: "sku_mug"})
	if err != nil {
		t.Fatalf("addToCheckout: %v", err)
	}
	if len(checkout.LineItems) != 1 || checkout.LineItems[0].Quantity != 1 {
		t.Errorf("line items = %+v, want quantity defaulted to 1", checkout.LineItems)
	}
}

func TestAddToCheckoutUnknownProduct(t *testing.T) {
	tk := newTestToolkit(&scriptedAPI{})
	_, _, err := tk.addToCheckout(context.Background(), nil, AddToCheckoutInput{ItemID: "sku_ghost"})
	if err == nil {
		t.Fatal("addToCheckout accepted a product missing from the catalog")
	}
	if !strings.Contains(err.Error(), "not in the catalog") {
		t.Errorf("err = %v, want catalog miss message", err)
	}
}

func TestGetCheckoutToolWithoutSession(t *testing.T) {
	tk := newTestToolkit(&scriptedAPI{})
	_, state, err := tk.getCheckout(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("getCheckout: %v", err)
	}
	if state.Active || state.Checkout != nil {
		t.Errorf("state = %+v, want inactive", state)
	}
}

func TestToolErrorTranslations(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want string
	}{
		{"no session", model.NewNoSessionError(), "add an item to the checkout first"},
		{"validation", &model.ValidationError{
			FieldErrors: []model.FieldError{{Field: "currency", Message: "unknown"}},
		}, "the merchant rejected the request"},
		{"state", &model.StateError{Message: "checkout is not ready"}, "checkout is not ready"},
		{"version", &model.VersionError{AgentVersion: "2026-01-11", MerchantVersion: "2025-01-01"}, "merchant is incompatible"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := toolError(tc.in)
			if !strings.Contains(got.Error(), tc.want) {
				t.Errorf("toolError(%v) = %q, want substring %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCompleteCheckoutToolRequiresReadyState(t *testing.T) {
	api := &scriptedAPI{checkout: &model.Checkout{ID: "chk_1", Status: model.StatusNeedsInfo, Currency: "usd"}}
	tk := newTestToolkit(api)

	// Seed the session with a checkout first.
	if _, _, err := tk.addToCheckout(context.Background(), nil, AddToCheckoutInput{ItemID: "sku_mug"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, _, err := tk.completeCheckout(context.Background(), nil, CompleteCheckoutInput{})
	if err == nil {
		t.Fatal("completeCheckout succeeded on a checkout that is not ready")
	}
	if !strings.Contains(err.Error(), "not ready") {
		t.Errorf("err = %v, want readiness message", err)
	}
}

func TestCompleteCheckoutToolForwardsPayment(t *testing.T) {
	api := &scriptedAPI{checkout: &model.Checkout{ID: "chk_1", Status: model.StatusReadyForComplete, Currency: "usd"}}
	tk := newTestToolkit(api)

	if _, _, err := tk.addToCheckout(context.Background(), nil, AddToCheckoutInput{ItemID: "sku_mug"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, _, err := tk.completeCheckout(context.Background(), nil, CompleteCheckoutInput{
		PaymentHandlerID: "com.example.pay",
		PaymentToken:     "tok_1",
	})
	if err != nil {
		t.Fatalf("completeCheckout: %v", err)
	}
	inst := api.completeReq.PaymentData
	if inst.HandlerID != "com.example.pay" {
		t.Errorf("handler = %q, want com.example.pay", inst.HandlerID)
	}
	if inst.Credential == nil || inst.Credential.Token != "tok_1" {
		t.Errorf("credential = %+v, want token tok_1", inst.Credential)
	}
}

func TestNewMCPServer(t *testing.T) {
	tk := newTestToolkit(&scriptedAPI{})
	if server := tk.NewMCPServer(); server == nil {
		t.Fatal("NewMCPServer returned nil")
	}
	if handler := tk.NewMCPHandler(); handler == nil {
		t.Fatal("NewMCPHandler returned nil")
	}
}
