package model

import (
	"encoding/json"
	"errors"
	"testing"
)

// === VersionField ===

func TestVersionFieldUnmarshalString(t *testing.T) {
	var v VersionField
	if err := json.Unmarshal([]byte(`"2026-01-11"`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.String() != "2026-01-11" {
		t.Errorf("String() = %q", v.String())
	}
}

func TestVersionFieldUnmarshalWrapped(t *testing.T) {
	var v VersionField
	if err := json.Unmarshal([]byte(`{"root": "2026-01-11"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.String() != "2026-01-11" {
		t.Errorf("String() = %q", v.String())
	}
}

func TestVersionFieldUnmarshalNull(t *testing.T) {
	v := NewVersion("keep")
	if err := json.Unmarshal([]byte(`null`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.String() != "keep" {
		t.Errorf("null overwrote value: %q", v.String())
	}
}

func TestVersionFieldMarshalBareString(t *testing.T) {
	data, err := json.Marshal(NewVersion("2026-01-11"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2026-01-11"` {
		t.Errorf("marshal = %s, want bare string form", data)
	}
}

func TestVersionFieldRejectsGarbage(t *testing.T) {
	var v VersionField
	if err := json.Unmarshal([]byte(`42`), &v); err == nil {
		t.Error("numeric version accepted")
	}
}

// === Line item serialization ===

func TestLineItemUpdateOmitsEmptyID(t *testing.T) {
	data, err := json.Marshal(LineItemUpdate{
		Item:     ItemRef{ID: "sku_mug"},
		Quantity: 1,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := m["id"]; present {
		t.Errorf("new line items must not carry an id field: %s", data)
	}
}

func TestUpdateRequestAlwaysCarriesPayment(t *testing.T) {
	data, err := json.Marshal(CheckoutUpdateRequest{ID: "chk_1", Currency: "usd"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	payment, ok := m["payment"].(map[string]any)
	if !ok {
		t.Fatalf("payment must be serialized even when empty: %s", data)
	}
	instruments, ok := payment["instruments"].([]any)
	if !ok {
		t.Fatalf("instruments must be an array, never null: %s", data)
	}
	if len(instruments) != 0 {
		t.Errorf("instruments = %v, want empty", instruments)
	}
}

// === Errors ===

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{
		FieldErrors: []FieldError{
			{Field: "line_items.0.quantity", Message: "must be positive"},
			{Field: "currency", Message: "unknown"},
		},
	}
	want := "validation error: line_items.0.quantity: must be positive; currency: unknown"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorUnwrapChains(t *testing.T) {
	if !errors.Is(&ValidationError{}, ErrInvalidRequest) {
		t.Error("ValidationError should unwrap to ErrInvalidRequest")
	}
	if !errors.Is(&RequestError{}, ErrInvalidRequest) {
		t.Error("RequestError should unwrap to ErrInvalidRequest")
	}
	if !errors.Is(&NotFoundError{}, ErrNotFound) {
		t.Error("NotFoundError should unwrap to ErrNotFound")
	}
	if !errors.Is(NewNoSessionError(), ErrNoSession) {
		t.Error("no-session StateError should unwrap to ErrNoSession")
	}
}

func TestVersionErrorMessage(t *testing.T) {
	err := &VersionError{AgentVersion: "2026-01-11", MerchantVersion: "2025-06-01"}
	want := "UCP version 2026-01-11 is not supported: merchant implements version 2025-06-01"
	if err.Error() != want {
		t.Errorf("Error() = %q", err.Error())
	}
}
