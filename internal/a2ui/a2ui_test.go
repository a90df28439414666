package a2ui

import (
	"encoding/json"
	"strings"
	"testing"
)

func validPayload() string {
	messages := ProductCard("p1", "Mug", "$9.99", "https://example.com/mug.jpg", "A mug", "")
	data, err := json.Marshal(messages)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// === ParseResponse ===

func TestParseResponseNoDelimiter(t *testing.T) {
	text, messages := ParseResponse("Just a plain answer.", nil)
	if text != "Just a plain answer." {
		t.Errorf("text = %q", text)
	}
	if messages != nil {
		t.Errorf("messages = %v, want nil", messages)
	}
}

func TestParseResponseValidPayload(t *testing.T) {
	response := "Here is the product!\n\n" + Delimiter + "\n" + validPayload()
	text, messages := ParseResponse(response, nil)
	if text != "Here is the product!" {
		t.Errorf("text = %q", text)
	}
	if len(messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(messages))
	}
	wantKinds := []string{"beginRendering", "surfaceUpdate", "dataModelUpdate"}
	for i, kind := range wantKinds {
		if messages[i].Kind() != kind {
			t.Errorf("messages[%d].Kind() = %q, want %q", i, messages[i].Kind(), kind)
		}
	}
}

func TestParseResponseInvalidJSONDegradesToText(t *testing.T) {
	response := "Sorry, that broke.\n" + Delimiter + "\n[{not json"
	text, messages := ParseResponse(response, nil)
	if text != "Sorry, that broke." {
		t.Errorf("text = %q", text)
	}
	if messages != nil {
		t.Errorf("messages = %v, want nil for invalid payload", messages)
	}
}

func TestParseResponseEmptyPayload(t *testing.T) {
	text, messages := ParseResponse("All done.\n"+Delimiter+"\n   ", nil)
	if text != "All done." || messages != nil {
		t.Errorf("got (%q, %v), want text only", text, messages)
	}
}

func TestParseResponseStripsMarkdownFence(t *testing.T) {
	response := "Fenced:\n" + Delimiter + "\n```json\n" + validPayload() + "\n```"
	_, messages := ParseResponse(response, nil)
	if len(messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(messages))
	}
}

func TestParseResponseWrapsSingleObject(t *testing.T) {
	response := "One message.\n" + Delimiter + "\n" + `{"deleteSurface": {"surfaceId": "products"}}`
	_, messages := ParseResponse(response, nil)
	if len(messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(messages))
	}
	if messages[0].Kind() != "deleteSurface" {
		t.Errorf("Kind() = %q", messages[0].Kind())
	}
}

func TestParseResponseRejectsAmbiguousMessage(t *testing.T) {
	payload := `[{"deleteSurface": {"surfaceId": "a"}, "beginRendering": {"surfaceId": "a", "root": "r"}}]`
	_, messages := ParseResponse("Hmm.\n"+Delimiter+"\n"+payload, nil)
	if messages != nil {
		t.Errorf("messages = %v, want nil for ambiguous message", messages)
	}
}

func TestParseResponseRejectsSchemaViolation(t *testing.T) {
	// beginRendering without its required root field.
	payload := `[{"beginRendering": {"surfaceId": "products"}}]`
	_, messages := ParseResponse("Broken.\n"+Delimiter+"\n"+payload, nil)
	if messages != nil {
		t.Errorf("messages = %v, want nil for schema violation", messages)
	}
}

// === Message ===

func TestMessageKindEmpty(t *testing.T) {
	if kind := (Message{}).Kind(); kind != "" {
		t.Errorf("Kind() = %q, want empty", kind)
	}
}

func TestDataEntrySerialization(t *testing.T) {
	entry := MapEntry("product", []DataEntry{
		StringEntry("name", "Mug"),
		NumberEntry("price", 9.99),
		BoolEntry("inStock", true),
	})
	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"valueMap"`, `"valueString":"Mug"`, `"valueNumber":9.99`, `"valueBoolean":true`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("serialized entry missing %s: %s", want, data)
		}
	}
	if strings.Contains(string(data), `"valueString":""`) {
		t.Errorf("unset value fields must be omitted: %s", data)
	}
}

// === Templates ===

func TestTemplatesProduceRenderableSequences(t *testing.T) {
	cases := []struct {
		name     string
		surface  string
		messages []Message
	}{
		{"product card", SurfaceProductDetail,
			ProductCard("p1", "Mug", "$9.99", "https://example.com/m.jpg", "", "")},
		{"product list", SurfaceProducts,
			ProductList("Results", []ProductSummary{{ID: "p1", Name: "Mug", Price: "$9.99"}}, "")},
		{"checkout", SurfaceCheckout,
			CheckoutUI("chk_1", []CheckoutItem{{Title: "Mug", Quantity: 1, Total: "$9.99"}}, "$9.99", "")},
		{"order confirmation", SurfaceOrderConfirmation,
			OrderConfirmation("ord_1", "1x Mug", "$9.99", "1 Main St", "")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if len(tc.messages) != 3 {
				t.Fatalf("len = %d, want beginRendering+surfaceUpdate+dataModelUpdate", len(tc.messages))
			}
			begin := tc.messages[0].BeginRendering
			if begin == nil || begin.SurfaceID != tc.surface {
				t.Fatalf("first message = %+v, want beginRendering on %s", tc.messages[0], tc.surface)
			}
			if begin.Styles == nil || begin.Styles.PrimaryColor != DefaultPrimaryColor {
				t.Errorf("styles = %+v, want default primary color", begin.Styles)
			}
			update := tc.messages[1].SurfaceUpdate
			if update == nil || len(update.Components) == 0 {
				t.Fatalf("second message carries no components")
			}
			// The root referenced by beginRendering must exist in the tree.
			found := false
			for _, c := range update.Components {
				if c.ID == begin.Root {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("root %q not among components", begin.Root)
			}
			dmu := tc.messages[2].DataModelUpdate
			if dmu == nil || len(dmu.Contents) == 0 || dmu.Path != "/" {
				t.Fatalf("third message = %+v, want dataModelUpdate at /", tc.messages[2])
			}

			// Every template output must satisfy the published schema.
			raw, err := json.Marshal(tc.messages)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var instance any
			if err := json.Unmarshal(raw, &instance); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if err := ValidateMessages(instance, tc.messages); err != nil {
				t.Errorf("template output fails validation: %v", err)
			}
		})
	}
}

// === System Prompt ===

func TestSystemPromptContainsDelimiter(t *testing.T) {
	prompt := SystemPrompt(PromptOptions{})
	if !strings.Contains(prompt, Delimiter) {
		t.Error("prompt does not mention the delimiter")
	}
	if strings.Contains(prompt, "COMMERCE UI EXAMPLES") {
		t.Error("examples included without being requested")
	}
}

func TestSystemPromptWithExamplesAndSchema(t *testing.T) {
	prompt := SystemPrompt(PromptOptions{IncludeSchema: true, IncludeExamples: true})
	for _, want := range []string{
		"COMMERCE UI EXAMPLES",
		"=== PRODUCT CARD ===",
		"=== ORDER CONFIRMATION ===",
		"---BEGIN A2UI JSON SCHEMA---",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
