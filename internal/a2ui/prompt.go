package a2ui

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Delimiter separates conversational text from the A2UI JSON array in a
// model response.
const Delimiter = "---a2ui_JSON---"

// PromptOptions controls what the generated system prompt includes.
type PromptOptions struct {
	IncludeSchema   bool
	IncludeExamples bool
}

// SystemPrompt returns instructions that teach a model to emit A2UI JSON
// after the delimiter. Append this to the agent's base system prompt.
func SystemPrompt(opts PromptOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, `
You can generate rich UIs using the A2UI (Agent-to-User Interface) format.

When you need to show products, checkout information, or order details to the user,
generate A2UI JSON in your response using the following format:

A2UI MESSAGE TYPES:
- beginRendering: Start a new UI surface with root component and styles
- surfaceUpdate: Define the component tree for a surface
- dataModelUpdate: Update data values that components reference
- deleteSurface: Remove a surface

IMPORTANT:
- Each UI must have a beginRendering, surfaceUpdate, and dataModelUpdate message
- The JSON must be a valid array of A2UI messages
- Do NOT wrap the JSON in markdown code blocks after the delimiter
- Only include the delimiter and JSON when you want to render a UI
- Component IDs must be unique and should NOT match data path names (e.g., use "product-name" not "name")
- When displaying product lists, include ALL products from the data source, not just one or two

RESPONSE FORMAT:
1. Your response MUST be in two parts, separated by the delimiter: %s
2. The first part is your conversational text response.
3. The second part is a raw JSON array of A2UI messages (no markdown code blocks).

Example response structure:
Here are the flowers you requested!

%s
[{"beginRendering": ...}, {"surfaceUpdate": ...}, {"dataModelUpdate": ...}]
`, "`"+Delimiter+"`", Delimiter)

	if opts.IncludeExamples {
		b.WriteString(commerceExamples())
	}
	if opts.IncludeSchema {
		schemaJSON, err := json.MarshalIndent(MessageListSchema(), "", "  ")
		if err == nil {
			fmt.Fprintf(&b, "\n---BEGIN A2UI JSON SCHEMA---\n%s\n---END A2UI JSON SCHEMA---\n", schemaJSON)
		}
	}
	return b.String()
}

// commerceExamples renders each template once with sample data so the model
// sees complete, valid message sequences.
func commerceExamples() string {
	type example struct {
		title    string
		note     string
		messages []Message
	}
	examples := []example{
		{
			title: "PRODUCT CARD",
			note:  "A single product card with image, name, price, and add to cart button:",
			messages: ProductCard("product-123", "Red Roses", "$29.99",
				"https://example.com/roses.jpg", "Beautiful red roses bouquet", ""),
		},
		{
			title: "PRODUCT LIST",
			note:  "A list of products for search results. IMPORTANT: Include ALL products from search results, not just one or two:",
			messages: ProductList("Available Products", []ProductSummary{
				{ID: "roses", Name: "Red Roses", Price: "$29.99", ImageURL: "https://example.com/roses.jpg"},
				{ID: "tulips", Name: "Tulips", Price: "$19.99", ImageURL: "https://example.com/tulips.jpg"},
				{ID: "sunflowers", Name: "Sunflowers", Price: "$24.99", ImageURL: "https://example.com/sunflowers.jpg"},
			}, ""),
		},
		{
			title: "CHECKOUT FORM",
			note:  "A checkout form with order summary and shipping fields:",
			messages: CheckoutUI("checkout-123", []CheckoutItem{
				{Title: "Red Roses", Quantity: 2, Total: "$59.98"},
			}, "$59.98", ""),
		},
		{
			title: "ORDER CONFIRMATION",
			note:  "An order confirmation card after successful purchase:",
			messages: OrderConfirmation("ORD-12345", "2x Red Roses", "$59.98",
				"123 Main St, New York, NY 10001", "#4CAF50"),
		},
	}

	var b strings.Builder
	b.WriteString("\nCOMMERCE UI EXAMPLES:\n")
	for _, ex := range examples {
		payload, err := json.MarshalIndent(ex.messages, "", "  ")
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n=== %s ===\n%s\n\n%s\n%s\n", ex.title, ex.note, Delimiter, payload)
	}
	return b.String()
}

// ParseResponse splits a model response into conversational text and A2UI
// messages. Absent delimiter, malformed JSON, or schema-invalid payloads
// all degrade to text with no messages: a broken UI payload must never
// break the conversation.
func ParseResponse(response string, logger *slog.Logger) (string, []Message) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	text, payload, found := strings.Cut(response, Delimiter)
	text = strings.TrimSpace(text)
	if !found {
		return text, nil
	}

	payload = stripFences(payload)
	if payload == "" {
		return text, nil
	}

	messages, err := decodeMessages(payload)
	if err != nil {
		logger.Warn("discarding invalid A2UI payload", slog.Any("error", err))
		return text, nil
	}
	return text, messages
}

// decodeMessages parses an A2UI JSON payload. A single object is accepted
// and wrapped in a one-element list.
func decodeMessages(payload string) ([]Message, error) {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "{") {
		trimmed = "[" + trimmed + "]"
	}

	var messages []Message
	if err := json.Unmarshal([]byte(trimmed), &messages); err != nil {
		return nil, fmt.Errorf("parsing A2UI JSON: %w", err)
	}

	var instance any
	if err := json.Unmarshal([]byte(trimmed), &instance); err != nil {
		return nil, fmt.Errorf("parsing A2UI JSON: %w", err)
	}
	if err := ValidateMessages(instance, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// stripFences removes a markdown code fence the model may have wrapped the
// payload in despite instructions.
func stripFences(payload string) string {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return s
}
