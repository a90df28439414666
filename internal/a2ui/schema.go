package a2ui

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// MessageSchema returns the JSON schema for a single A2UI message.
func MessageSchema() *jsonschema.Schema {
	dataEntry := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"key":          {Type: "string"},
			"valueString":  {Type: "string"},
			"valueNumber":  {Type: "number"},
			"valueBoolean": {Type: "boolean"},
			"valueMap": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "object"},
			},
		},
		Required: []string{"key"},
	}

	return &jsonschema.Schema{
		Title:       "A2UI Message Schema",
		Description: "Describes a JSON payload for an A2UI (Agent to UI) message.",
		Type:        "object",
		Properties: map[string]*jsonschema.Schema{
			"beginRendering": {
				Type:        "object",
				Description: "Signals the client to begin rendering a surface.",
				Properties: map[string]*jsonschema.Schema{
					"surfaceId": {Type: "string"},
					"catalogId": {Type: "string"},
					"root":      {Type: "string"},
					"styles":    {Type: "object"},
				},
				Required: []string{"root", "surfaceId"},
			},
			"surfaceUpdate": {
				Type:        "object",
				Description: "Updates a surface with a new set of components.",
				Properties: map[string]*jsonschema.Schema{
					"surfaceId": {Type: "string"},
					"components": {
						Type: "array",
						Items: &jsonschema.Schema{
							Type: "object",
							Properties: map[string]*jsonschema.Schema{
								"id":        {Type: "string"},
								"weight":    {Type: "number"},
								"component": {Type: "object"},
							},
							Required: []string{"id", "component"},
						},
					},
				},
				Required: []string{"surfaceId", "components"},
			},
			"dataModelUpdate": {
				Type:        "object",
				Description: "Updates the data model for a surface.",
				Properties: map[string]*jsonschema.Schema{
					"surfaceId": {Type: "string"},
					"path":      {Type: "string"},
					"contents": {
						Type:  "array",
						Items: dataEntry,
					},
				},
				Required: []string{"contents", "surfaceId"},
			},
			"deleteSurface": {
				Type:        "object",
				Description: "Signals the client to delete a surface.",
				Properties: map[string]*jsonschema.Schema{
					"surfaceId": {Type: "string"},
				},
				Required: []string{"surfaceId"},
			},
		},
	}
}

// MessageListSchema wraps the message schema in an array, matching the wire
// format: a response always carries a list of messages.
func MessageListSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:  "array",
		Items: MessageSchema(),
	}
}

var (
	resolveOnce sync.Once
	resolved    *jsonschema.Resolved
	resolveErr  error
)

// ValidateMessages checks a decoded message list against the A2UI schema
// and requires each message to carry exactly one action.
func ValidateMessages(instance any, messages []Message) error {
	resolveOnce.Do(func() {
		resolved, resolveErr = MessageListSchema().Resolve(nil)
	})
	if resolveErr != nil {
		return fmt.Errorf("resolving A2UI schema: %w", resolveErr)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("A2UI schema validation: %w", err)
	}
	for i, msg := range messages {
		if msg.Kind() == "" {
			return fmt.Errorf("message %d must contain exactly one action", i)
		}
	}
	return nil
}
