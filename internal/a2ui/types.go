// Package a2ui implements the A2UI v0.8 output format: structured UI
// messages an agent emits alongside its conversational text, separated by a
// delimiter. A2UI is not a tool surface; the model writes the JSON directly
// and this package generates prompts for it, parses it back out, and
// validates it.
package a2ui

// === Protocol Constants ===

const (
	// Version is the A2UI specification version this package targets.
	Version = "0.8"

	// ExtensionURI identifies the A2UI extension in A2A transports.
	ExtensionURI = "https://a2ui.org/a2a-extension/a2ui/v0.8"

	// MIMEType labels A2UI payloads.
	MIMEType = "application/json+a2ui"

	// StandardCatalogID is the default component catalog.
	StandardCatalogID = "https://a2ui.org/specification/v0_8/standard_catalog_definition.json"

	DefaultPrimaryColor = "#4285F4"
	DefaultFont         = "Roboto"
)

// Well-known surface ids for the commerce templates.
const (
	SurfaceProducts          = "products"
	SurfaceProductDetail     = "product-detail"
	SurfaceCheckout          = "checkout"
	SurfaceOrderConfirmation = "order-confirmation"
	SurfaceCart              = "cart"
)

// === Messages ===

// Message is one A2UI protocol message. Exactly one of the four action
// fields is set; Kind reports which.
type Message struct {
	BeginRendering  *BeginRendering  `json:"beginRendering,omitempty"`
	SurfaceUpdate   *SurfaceUpdate   `json:"surfaceUpdate,omitempty"`
	DataModelUpdate *DataModelUpdate `json:"dataModelUpdate,omitempty"`
	DeleteSurface   *DeleteSurface   `json:"deleteSurface,omitempty"`
}

// Kind returns the name of the action this message carries, or "" when the
// message is empty or ambiguous.
func (m Message) Kind() string {
	var kind string
	n := 0
	if m.BeginRendering != nil {
		kind, n = "beginRendering", n+1
	}
	if m.SurfaceUpdate != nil {
		kind, n = "surfaceUpdate", n+1
	}
	if m.DataModelUpdate != nil {
		kind, n = "dataModelUpdate", n+1
	}
	if m.DeleteSurface != nil {
		kind, n = "deleteSurface", n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// BeginRendering tells the client to start rendering a surface.
type BeginRendering struct {
	SurfaceID string  `json:"surfaceId"`
	Root      string  `json:"root"`
	CatalogID string  `json:"catalogId,omitempty"`
	Styles    *Styles `json:"styles,omitempty"`
}

// Styles carries surface-level presentation hints.
type Styles struct {
	PrimaryColor string `json:"primaryColor,omitempty"`
	Font         string `json:"font,omitempty"`
}

// SurfaceUpdate replaces a surface's component tree.
type SurfaceUpdate struct {
	SurfaceID  string      `json:"surfaceId"`
	Components []Component `json:"components"`
}

// Component is a node in a surface's component tree. Spec holds the single
// catalog entry keyed by component type, e.g. {"Text": {...}}.
type Component struct {
	ID     string         `json:"id"`
	Weight float64        `json:"weight,omitempty"`
	Spec   map[string]any `json:"component"`
}

// DataModelUpdate writes entries into a surface's data model.
type DataModelUpdate struct {
	SurfaceID string      `json:"surfaceId"`
	Path      string      `json:"path,omitempty"`
	Contents  []DataEntry `json:"contents"`
}

// DeleteSurface removes a surface.
type DeleteSurface struct {
	SurfaceID string `json:"surfaceId"`
}

// DataEntry is one key in the data model adjacency list. Exactly one value
// field is set; maps nest through ValueMap.
type DataEntry struct {
	Key          string      `json:"key"`
	ValueString  *string     `json:"valueString,omitempty"`
	ValueNumber  *float64    `json:"valueNumber,omitempty"`
	ValueBoolean *bool       `json:"valueBoolean,omitempty"`
	ValueMap     []DataEntry `json:"valueMap,omitempty"`
}

// StringEntry creates a string-valued data entry.
func StringEntry(key, value string) DataEntry {
	return DataEntry{Key: key, ValueString: &value}
}

// NumberEntry creates a number-valued data entry.
func NumberEntry(key string, value float64) DataEntry {
	return DataEntry{Key: key, ValueNumber: &value}
}

// BoolEntry creates a boolean-valued data entry.
func BoolEntry(key string, value bool) DataEntry {
	return DataEntry{Key: key, ValueBoolean: &value}
}

// MapEntry creates a nested map data entry.
func MapEntry(key string, entries []DataEntry) DataEntry {
	return DataEntry{Key: key, ValueMap: entries}
}

// === Constructors ===

// Begin builds a beginRendering message. Zero-valued style arguments fall
// back to the defaults.
func Begin(surfaceID, root, primaryColor, font string) Message {
	if primaryColor == "" {
		primaryColor = DefaultPrimaryColor
	}
	if font == "" {
		font = DefaultFont
	}
	return Message{BeginRendering: &BeginRendering{
		SurfaceID: surfaceID,
		Root:      root,
		Styles:    &Styles{PrimaryColor: primaryColor, Font: font},
	}}
}

// UpdateSurface builds a surfaceUpdate message.
func UpdateSurface(surfaceID string, components []Component) Message {
	return Message{SurfaceUpdate: &SurfaceUpdate{
		SurfaceID:  surfaceID,
		Components: components,
	}}
}

// UpdateData builds a dataModelUpdate message rooted at path ("/" when
// empty).
func UpdateData(surfaceID, path string, contents []DataEntry) Message {
	if path == "" {
		path = "/"
	}
	return Message{DataModelUpdate: &DataModelUpdate{
		SurfaceID: surfaceID,
		Path:      path,
		Contents:  contents,
	}}
}

// Delete builds a deleteSurface message.
func Delete(surfaceID string) Message {
	return Message{DeleteSurface: &DeleteSurface{SurfaceID: surfaceID}}
}
