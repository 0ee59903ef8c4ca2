package models

// JSONSchema represents a JSON Schema for node configuration validation.
type JSONSchema struct {
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Format      string               `json:"format,omitempty"`
	Pattern     string               `json:"pattern,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// RegisteredComponent describes one catalog entry for the editor palette.
type RegisteredComponent struct {
	Type               string      `json:"type"`
	Label              string      `json:"label"`
	Description        string      `json:"description"`
	Schema             *JSONSchema `json:"schema,omitempty"`
	SupportsSimulation bool        `json:"supports_simulation,omitempty"`
}
