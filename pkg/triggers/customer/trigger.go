// Package customer provides the trigger for customer lifecycle events.
package customer

import (
	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "trigger:customer"
}

func (*Factory) Label() string {
	return "Customer event"
}

func (*Factory) Description() string {
	return "Starts the workflow when a customer registers or updates their profile."
}

func (*Factory) EventCategory() string {
	return models.CategoryCustomerLifecycle
}

func (*Factory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Customer Trigger Configuration",
		Properties: map[string]*models.Property{
			"events": {
				Type:        "array",
				Description: "Event names to react to. Empty reacts to every customer event.",
				Items: &models.Property{
					Type: "string",
					Enum: []any{"registered", "updated", "deactivated"},
				},
			},
		},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Trigger, error) {
	raw, _ := config["events"].([]any)
	names := make([]string, 0, len(raw))

	for _, v := range raw {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}

	return &Trigger{names: names}, nil
}

// Trigger matches customer lifecycle events, optionally filtered by name.
type Trigger struct {
	names []string
}

func (t *Trigger) Matches(event *models.AnalyticsEvent) bool {
	if event.Category != models.CategoryCustomerLifecycle {
		return false
	}

	if len(t.names) == 0 {
		return true
	}

	for _, n := range t.names {
		if n == event.Name {
			return true
		}
	}

	return false
}

func (t *Trigger) ResolveContext(payload map[string]any) (map[string]any, error) {
	data := make(map[string]any, len(payload))
	for k, v := range payload {
		data[k] = v
	}

	return data, nil
}
