// Package order provides the trigger for order lifecycle events.
package order

import (
	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "trigger:order"
}

func (*Factory) Label() string {
	return "Order event"
}

func (*Factory) Description() string {
	return "Starts the workflow when an order lifecycle event occurs (created, updated, completed, cancelled)."
}

func (*Factory) EventCategory() string {
	return models.CategoryOrderLifecycle
}

func (*Factory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Order Trigger Configuration",
		Properties: map[string]*models.Property{
			"events": {
				Type:        "array",
				Description: "Event names to react to. Empty reacts to every order event.",
				Items: &models.Property{
					Type: "string",
					Enum: []any{"created", "updated", "completed", "cancelled"},
				},
			},
		},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Trigger, error) {
	return &Trigger{names: eventNames(config)}, nil
}

// Trigger matches order lifecycle events, optionally filtered by name.
type Trigger struct {
	names []string
}

func (t *Trigger) Matches(event *models.AnalyticsEvent) bool {
	if event.Category != models.CategoryOrderLifecycle {
		return false
	}

	return nameMatches(t.names, event.Name)
}

func (t *Trigger) ResolveContext(payload map[string]any) (map[string]any, error) {
	data := make(map[string]any, len(payload))
	for k, v := range payload {
		data[k] = v
	}

	return data, nil
}

func eventNames(config map[string]any) []string {
	raw, _ := config["events"].([]any)
	names := make([]string, 0, len(raw))

	for _, v := range raw {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}

	return names
}

func nameMatches(names []string, name string) bool {
	if len(names) == 0 {
		return true
	}

	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}
