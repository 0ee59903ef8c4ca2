// Package delivery provides the trigger for delivery status events.
package delivery

import (
	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "trigger:delivery"
}

func (*Factory) Label() string {
	return "Delivery event"
}

func (*Factory) Description() string {
	return "Starts the workflow when a delivery changes status (assigned, picked_up, completed, failed)."
}

func (*Factory) EventCategory() string {
	return models.CategoryDeliveryStatus
}

func (*Factory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Delivery Trigger Configuration",
		Properties: map[string]*models.Property{
			"events": {
				Type:        "array",
				Description: "Status names to react to. Empty reacts to every delivery event.",
				Items: &models.Property{
					Type: "string",
					Enum: []any{"assigned", "picked_up", "completed", "failed"},
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

// Trigger matches delivery status events, optionally filtered by name.
type Trigger struct {
	names []string
}

func (t *Trigger) Matches(event *models.AnalyticsEvent) bool {
	if event.Category != models.CategoryDeliveryStatus {
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
