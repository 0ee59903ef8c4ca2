// Package publishevent provides an action that re-publishes a new analytics
// event on the bus, enabling workflow chaining.
package publishevent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conductorhq/conductor/pkg/eventbus"
	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/protocol"
	"github.com/conductorhq/conductor/pkg/template"
)

type Factory struct {
	bus eventbus.EventBus
}

func NewFactory(bus eventbus.EventBus) *Factory {
	return &Factory{bus: bus}
}

func (*Factory) ID() string {
	return "publish_event"
}

func (*Factory) Label() string {
	return "Publish event"
}

func (*Factory) Description() string {
	return "Publishes a new analytics event on the event bus, so other workflows can chain off this one."
}

// SupportsSimulation is true: under simulation nothing reaches the bus.
func (*Factory) SupportsSimulation() bool {
	return true
}

func (*Factory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Publish Event Action Configuration",
		Properties: map[string]*models.Property{
			"category": {
				Type:        "string",
				Description: "Category of the published event.",
			},
			"name": {
				Type:        "string",
				Description: "Name of the published event.",
			},
			"payload": {
				Type:        "object",
				Description: "Event payload. String values support templating against the execution context.",
			},
		},
		Required: []string{"category", "name"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	category, _ := config["category"].(string)
	name, _ := config["name"].(string)

	if category == "" || name == "" {
		return nil, fmt.Errorf("publish_event action requires category and name")
	}

	payload, _ := config["payload"].(map[string]any)

	return &Action{bus: f.bus, category: category, name: name, payload: payload}, nil
}

type Action struct {
	bus      eventbus.EventBus
	category string
	name     string
	payload  map[string]any
}

func (a *Action) Run(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (*models.ActionResult, error) {
	payload := make(map[string]any, len(a.payload))

	for key, value := range a.payload {
		if s, ok := value.(string); ok {
			rendered, err := template.RenderWithContext(s, executionCtx)
			if err != nil {
				return nil, fmt.Errorf("failed to render payload field %q: %w", key, err)
			}

			payload[key] = rendered

			continue
		}

		payload[key] = value
	}

	payload["source_workflow_id"] = executionCtx.WorkflowID
	payload["source_execution_id"] = executionCtx.ID

	if executionCtx.Simulation {
		logger.InfoContext(ctx, "Simulation: skipping event publish",
			"category", a.category, "name", a.name)

		return &models.ActionResult{
			Status: models.ActionStatusSkipped,
			Output: map[string]any{"category": a.category, "name": a.name, "payload": payload},
		}, nil
	}

	event := models.NewAnalyticsEvent("workflow-engine", a.category, a.name, payload)

	err := a.bus.Publish(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	return &models.ActionResult{
		Status: models.ActionStatusSuccess,
		Output: map[string]any{"event_id": event.EventID, "category": a.category, "name": a.name},
	}, nil
}
