// Package schedule provides the cron-based trigger. Tick events are emitted
// by the dispatcher's schedule source and matched here by expression.
package schedule

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/protocol"
)

// TriggerType is the catalog identifier of the schedule trigger.
const TriggerType = "trigger:schedule"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return TriggerType
}

func (*Factory) Label() string {
	return "Schedule (cron)"
}

func (*Factory) Description() string {
	return "Starts the workflow on a schedule described by a cron expression."
}

func (*Factory) EventCategory() string {
	return models.CategorySchedule
}

func (*Factory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Schedule Trigger Configuration",
		Properties: map[string]*models.Property{
			"cron": {
				Type:        "string",
				Description: "Standard cron expression, e.g. '0 9 * * *' for every day at 09:00.",
			},
		},
		Required: []string{"cron"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Trigger, error) {
	expr, _ := config["cron"].(string)
	if expr == "" {
		return nil, errors.New("schedule trigger cron expression is required")
	}

	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	return &Trigger{expr: expr}, nil
}

// Trigger matches schedule tick events carrying its cron expression.
type Trigger struct {
	expr string
}

func (t *Trigger) Matches(event *models.AnalyticsEvent) bool {
	if event.Category != models.CategorySchedule {
		return false
	}

	schedule, _ := event.Payload["schedule"].(string)

	return schedule == t.expr
}

func (t *Trigger) ResolveContext(payload map[string]any) (map[string]any, error) {
	data := make(map[string]any, len(payload))
	for k, v := range payload {
		data[k] = v
	}

	return data, nil
}
