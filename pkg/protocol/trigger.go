package protocol

import "github.com/conductorhq/conductor/pkg/models"

// Trigger is a catalog entry describing a class of analytics events a
// workflow can start from.
type Trigger interface {
	// Matches reports whether the incoming event should fire this trigger.
	Matches(event *models.AnalyticsEvent) bool

	// ResolveContext builds the initial trigger data from the raw event
	// payload.
	ResolveContext(payload map[string]any) (map[string]any, error)
}

// TriggerFactory creates trigger instances and describes the trigger type
// for the catalog palette.
type TriggerFactory interface {
	ID() string
	Label() string
	Description() string
	Schema() *models.JSONSchema

	// EventCategory is the analytics event category this trigger reacts to.
	EventCategory() string

	Create(config map[string]any) (Trigger, error)
}
