// Package models defines the core domain models for event-driven workflow automation.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Well-known event categories emitted by the platform.
const (
	CategoryOrderLifecycle    = "order.lifecycle"
	CategoryDeliveryStatus    = "delivery.status"
	CategoryCustomerLifecycle = "customer.lifecycle"
	CategorySchedule          = "time.schedule"
	CategoryWorkflowExecution = "workflow.execution"
)

// AnalyticsEvent is the immutable envelope for something that happened in the
// business domain. It is never mutated after publish.
type AnalyticsEvent struct {
	EventID    string         `json:"event_id"`
	Source     string         `json:"source"`
	Category   string         `json:"category"`
	Name       string         `json:"name"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewAnalyticsEvent constructs an event with a fresh ID and UTC timestamp.
func NewAnalyticsEvent(source, category, name string, payload map[string]any) *AnalyticsEvent {
	return &AnalyticsEvent{
		EventID:    uuid.New().String(),
		Source:     source,
		Category:   category,
		Name:       name,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}
