package publishevent

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductorhq/conductor/pkg/eventbus"
	"github.com/conductorhq/conductor/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func executionContext(simulation bool) *models.ExecutionContext {
	return &models.ExecutionContext{
		ID:          "exec-1",
		WorkflowID:  "wf-1",
		TriggerData: map[string]any{"order_id": "order-7"},
		NodeOutputs: map[string]any{},
		Metadata:    map[string]any{},
		Simulation:  simulation,
	}
}

func TestFactory_Create_RequiresCategoryAndName(t *testing.T) {
	factory := NewFactory(eventbus.NewMemoryEventBus(testLogger()))

	_, err := factory.Create(map[string]any{"category": "order.lifecycle"})
	assert.Error(t, err)

	_, err = factory.Create(map[string]any{"name": "escalated"})
	assert.Error(t, err)
}

func TestAction_Run_PublishesTemplatedEvent(t *testing.T) {
	bus := eventbus.NewMemoryEventBus(testLogger())

	var published []*models.AnalyticsEvent

	bus.On(func(_ context.Context, event *models.AnalyticsEvent) error {
		published = append(published, event)

		return nil
	})

	action, err := NewFactory(bus).Create(map[string]any{
		"category": "order.lifecycle",
		"name":     "escalated",
		"payload": map[string]any{
			"order_id": "{{ .trigger_data.order_id }}",
			"reason":   "manual review",
		},
	})
	require.NoError(t, err)

	result, err := action.Run(context.Background(), executionContext(false), testLogger())
	require.NoError(t, err)

	assert.Equal(t, models.ActionStatusSuccess, result.Status)
	require.Len(t, published, 1)

	event := published[0]
	assert.Equal(t, "order.lifecycle", event.Category)
	assert.Equal(t, "escalated", event.Name)
	assert.Equal(t, "order-7", event.Payload["order_id"])
	assert.Equal(t, "manual review", event.Payload["reason"])

	// Provenance fields let chained workflows trace the source run.
	assert.Equal(t, "wf-1", event.Payload["source_workflow_id"])
	assert.Equal(t, "exec-1", event.Payload["source_execution_id"])
}

func TestAction_Run_SimulationDoesNotPublish(t *testing.T) {
	bus := eventbus.NewMemoryEventBus(testLogger())

	published := 0

	bus.On(func(_ context.Context, _ *models.AnalyticsEvent) error {
		published++

		return nil
	})

	action, err := NewFactory(bus).Create(map[string]any{
		"category": "order.lifecycle",
		"name":     "escalated",
	})
	require.NoError(t, err)

	result, err := action.Run(context.Background(), executionContext(true), testLogger())
	require.NoError(t, err)

	assert.Equal(t, models.ActionStatusSkipped, result.Status)
	assert.Zero(t, published)
}
