package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalyticsEvent(t *testing.T) {
	payload := map[string]any{"order_id": "order-7"}

	event := NewAnalyticsEvent("pos", CategoryOrderLifecycle, "completed", payload)

	_, err := uuid.Parse(event.EventID)
	require.NoError(t, err)

	assert.Equal(t, "pos", event.Source)
	assert.Equal(t, CategoryOrderLifecycle, event.Category)
	assert.Equal(t, "completed", event.Name)
	assert.Equal(t, payload, event.Payload)

	assert.Equal(t, time.UTC, event.OccurredAt.Location())
	assert.WithinDuration(t, time.Now().UTC(), event.OccurredAt, time.Second)
}

func TestNewAnalyticsEvent_UniqueIDs(t *testing.T) {
	a := NewAnalyticsEvent("pos", CategoryOrderLifecycle, "created", nil)
	b := NewAnalyticsEvent("pos", CategoryOrderLifecycle, "created", nil)

	assert.NotEqual(t, a.EventID, b.EventID)
}
