package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductorhq/conductor/pkg/models"
)

func TestTrigger_Matches(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		event  *models.AnalyticsEvent
		want   bool
	}{
		{
			name:   "no_filter_matches_any_order_event",
			config: map[string]any{},
			event:  models.NewAnalyticsEvent("pos", models.CategoryOrderLifecycle, "created", nil),
			want:   true,
		},
		{
			name:   "filter_matches_named_event",
			config: map[string]any{"events": []any{"completed", "cancelled"}},
			event:  models.NewAnalyticsEvent("pos", models.CategoryOrderLifecycle, "completed", nil),
			want:   true,
		},
		{
			name:   "filter_rejects_other_names",
			config: map[string]any{"events": []any{"completed"}},
			event:  models.NewAnalyticsEvent("pos", models.CategoryOrderLifecycle, "created", nil),
			want:   false,
		},
		{
			name:   "other_category_never_matches",
			config: map[string]any{},
			event:  models.NewAnalyticsEvent("pos", models.CategoryDeliveryStatus, "completed", nil),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, err := NewFactory().Create(tt.config)
			require.NoError(t, err)

			assert.Equal(t, tt.want, trigger.Matches(tt.event))
		})
	}
}

func TestTrigger_ResolveContext_CopiesPayload(t *testing.T) {
	trigger, err := NewFactory().Create(nil)
	require.NoError(t, err)

	payload := map[string]any{"order_id": "order-7", "total": 42.5}

	data, err := trigger.ResolveContext(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// The trigger data is a copy, not an alias of the event payload.
	data["order_id"] = "mutated"
	assert.Equal(t, "order-7", payload["order_id"])
}
