package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductorhq/conductor/pkg/models"
)

func TestFactory_Create_ValidatesCron(t *testing.T) {
	_, err := NewFactory().Create(map[string]any{"cron": "0 9 * * *"})
	assert.NoError(t, err)

	_, err = NewFactory().Create(map[string]any{"cron": "not a cron"})
	assert.Error(t, err)

	_, err = NewFactory().Create(map[string]any{})
	assert.Error(t, err)
}

func TestTrigger_MatchesOwnExpressionOnly(t *testing.T) {
	trigger, err := NewFactory().Create(map[string]any{"cron": "0 9 * * *"})
	require.NoError(t, err)

	tick := models.NewAnalyticsEvent("scheduler", models.CategorySchedule, "tick", map[string]any{
		"schedule": "0 9 * * *",
	})
	assert.True(t, trigger.Matches(tick))

	otherTick := models.NewAnalyticsEvent("scheduler", models.CategorySchedule, "tick", map[string]any{
		"schedule": "*/5 * * * *",
	})
	assert.False(t, trigger.Matches(otherTick))

	orderEvent := models.NewAnalyticsEvent("pos", models.CategoryOrderLifecycle, "created", map[string]any{
		"schedule": "0 9 * * *",
	})
	assert.False(t, trigger.Matches(orderEvent))
}
