package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductorhq/conductor/pkg/models"
)

func TestAction_Run_RendersTemplate(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))

	action, err := NewFactory().Create(map[string]any{
		"message": "order {{ .trigger_data.order_id }} completed",
	})
	require.NoError(t, err)

	result, err := action.Run(context.Background(), &models.ExecutionContext{
		TriggerData: map[string]any{"order_id": "order-7"},
		NodeOutputs: map[string]any{},
		Metadata:    map[string]any{},
	}, logger)
	require.NoError(t, err)

	assert.Equal(t, models.ActionStatusSuccess, result.Status)
	assert.Contains(t, buf.String(), "order order-7 completed")

	output, ok := result.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "order order-7 completed", output["message"])
	assert.Equal(t, "info", output["level"])
}

func TestAction_Run_LevelSelection(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		level string
		want  string
	}{
		{level: "debug", want: "level=DEBUG"},
		{level: "info", want: "level=INFO"},
		{level: "warn", want: "level=WARN"},
		{level: "error", want: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()

			action, err := NewFactory().Create(map[string]any{
				"message": "hello",
				"level":   tt.level,
			})
			require.NoError(t, err)

			_, err = action.Run(context.Background(), &models.ExecutionContext{}, logger)
			require.NoError(t, err)

			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestAction_Run_BadTemplate(t *testing.T) {
	action, err := NewFactory().Create(map[string]any{
		"message": "{{ .trigger_data.order_id",
	})
	require.NoError(t, err)

	_, err = action.Run(context.Background(), &models.ExecutionContext{}, slog.Default())
	assert.Error(t, err)
}
