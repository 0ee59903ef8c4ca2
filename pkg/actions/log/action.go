// Package log provides an action that writes a templated message to the
// process log.
package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/protocol"
	"github.com/conductorhq/conductor/pkg/template"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "log"
}

func (*Factory) Label() string {
	return "Log"
}

func (*Factory) Description() string {
	return "Logs a message at a configurable level. Supports templating for dynamic content."
}

func (*Factory) SupportsSimulation() bool {
	return true
}

func (*Factory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Log Action Configuration",
		Properties: map[string]*models.Property{
			"message": {
				Type:        "string",
				Description: "The message to log. Supports templating against the execution context.",
			},
			"level": {
				Type:        "string",
				Description: "Log level for the message.",
				Default:     "info",
				Enum:        []any{"debug", "info", "warn", "error"},
			},
		},
		Required: []string{"message"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	message, _ := config["message"].(string)
	level, _ := config["level"].(string)

	if level == "" {
		level = "info"
	}

	return &Action{message: message, level: level}, nil
}

type Action struct {
	message string
	level   string
}

func (a *Action) Run(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (*models.ActionResult, error) {
	rendered, err := template.RenderWithContext(a.message, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render log message: %w", err)
	}

	message := fmt.Sprintf("%v", rendered)
	logger = logger.With("action_type", "log")

	switch a.level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return &models.ActionResult{
		Status: models.ActionStatusSuccess,
		Output: map[string]any{"message": message, "level": a.level},
	}, nil
}
