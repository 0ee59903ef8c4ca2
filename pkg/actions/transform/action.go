// Package transform provides an action that derives a new value from the
// execution context via a template expression.
package transform

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
	return "transform"
}

func (*Factory) Label() string {
	return "Transform"
}

func (*Factory) Description() string {
	return "Renders a template expression against the execution context and exposes the result to downstream nodes."
}

func (*Factory) SupportsSimulation() bool {
	return true
}

func (*Factory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Transform Action Configuration",
		Properties: map[string]*models.Property{
			"expression": {
				Type:        "string",
				Description: "Template expression. JSON-shaped output is decoded into structured data.",
			},
		},
		Required: []string{"expression"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	expression, _ := config["expression"].(string)
	if expression == "" {
		return nil, fmt.Errorf("transform action requires an expression")
	}

	return &Action{expression: expression}, nil
}

type Action struct {
	expression string
}

func (a *Action) Run(_ context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (*models.ActionResult, error) {
	result, err := template.RenderWithContext(a.expression, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render transform expression: %w", err)
	}

	logger.Debug("Transform completed", "action_type", "transform")

	return &models.ActionResult{Status: models.ActionStatusSuccess, Output: result}, nil
}
