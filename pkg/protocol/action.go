// Package protocol defines the contracts between the workflow engine and the
// pluggable trigger/action catalog entries.
package protocol

import (
	"context"
	"log/slog"

	"github.com/conductorhq/conductor/pkg/models"
)

// Action is a unit of work a workflow can perform. Run reports its outcome
// through the result status; it returns an error only for unexpected
// failures, which the engine records as a failed node result.
type Action interface {
	Run(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (*models.ActionResult, error)
}

// ActionFactory creates action instances and describes the action type for
// the catalog palette.
type ActionFactory interface {
	ID() string
	Label() string
	Description() string
	Schema() *models.JSONSchema

	// SupportsSimulation reports whether the action mutes its side effects
	// when the execution context carries the simulation flag.
	SupportsSimulation() bool

	Create(config map[string]any) (Action, error)
}
