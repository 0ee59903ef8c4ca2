// Package persistence defines the storage contracts for workflow graphs and
// execution records. The engine treats storage as externally owned; this
// package only names the operations it needs.
package persistence

import (
	"context"

	"github.com/conductorhq/conductor/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow graphs. Update performs a whole-graph
// replacement guarded by the workflow's version counter.
type WorkflowRepository interface {
	Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error)
	Update(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	List(ctx context.Context, status *models.WorkflowStatus) ([]*models.Workflow, error)
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores execution records. Execution never mutates the
// graph, it only writes records here.
type ExecutionRepository interface {
	Save(ctx context.Context, result *models.ExecutionResult) error
	GetByID(ctx context.Context, executionID string) (*models.ExecutionResult, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionResult, error)
}
