// Package web provides the HTTP surface consumed by the workflow editor.
package web

import "github.com/conductorhq/conductor/pkg/models"

// WorkflowDefinition is the metadata part of a save request.
type WorkflowDefinition struct {
	Name        string                `json:"name"        validate:"required,min=3"`
	Description string                `json:"description"`
	Status      models.WorkflowStatus `json:"status,omitempty"`
	Metadata    map[string]any        `json:"metadata,omitempty"`

	// Version must echo the version the client read when updating; it is
	// ignored on create.
	Version int64 `json:"version,omitempty"`
}

// SaveWorkflowRequest creates or replaces a workflow. Updates carry
// whole-graph replacement semantics: the node and edge sets are replaced,
// not patched.
type SaveWorkflowRequest struct {
	Definition WorkflowDefinition     `json:"definition" validate:"required"`
	Nodes      []*models.WorkflowNode `json:"nodes"      validate:"dive"`
	Edges      []*models.WorkflowEdge `json:"edges"      validate:"dive"`
}

// ValidateWorkflowRequest lints a graph without saving it.
type ValidateWorkflowRequest struct {
	Nodes []*models.WorkflowNode `json:"nodes" validate:"dive"`
	Edges []*models.WorkflowEdge `json:"edges" validate:"dive"`
}

// SimulateWorkflowRequest runs one workflow against an operator-supplied
// trigger firing.
type SimulateWorkflowRequest struct {
	TriggerType string         `json:"trigger_type" validate:"required"`
	Payload     map[string]any `json:"payload"`
}

// SimulateWorkflowResponse is what the operator inspects after a run.
type SimulateWorkflowResponse struct {
	Status      models.ExecutionStatus        `json:"status"`
	DurationMs  int64                         `json:"duration_ms"`
	Context     *models.ExecutionContext      `json:"context"`
	NodeResults map[string]*models.NodeResult `json:"node_results"`
}

// CatalogResponse lists the palette of available trigger and action types.
type CatalogResponse struct {
	Triggers []*models.RegisteredComponent `json:"triggers"`
	Actions  []*models.RegisteredComponent `json:"actions"`
}

func (r *SaveWorkflowRequest) toWorkflow(id string) *models.Workflow {
	return &models.Workflow{
		ID:          id,
		Name:        r.Definition.Name,
		Description: r.Definition.Description,
		Status:      r.Definition.Status,
		Metadata:    r.Definition.Metadata,
		Version:     r.Definition.Version,
		Nodes:       r.Nodes,
		Edges:       r.Edges,
	}
}
