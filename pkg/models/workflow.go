package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, never dispatched
	WorkflowStatusActive   WorkflowStatus = "active"   // Eligible for live dispatch
	WorkflowStatusPaused   WorkflowStatus = "paused"   // Temporarily excluded from dispatch
	WorkflowStatusArchived WorkflowStatus = "archived" // Kept for history, never dispatched
)

// IsValid reports whether s is one of the known workflow statuses.
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusPaused, WorkflowStatusArchived:
		return true
	}

	return false
}

// Workflow represents one persisted automation: metadata plus its node and
// edge sets. Updates replace the node and edge collections wholesale; the
// Version counter guards against concurrent whole-graph replacements.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Status      WorkflowStatus  `json:"status"      validate:"required"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	Version     int64           `json:"version"`
	Nodes       []*WorkflowNode `json:"nodes"`
	Edges       []*WorkflowEdge `json:"edges"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TriggerNodes returns the trigger nodes of the graph.
func (w *Workflow) TriggerNodes() []*WorkflowNode {
	var triggers []*WorkflowNode

	for _, node := range w.Nodes {
		if node.Kind == NodeKindTrigger {
			triggers = append(triggers, node)
		}
	}

	return triggers
}

// FindNode returns the node with the given id, or nil.
func (w *Workflow) FindNode(nodeID string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.ID == nodeID {
			return node
		}
	}

	return nil
}
