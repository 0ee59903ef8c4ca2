package models

// NodeKind represents the role of a node in the workflow graph.
type NodeKind string

const (
	NodeKindTrigger   NodeKind = "trigger"   // Graph root, reacts to analytics events
	NodeKindAction    NodeKind = "action"    // Performs a unit of work
	NodeKindCondition NodeKind = "condition" // Gates its outgoing edges on an expression
)

// WorkflowNode is a node instance in a workflow graph. Type resolves against
// the trigger/action catalog; Config is interpreted by the catalog entry.
// Position is a layout hint only.
type WorkflowNode struct {
	ID        string         `json:"id"        validate:"required"`
	Label     string         `json:"label"     validate:"required,min=1"`
	Kind      NodeKind       `json:"kind"      validate:"required,oneof=trigger action condition"`
	Type      string         `json:"type"      validate:"required"`
	Config    map[string]any `json:"config"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
}

// IsTrigger reports whether the node is a graph root.
func (n *WorkflowNode) IsTrigger() bool {
	return n.Kind == NodeKindTrigger
}

// WorkflowEdge is a directed edge between two nodes of the same workflow.
// The optional Condition is evaluated against the upstream execution context
// to decide whether the edge is traversed.
type WorkflowEdge struct {
	SourceNodeID string                 `json:"source_node_id" validate:"required"`
	TargetNodeID string                 `json:"target_node_id" validate:"required"`
	Label        string                 `json:"label,omitempty"`
	Condition    *ConditionalExpression `json:"condition,omitempty"`
}
