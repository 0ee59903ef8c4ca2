// Package workflow implements graph validation, execution and the engine
// service tying the catalog, the event bus and persistence together.
package workflow

import (
	"fmt"
	"sort"

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/registry"
)

// Severity of a single validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationStatus is the aggregate outcome of a validation run.
type ValidationStatus string

const (
	ValidationStatusValid   ValidationStatus = "valid"
	ValidationStatusWarning ValidationStatus = "warning"
	ValidationStatusError   ValidationStatus = "error"
)

// Issue is one finding of the graph lint.
type Issue struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"node_id,omitempty"`
	Message  string   `json:"message"`
}

// ValidationResult aggregates the lint findings. Any error makes the overall
// status error (the workflow may not activate); warnings alone still allow
// activation.
type ValidationResult struct {
	Status ValidationStatus `json:"status"`
	Issues []Issue          `json:"issues"`
}

// HasErrors reports whether any issue blocks activation.
func (r *ValidationResult) HasErrors() bool {
	return r.Status == ValidationStatusError
}

// Validate lints a workflow graph. The result is deterministic and
// independent of the input slice order. This is a lint, not a connectivity
// proof: cycles among non-trigger nodes are not rejected here, the executor
// visits each node at most once per run.
func Validate(catalog *registry.Registry, nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) *ValidationResult {
	result := &ValidationResult{Status: ValidationStatusValid, Issues: []Issue{}}

	if len(nodes) == 0 {
		result.add(SeverityError, "", "at least one trigger node required")

		return result
	}

	sorted := make([]*models.WorkflowNode, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	nodeByID := make(map[string]*models.WorkflowNode, len(sorted))
	hasTrigger := false
	hasAction := false

	for _, node := range sorted {
		nodeByID[node.ID] = node

		switch node.Kind {
		case models.NodeKindTrigger:
			hasTrigger = true
		case models.NodeKindAction:
			hasAction = true
		case models.NodeKindCondition:
		}
	}

	if !hasTrigger {
		result.add(SeverityError, "", "at least one trigger node required")
	}

	if !hasAction {
		result.add(SeverityWarning, "", "workflow has no action nodes and no observable effect")
	}

	for _, node := range sorted {
		validateNodeType(catalog, node, result)
	}

	incoming := make(map[string]int, len(sorted))

	sortedEdges := make([]*models.WorkflowEdge, len(edges))
	copy(sortedEdges, edges)
	sort.Slice(sortedEdges, func(i, j int) bool {
		if sortedEdges[i].SourceNodeID != sortedEdges[j].SourceNodeID {
			return sortedEdges[i].SourceNodeID < sortedEdges[j].SourceNodeID
		}

		return sortedEdges[i].TargetNodeID < sortedEdges[j].TargetNodeID
	})

	for _, edge := range sortedEdges {
		dangling := false

		if _, ok := nodeByID[edge.SourceNodeID]; !ok {
			result.add(SeverityError, "", fmt.Sprintf("edge references unknown source node %q", edge.SourceNodeID))

			dangling = true
		}

		if _, ok := nodeByID[edge.TargetNodeID]; !ok {
			result.add(SeverityError, "", fmt.Sprintf("edge references unknown target node %q", edge.TargetNodeID))

			dangling = true
		}

		if dangling {
			continue
		}

		if nodeByID[edge.TargetNodeID].IsTrigger() {
			result.add(SeverityError, edge.TargetNodeID,
				fmt.Sprintf("trigger node %q must not have incoming edges", edge.TargetNodeID))
		}

		incoming[edge.TargetNodeID]++
	}

	// Unreachable non-trigger nodes are dead code, not invalid.
	for _, node := range sorted {
		if node.IsTrigger() {
			continue
		}

		if incoming[node.ID] == 0 {
			result.add(SeverityWarning, node.ID,
				fmt.Sprintf("node %q is not reachable from any trigger", node.ID))
		}
	}

	return result
}

func validateNodeType(catalog *registry.Registry, node *models.WorkflowNode, result *ValidationResult) {
	switch node.Kind {
	case models.NodeKindTrigger:
		if !catalog.HasTrigger(node.Type) {
			result.add(SeverityError, node.ID,
				fmt.Sprintf("node %q references unknown trigger type %q", node.ID, node.Type))

			return
		}
	case models.NodeKindAction:
		if !catalog.HasAction(node.Type) {
			result.add(SeverityError, node.ID,
				fmt.Sprintf("node %q references unknown action type %q", node.ID, node.Type))

			return
		}
	case models.NodeKindCondition:
		if expr, _ := node.Config["expression"].(string); expr == "" {
			result.add(SeverityError, node.ID,
				fmt.Sprintf("condition node %q requires an expression", node.ID))
		}

		return
	default:
		result.add(SeverityError, node.ID,
			fmt.Sprintf("node %q has unknown kind %q", node.ID, node.Kind))

		return
	}

	err := catalog.ValidateNodeConfig(node.Kind, node.Type, node.Config)
	if err != nil {
		result.add(SeverityError, node.ID, err.Error())
	}
}

func (r *ValidationResult) add(severity Severity, nodeID, message string) {
	r.Issues = append(r.Issues, Issue{Severity: severity, NodeID: nodeID, Message: message})

	if severity == SeverityError {
		r.Status = ValidationStatusError
	} else if r.Status == ValidationStatusValid {
		r.Status = ValidationStatusWarning
	}
}
