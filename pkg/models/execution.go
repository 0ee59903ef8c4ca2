package models

import "time"

// ExecutionStatus describes the state of one workflow execution attempt.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSucceeded ExecutionStatus = "succeeded"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// ActionStatus is the outcome reported by a single action run.
type ActionStatus string

const (
	ActionStatusSuccess ActionStatus = "success"
	ActionStatusSkipped ActionStatus = "skipped"
	ActionStatusFailed  ActionStatus = "failed"
)

// ActionResult is what an action's Run returns.
type ActionResult struct {
	Status ActionStatus `json:"status"`
	Output any          `json:"output,omitempty"`
}

// ExecutionContext is the accumulating record passed along a graph walk,
// seeded by the trigger and extended by each visited node's output.
type ExecutionContext struct {
	ID          string         `json:"id"`
	WorkflowID  string         `json:"workflow_id"`
	TriggerType string         `json:"trigger_type"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
	NodeOutputs map[string]any `json:"node_outputs,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Simulation  bool           `json:"simulation"`
}

// NodeResult records the outcome of one visited node.
type NodeResult struct {
	NodeID     string       `json:"node_id"`
	Status     ActionStatus `json:"status"`
	Output     any          `json:"output,omitempty"`
	Error      string       `json:"error,omitempty"`
	DurationMs int64        `json:"duration_ms"`
}

// ExecutionResult is the overall outcome of one workflow execution attempt.
// Status is failed if any visited action failed, else succeeded.
type ExecutionResult struct {
	ExecutionID string                 `json:"execution_id"`
	WorkflowID  string                 `json:"workflow_id"`
	Status      ExecutionStatus        `json:"status"`
	DurationMs  int64                  `json:"duration_ms"`
	Context     *ExecutionContext      `json:"context"`
	NodeResults map[string]*NodeResult `json:"node_results"`
	StartedAt   time.Time              `json:"started_at"`
	FinishedAt  time.Time              `json:"finished_at"`
}
