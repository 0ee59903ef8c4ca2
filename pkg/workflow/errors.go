package workflow

import "errors"

// Business-rule errors surfaced by the engine. HTTP mapping happens in the
// web layer.
var (
	// ErrWorkflowInvalid indicates the graph lint reported errors and the
	// requested operation (activation, save as active) is refused.
	ErrWorkflowInvalid = errors.New("workflow graph has validation errors")

	// ErrInvalidStatus indicates an unknown workflow status was requested.
	ErrInvalidStatus = errors.New("invalid workflow status")

	// ErrTriggerNotInWorkflow indicates a simulation named a trigger type
	// the workflow graph does not contain.
	ErrTriggerNotInWorkflow = errors.New("workflow has no trigger node of the requested type")
)

// IsValidationError reports whether err is a client-side validation problem.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrWorkflowInvalid) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrTriggerNotInWorkflow)
}
