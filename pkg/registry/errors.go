package registry

import (
	"errors"
	"fmt"
)

// UnknownTriggerError indicates a graph references a trigger type absent
// from the catalog.
type UnknownTriggerError struct {
	Type string
}

func (e *UnknownTriggerError) Error() string {
	return fmt.Sprintf("trigger type %q not registered", e.Type)
}

// UnknownActionError indicates a graph references an action type absent
// from the catalog.
type UnknownActionError struct {
	Type string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("action type %q not registered", e.Type)
}

// IsUnknownType reports whether err is an unknown trigger or action type.
func IsUnknownType(err error) bool {
	var triggerErr *UnknownTriggerError
	var actionErr *UnknownActionError

	return errors.As(err, &triggerErr) || errors.As(err, &actionErr)
}
