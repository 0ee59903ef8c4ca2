package models

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotBoolean reports a rendered value the interpreter cannot coerce to a
// boolean.
var ErrNotBoolean = errors.New("value is not coercible to a boolean")

// ConditionalExpression gates traversal of an edge (or a condition node).
// The expression is rendered against the execution context before being
// interpreted as a boolean.
type ConditionalExpression struct {
	Language   string `json:"language,omitempty"`
	Expression string `json:"expression"`
}

// Conditional interprets a rendered expression value as a boolean.
type Conditional interface {
	Evaluate(exp any) (bool, error)
}

// GetConditional returns the interpreter for the expression's language.
// An empty language defaults to "simple".
func GetConditional(c ConditionalExpression) Conditional {
	if c.Language == "simple" || c.Language == "" {
		return &SimpleConditionalInterpreter{}
	}

	return nil
}

// SimpleConditionalInterpreter converts scalar values to booleans.
type SimpleConditionalInterpreter struct{}

// Evaluate coerces the rendered value. Nil and the empty string hold: an
// absent condition never prunes a branch.
func (s SimpleConditionalInterpreter) Evaluate(exp any) (bool, error) {
	switch v := exp.(type) {
	case nil:
		return true, nil
	case bool:
		return v, nil
	case string:
		if v == "" {
			return true, nil
		}

		result, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrNotBoolean, v)
		}

		return result, nil
	}

	if n, ok := asNumber(exp); ok {
		return n != 0, nil
	}

	return false, fmt.Errorf("%w: unsupported type %T", ErrNotBoolean, exp)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}

	return 0, false
}
