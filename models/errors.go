package models

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrNodeExists       = errors.New("node already exists")
	ErrEdgeNotFound     = errors.New("edge not found")
	ErrInvalidAttribute = errors.New("invalid attribute")

	// ErrPrecondition matches every *PreconditionError
	ErrPrecondition = errors.New("precondition failed")
	// ErrInvariant matches every *InvariantViolation
	ErrInvariant = errors.New("invariant violated")
)

// PreconditionError reports an operation invoked in a state that cannot
// support it, such as a traversal with no starting node.
type PreconditionError struct {
	Op     string // Operation that was refused
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PreconditionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// InvariantViolation reports graph state that the editor's own rules should
// have made impossible, such as an edge touching a node that does not exist.
type InvariantViolation struct {
	Op      string
	Edge    EdgeKey // zero when the violation is not about an edge
	Missing string  // id of the missing node, if any
	Cause   error
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	msg := e.Op + ": invariant violated"
	if e.Edge != (EdgeKey{}) {
		msg += " on edge " + e.Edge.String()
	}
	if e.Missing != "" {
		msg += fmt.Sprintf(": node %q is missing", e.Missing)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chain support.
func (e *InvariantViolation) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrInvariant.
func (e *InvariantViolation) Is(target error) bool {
	return target == ErrInvariant
}
