package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrDuplicateEdge = errors.New("duplicate edge")
	ErrUnknownNode   = errors.New("unknown node")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrInvalidWeight = errors.New("invalid edge weight")
	ErrEmptyNodeID   = errors.New("empty node id")
)

// StructuralError reports a rejected mutation of the graph. It is fatal to
// that mutation only; the graph is left unchanged.
type StructuralError struct {
	Op     string // Operation that failed (e.g., "AddEdge", "RemoveNode")
	Entity string // "node" or "edge"
	Source NodeID
	Target NodeID // empty for node operations
	Cause  error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Entity == "edge" {
		return fmt.Sprintf("%s edge %q -> %q: %v", e.Op, e.Source, e.Target, e.Cause)
	}
	return fmt.Sprintf("%s node %q: %v", e.Op, e.Source, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StructuralError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *StructuralError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building StructuralErrors.
type ErrorBuilder struct {
	err StructuralError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: StructuralError{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id NodeID) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.Source = id
	return b
}

// Edge sets the entity to "edge" with the given endpoints.
func (b *ErrorBuilder) Edge(source, target NodeID) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.Source = source
	b.err.Target = target
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// DuplicateEdgeError creates a duplicate edge error.
func DuplicateEdgeError(source, target NodeID) error {
	return NewError("AddEdge").Edge(source, target).Cause(ErrDuplicateEdge).Err()
}

// UnknownNodeError creates an unknown node error for the given operation.
func UnknownNodeError(op string, id NodeID) error {
	return NewError(op).Node(id).Cause(ErrUnknownNode).Err()
}

// IsStructural returns true if err is a rejected graph mutation.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
