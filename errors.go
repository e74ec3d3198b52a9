package pageforge

import (
	"fmt"
	"strings"
)

// ParseError reports persisted content that is not a valid document.
type ParseError struct {
	Offset  int64  // Byte offset of a JSON syntax error, 0 when unknown
	Message string // What went wrong
	Hint    string // Helpful suggestion
	Err     error  // Underlying decoder error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse content: ")
	b.WriteString(e.Message)
	if e.Offset > 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, "; tip: %s", e.Hint)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// WithHint adds a helpful hint to the error.
func (e *ParseError) WithHint(hint string) *ParseError {
	e.Hint = hint
	return e
}

// StructuralError reports a mutation that would break the tree shape:
// inserting into a non-container or moving an element into its own subtree.
type StructuralError struct {
	Op     string
	ID     string
	Target string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s %q into %q: %s", e.Op, e.ID, e.Target, e.Reason)
}

// NotFoundError reports an operation on an id that is not in the forest.
type NotFoundError struct {
	Op string
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: element %q not found", e.Op, e.ID)
}

// RenderError reports an element the renderer could not represent. The
// renderer emits a placeholder in its place.
type RenderError struct {
	ID   string
	Type ElementType
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: unsupported element type %q (id %q)", e.Type, e.ID)
}

// PersistenceError reports a save that the storage collaborator rejected.
// The editor keeps its tree unchanged so the save can be retried.
type PersistenceError struct {
	PageID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save page %q: %v", e.PageID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
