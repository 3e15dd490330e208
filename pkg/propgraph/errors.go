package propgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for the graph contract.
var (
	ErrNodeNotFound         = errors.New("node not found")
	ErrLinkNotFound         = errors.New("link not found")
	ErrDuplicateNode        = errors.New("duplicate node")
	ErrProtectedProperty    = errors.New("protected property")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrMalformedJSON        = errors.New("malformed JSON property")
	ErrImportFailure        = errors.New("graph import failed")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op      string // operation that failed (e.g. "AddNode", "MergeNodes")
	GraphID string
	NodeID  string
	Field   string // property key, for property operations
	Cause   error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	switch {
	case e.NodeID != "" && e.Field != "":
		return fmt.Sprintf("%s node %s in graph %s (property %s): %v", e.Op, e.NodeID, e.GraphID, e.Field, e.Cause)
	case e.NodeID != "":
		return fmt.Sprintf("%s node %s in graph %s: %v", e.Op, e.NodeID, e.GraphID, e.Cause)
	case e.GraphID != "":
		return fmt.Sprintf("%s graph %s: %v", e.Op, e.GraphID, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// OpError wraps cause with operation and graph context.
func OpError(op, graphID string, cause error) error {
	return &GraphError{Op: op, GraphID: graphID, Cause: cause}
}

// NodeError wraps cause with operation, graph and node context.
func NodeError(op, graphID, nodeID string, cause error) error {
	return &GraphError{Op: op, GraphID: graphID, NodeID: nodeID, Cause: cause}
}

// PropError wraps cause with full property context.
func PropError(op, graphID, nodeID, field string, cause error) error {
	return &GraphError{Op: op, GraphID: graphID, NodeID: nodeID, Field: field, Cause: cause}
}

// IsNotFound reports whether err is a node or link lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrLinkNotFound)
}
