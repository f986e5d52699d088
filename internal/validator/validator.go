// Package validator performs structural validation of assessment trees at
// load time. Malformed definitions are rejected here so the navigation core
// can treat dangling references at runtime as recoverable lookup misses
// rather than structural failures.
package validator

import (
	"fmt"

	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// ValidationError is a single structural failure scoped to a node.
type ValidationError struct {
	NodeID string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("node %q: %s", e.NodeID, e.Reason)
}

// AggregateError collects every structural failure found in one pass, so a
// malformed document reports all problems at once.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidationErrors returns the individual failures if err is an
// AggregateError, nil otherwise.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}

// ValidateTree walks every container in the tree and checks:
//   - child identifiers are unique within their container
//   - navigation rule targets resolve to a sibling or the exit sentinel
//   - progress markers reference direct children
//   - marker order is non-decreasing relative to declared child order
//   - async action step references resolve to direct children
func ValidateTree(root *domain.Node) error {
	var errs []error
	walk(root, &errs)
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func walk(n *domain.Node, errs *[]error) {
	if !n.IsContainer() {
		return
	}

	seen := make(map[string]struct{}, len(n.Children))
	for _, c := range n.Children {
		if _, dup := seen[c.Identifier]; dup {
			*errs = append(*errs, &ValidationError{NodeID: n.Identifier,
				Reason: fmt.Sprintf("duplicate child identifier %q", c.Identifier)})
		}
		seen[c.Identifier] = struct{}{}
	}

	for _, c := range n.Children {
		if t := c.NextNodeIdentifier; t != "" && t != domain.ExitIdentifier {
			if n.Child(t) == nil {
				*errs = append(*errs, &ValidationError{NodeID: c.Identifier,
					Reason: fmt.Sprintf("navigation rule targets unknown sibling %q", t)})
			}
		}
	}

	lastPos := -1
	for _, m := range n.ProgressMarkers {
		pos := n.ChildIndex(m)
		if pos < 0 {
			*errs = append(*errs, &ValidationError{NodeID: n.Identifier,
				Reason: fmt.Sprintf("progress marker %q does not reference a child", m)})
			continue
		}
		if pos < lastPos {
			*errs = append(*errs, &ValidationError{NodeID: n.Identifier,
				Reason: fmt.Sprintf("progress marker %q is out of traversal order", m)})
		}
		lastPos = pos
	}

	for _, a := range n.AsyncActions {
		if a.Identifier == "" {
			*errs = append(*errs, &ValidationError{NodeID: n.Identifier,
				Reason: "async action missing identifier"})
		}
		if s := a.StartStepIdentifier; s != "" && n.Child(s) == nil {
			*errs = append(*errs, &ValidationError{NodeID: n.Identifier,
				Reason: fmt.Sprintf("async action %q starts on unknown step %q", a.Identifier, s)})
		}
		if s := a.StopStepIdentifier; s != "" && n.Child(s) == nil {
			*errs = append(*errs, &ValidationError{NodeID: n.Identifier,
				Reason: fmt.Sprintf("async action %q stops on unknown step %q", a.Identifier, s)})
		}
	}

	for _, c := range n.Children {
		walk(c, errs)
	}
}
