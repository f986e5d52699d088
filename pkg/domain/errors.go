package domain

import (
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID cannot be found in a result store.
var ErrRunNotFound = errors.New("run not found")

// ErrAssessmentNotFound is returned when a loader has no assessment matching
// the requested identifier.
var ErrAssessmentNotFound = errors.New("assessment not found")

// ErrNoPreviousNode is returned when backward navigation is requested at the
// first node of the run. Recoverable: hosts should disable the back
// affordance via AllowBackNavigation instead of relying on this.
var ErrNoPreviousNode = errors.New("no previous node")

// ErrAnswerRequired is returned when forward navigation is requested on a
// non-optional question with no answer recorded.
var ErrAnswerRequired = errors.New("answer required")

// ErrRunFinished is returned when navigation is requested on a run that has
// already reached a terminal transition.
var ErrRunFinished = errors.New("run already finished")

// ConfigurationError indicates a malformed assessment definition discovered
// at runtime: an unresolvable node reference, a leaf with no display handler,
// or a transition with nowhere to go. It aborts the run rather than leaving
// the participant stalled.
type ConfigurationError struct {
	NodeID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.NodeID == "" {
		return "assessment configuration: " + e.Reason
	}
	return fmt.Sprintf("assessment configuration: node %q: %s", e.NodeID, e.Reason)
}

// NewConfigurationError builds a fatal configuration error for a node.
func NewConfigurationError(nodeID, reason string) *ConfigurationError {
	return &ConfigurationError{NodeID: nodeID, Reason: reason}
}

// IsConfigurationError reports whether err is (or wraps) a configuration
// error.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
