package ports

import (
	"context"

	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// NodeState wraps a node with its runtime navigation state and owns the
// corresponding result. Exactly one NodeState exists per currently
// instantiated node; moving away from a node releases its state.
//
// GoForward and GoBackward are synchronous: they run the full transition
// (history bookkeeping, navigator query, controller hand-off) before
// returning. A nil request is valid.
type NodeState interface {
	Node() *domain.Node
	Result() *domain.Result

	// Parent returns the owning branch, or nil for the root.
	Parent() BranchNodeState

	GoForward(ctx context.Context, req *domain.TransitionRequest) error
	GoBackward(ctx context.Context, req *domain.TransitionRequest) error
}

// QuestionState is a NodeState that collects an answer before moving on.
// Hosts type-assert to it when displaying question nodes.
type QuestionState interface {
	NodeState

	// SetAnswer records the participant's answer on the answer result.
	SetAnswer(answer any)
	Answer() any
}

// BranchNodeState is the navigation state of a container: it owns a branch
// result, asks its navigator for transitions, and tracks the single active
// child.
type BranchNodeState interface {
	NodeState

	CurrentChild() NodeState
	Navigator() Navigator

	// Progress reports marker progress at the current child, or nil.
	Progress() *domain.Progress
	HasNodeAfter() bool
	AllowBackNavigation() bool
}

// RootNodeState is the top-level branch of a run.
type RootNodeState interface {
	BranchNodeState

	// RunID returns the unique identifier assigned to this run.
	RunID() string

	// SetAsyncResult attaches a recorder result produced by the host
	// (sensor data, audio file reference) to the run's result tree,
	// replacing any previous result with the same identifier.
	SetAsyncResult(result *domain.Result)

	// Close ends the run from the host side (early exit, discard, save
	// progress). The controller's HandleFinished fires with the given
	// reason.
	Close(ctx context.Context, reason domain.FinishedReason) error
}

// NodeStateFactory lets embedders substitute custom node states (for
// example, an active task with its own timing logic). Returning nil defers
// to the default resolution.
type NodeStateFactory func(node *domain.Node, parent BranchNodeState) NodeState
