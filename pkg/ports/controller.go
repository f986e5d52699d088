package ports

import (
	"context"

	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// RootNodeController is the host-side collaborator that actually displays
// nodes and observes run completion. The engine calls into it; it never
// calls back into the engine from within these hooks.
//
// The engine consults CanHandle for every resolved node: a true return
// routes the node state to HandleGoForward/HandleGoBack for display, a
// false return on a container recurses into a child branch, and a false
// return on a leaf is a fatal configuration error.
type RootNodeController interface {
	// CanHandle reports whether the host can natively display this node.
	CanHandle(node *domain.Node) bool

	// CustomNodeStateFor may return a substitute node state for the given
	// node. Return nil to use the engine's default resolution.
	CustomNodeStateFor(node *domain.Node, parent BranchNodeState) NodeState

	// HandleGoForward displays the node state after a forward transition.
	// The request carries the unioned permissions and async-action
	// scheduling for the transition.
	HandleGoForward(ctx context.Context, state NodeState, req *domain.TransitionRequest) error

	// HandleGoBack displays the node state after a backward transition.
	HandleGoBack(ctx context.Context, state NodeState, req *domain.TransitionRequest) error

	// HandleFinished signals the terminal transition of the run. Fires at
	// most once per run. cause is non-nil only for ReasonError.
	HandleFinished(ctx context.Context, reason domain.FinishedReason, state NodeState, cause error)
}
