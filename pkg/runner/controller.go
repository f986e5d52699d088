package runner

import (
	"context"

	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
)

// controller is the terminal host's RootNodeController. The engine is
// synchronous, so the callbacks only record what to show next; the Run loop
// does the actual IO between transitions.
type controller struct {
	current  ports.NodeState
	pending  *domain.TransitionRequest
	finished bool
	reason   domain.FinishedReason
	cause    error
}

func (c *controller) CanHandle(node *domain.Node) bool {
	return !node.IsContainer()
}

func (c *controller) CustomNodeStateFor(node *domain.Node, parent ports.BranchNodeState) ports.NodeState {
	return nil
}

func (c *controller) HandleGoForward(ctx context.Context, state ports.NodeState, req *domain.TransitionRequest) error {
	c.current = state
	c.pending = req
	return nil
}

func (c *controller) HandleGoBack(ctx context.Context, state ports.NodeState, req *domain.TransitionRequest) error {
	c.current = state
	c.pending = req
	return nil
}

func (c *controller) HandleFinished(ctx context.Context, reason domain.FinishedReason, state ports.NodeState, cause error) {
	c.finished = true
	c.reason = reason
	c.cause = cause
}
