package http

import (
	"context"

	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
)

// hostController is the HTTP host's RootNodeController. Transitions are
// synchronous, so the callbacks only record the node state to report in the
// response; the handlers read it back after GoForward/GoBackward return.
type hostController struct {
	current  ports.NodeState
	pending  *domain.TransitionRequest
	finished bool
	reason   domain.FinishedReason
	cause    error
}

func (c *hostController) CanHandle(node *domain.Node) bool {
	return !node.IsContainer()
}

func (c *hostController) CustomNodeStateFor(node *domain.Node, parent ports.BranchNodeState) ports.NodeState {
	return nil
}

func (c *hostController) HandleGoForward(ctx context.Context, state ports.NodeState, req *domain.TransitionRequest) error {
	c.current = state
	c.pending = req
	return nil
}

func (c *hostController) HandleGoBack(ctx context.Context, state ports.NodeState, req *domain.TransitionRequest) error {
	c.current = state
	c.pending = req
	return nil
}

func (c *hostController) HandleFinished(ctx context.Context, reason domain.FinishedReason, state ports.NodeState, cause error) {
	c.finished = true
	c.reason = reason
	c.cause = cause
}
