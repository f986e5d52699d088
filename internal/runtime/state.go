package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/BiAffectBridge/cairn/internal/logging"
	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
)

// leafState is the generic node state for displayable leaves. Forward and
// backward requests delegate to the owning branch, which advances its own
// traversal past this node.
type leafState struct {
	node   *domain.Node
	result *domain.Result
	parent ports.BranchNodeState
}

func (s *leafState) Node() *domain.Node            { return s.node }
func (s *leafState) Result() *domain.Result        { return s.result }
func (s *leafState) Parent() ports.BranchNodeState { return s.parent }

func (s *leafState) GoForward(ctx context.Context, req *domain.TransitionRequest) error {
	s.result.End()
	return s.parent.GoForward(ctx, req)
}

func (s *leafState) GoBackward(ctx context.Context, req *domain.TransitionRequest) error {
	s.result.End()
	return s.parent.GoBackward(ctx, req)
}

// questionState collects an answer before allowing forward navigation.
type questionState struct {
	leafState
}

var _ ports.QuestionState = (*questionState)(nil)

func (s *questionState) SetAnswer(answer any) { s.result.Answer = answer }
func (s *questionState) Answer() any          { return s.result.Answer }

func (s *questionState) GoForward(ctx context.Context, req *domain.TransitionRequest) error {
	if !s.node.Optional && s.result.Answer == nil {
		return domain.ErrAnswerRequired
	}
	return s.leafState.GoForward(ctx, req)
}

// branchState is the navigation state of a container node. It owns the
// branch result, asks its navigator for transitions, and keeps exactly one
// active child at a time. Re-entering a previously visited node reuses the
// result recorded in the traversal history, so backward navigation is
// re-derived purely from history rather than a separate undo stack.
type branchState struct {
	node      *domain.Node
	result    *domain.Result
	parent    ports.BranchNodeState
	navigator ports.Navigator
	current   ports.NodeState
	root      *AssessmentState
}

var _ ports.BranchNodeState = (*branchState)(nil)

func (s *branchState) Node() *domain.Node            { return s.node }
func (s *branchState) Result() *domain.Result        { return s.result }
func (s *branchState) Parent() ports.BranchNodeState { return s.parent }
func (s *branchState) CurrentChild() ports.NodeState { return s.current }
func (s *branchState) Navigator() ports.Navigator    { return s.navigator }

func (s *branchState) currentNode() *domain.Node {
	if s.current == nil {
		return nil
	}
	return s.current.Node()
}

func (s *branchState) Progress() *domain.Progress {
	return s.navigator.Progress(s.currentNode(), s.result)
}

func (s *branchState) HasNodeAfter() bool {
	return s.navigator.HasNodeAfter(s.currentNode(), s.result)
}

func (s *branchState) AllowBackNavigation() bool {
	if s.navigator.AllowBackNavigation(s.currentNode(), s.result) {
		return true
	}
	// The level boundary is not a wall: the parent may still have history.
	if s.parent != nil {
		return s.parent.AllowBackNavigation()
	}
	return false
}

func (s *branchState) GoForward(ctx context.Context, req *domain.TransitionRequest) error {
	return s.advance(ctx, req, domain.DirectionForward)
}

func (s *branchState) GoBackward(ctx context.Context, req *domain.TransitionRequest) error {
	return s.advance(ctx, req, domain.DirectionBackward)
}

func (s *branchState) advance(ctx context.Context, req *domain.TransitionRequest, dir domain.Direction) error {
	if s.root.finished {
		return domain.ErrRunFinished
	}

	currentNode := s.currentNode()
	if s.current != nil {
		s.result.AppendPathHistory(s.current.Result())
		s.root.emitNodeLeave(ctx, currentNode, dir)
	}

	var point domain.NavigationPoint
	if dir == domain.DirectionBackward {
		point = s.navigator.NodeBefore(currentNode, s.result)
	} else {
		point = s.navigator.NodeAfter(currentNode, s.result)
	}
	if req != nil {
		point.AsyncActions.Union(req.AsyncActions)
		point.Permissions = domain.UnionStrings(point.Permissions, req.Permissions)
	}

	if point.Node == nil {
		return s.exhausted(ctx, point)
	}
	return s.moveTo(ctx, point)
}

// moveTo switches the active child and hands it to the controller if the
// controller can display it natively, otherwise recurses into a child
// branch. The switch is complete before any external hook runs.
func (s *branchState) moveTo(ctx context.Context, point domain.NavigationPoint) error {
	child, err := s.root.stateFor(point.Node, s)
	if err != nil {
		s.root.finish(ctx, domain.ReasonError, s, err)
		return err
	}

	s.current = child
	s.result.AppendPathMarker(domain.PathMarker{Identifier: point.Node.Identifier, Direction: point.Direction})
	s.root.emitNodeEnter(ctx, point.Node, point.Direction)
	s.root.logger.Debug("moved to node",
		"node", point.Node.Identifier,
		"kind", point.Node.Kind,
		"direction", point.Direction,
	)

	if s.root.controller.CanHandle(point.Node) {
		if point.Direction == domain.DirectionBackward {
			return s.root.controller.HandleGoBack(ctx, child, point.Request())
		}
		return s.root.controller.HandleGoForward(ctx, child, point.Request())
	}

	branch, ok := child.(*branchState)
	if !ok {
		err := domain.NewConfigurationError(point.Node.Identifier, "no handler can display this node")
		s.root.finish(ctx, domain.ReasonError, child, err)
		return err
	}
	if point.Direction == domain.DirectionBackward {
		return branch.GoBackward(ctx, point.Request())
	}
	return branch.GoForward(ctx, point.Request())
}

// exhausted handles a transition with no resolved node: an explicit exit,
// normal completion at the root, or escalation to the parent so its own
// traversal resumes where it left off.
func (s *branchState) exhausted(ctx context.Context, point domain.NavigationPoint) error {
	switch {
	case point.Direction == domain.DirectionExit:
		s.result.End()
		s.root.finish(ctx, domain.ReasonEarlyExit, s, nil)
		return nil
	case s.parent == nil:
		if point.Direction == domain.DirectionBackward {
			// First node of the run; nothing earlier to show.
			return domain.ErrNoPreviousNode
		}
		s.result.End()
		s.root.finish(ctx, domain.ReasonComplete, s, nil)
		return nil
	default:
		s.result.End()
		if point.Direction == domain.DirectionBackward {
			return s.parent.GoBackward(ctx, point.Request())
		}
		return s.parent.GoForward(ctx, point.Request())
	}
}

// AssessmentState is the root branch of a run. It owns the assessment
// result (with its run identifier), the controller hand-off, lifecycle
// hooks, and the factories used to build child states and navigators.
type AssessmentState struct {
	branchState

	controller   ports.RootNodeController
	stateFactory ports.NodeStateFactory
	navFactory   ports.NavigatorFactory
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	finished     bool
}

var _ ports.RootNodeState = (*AssessmentState)(nil)

// Config carries the collaborators for a run.
type Config struct {
	Controller       ports.RootNodeController
	StateFactory     ports.NodeStateFactory
	NavigatorFactory ports.NavigatorFactory
	Hooks            domain.LifecycleHooks
	Logger           *slog.Logger

	// Result, when set, restores a previously saved run instead of
	// starting a fresh one. Must be an assessment result.
	Result *domain.Result
}

// NewAssessmentState wires up the root state for an assessment node. The
// tree must already be loaded and validated.
func NewAssessmentState(node *domain.Node, cfg Config) (*AssessmentState, error) {
	if node == nil || !node.IsContainer() {
		return nil, domain.NewConfigurationError("", "assessment root must be a container")
	}
	if cfg.Controller == nil {
		return nil, domain.NewConfigurationError(node.Identifier, "a root node controller is required")
	}

	a := &AssessmentState{
		controller:   cfg.Controller,
		stateFactory: cfg.StateFactory,
		navFactory:   cfg.NavigatorFactory,
		hooks:        cfg.Hooks,
		logger:       cfg.Logger,
	}
	if a.navFactory == nil {
		a.navFactory = DefaultNavigatorFactory
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}

	nav, err := a.navFactory(node)
	if err != nil {
		return nil, err
	}

	result := cfg.Result
	if result == nil {
		result = node.NewResult()
	} else if !result.IsBranch() {
		return nil, domain.NewConfigurationError(node.Identifier, "restored result is not an assessment result")
	} else {
		result.Reopen()
	}

	a.branchState = branchState{
		node:      node,
		result:    result,
		navigator: nav,
		root:      a,
	}
	return a, nil
}

// RunID returns the unique identifier assigned to this run.
func (a *AssessmentState) RunID() string { return a.result.RunID }

// SetAsyncResult attaches a host-produced recorder result to the run.
func (a *AssessmentState) SetAsyncResult(result *domain.Result) {
	a.result.SetChild(result)
}

// Resume re-enters a restored run at the last node recorded in the
// transition log, falling back to a fresh forward entry. Resuming inside a
// nested section restarts that section from its first child.
func (a *AssessmentState) Resume(ctx context.Context) error {
	if n := len(a.result.Path); n > 0 {
		if node := a.navigator.Node(a.result.Path[n-1].Identifier); node != nil {
			return a.moveTo(ctx, domain.NavigationPoint{Node: node, Direction: domain.DirectionForward})
		}
	}
	return a.GoForward(ctx, nil)
}

// Close ends the run from the host side. Early exit, discard and
// save-progress all arrive through this same synchronous path; there is no
// interruption of an in-flight transition to model.
func (a *AssessmentState) Close(ctx context.Context, reason domain.FinishedReason) error {
	if a.finished {
		return domain.ErrRunFinished
	}
	if a.current != nil {
		a.current.Result().End()
		a.result.AppendPathHistory(a.current.Result())
	}
	a.result.End()
	var state ports.NodeState = a
	if a.current != nil {
		state = a.current
	}
	a.finish(ctx, reason, state, nil)
	return nil
}

// finish delivers the terminal transition exactly once.
func (a *AssessmentState) finish(ctx context.Context, reason domain.FinishedReason, state ports.NodeState, cause error) {
	if a.finished {
		return
	}
	a.finished = true
	a.result.End()
	if cause != nil {
		a.logger.Error("run finished with error", "run_id", a.RunID(), "reason", reason, "err", cause)
	} else {
		a.logger.Info("run finished", "run_id", a.RunID(), "reason", reason)
	}
	if a.hooks.OnFinished != nil {
		a.hooks.OnFinished(ctx, &domain.FinishEvent{
			Timestamp: time.Now(),
			RunID:     a.RunID(),
			Reason:    reason,
		})
	}
	a.controller.HandleFinished(ctx, reason, state, cause)
}

// stateFor resolves the node state for a resolved node: the controller's
// custom factory wins, then the engine-level factory, then containers get a
// child branch, questions an answer-collecting state, and everything else a
// generic leaf. Previously recorded results are reused so a re-entered node
// keeps its history.
func (a *AssessmentState) stateFor(node *domain.Node, parent *branchState) (ports.NodeState, error) {
	if custom := a.controller.CustomNodeStateFor(node, parent); custom != nil {
		return custom, nil
	}
	if a.stateFactory != nil {
		if custom := a.stateFactory(node, parent); custom != nil {
			return custom, nil
		}
	}

	result := parent.result.LastResult(node.EffectiveResultIdentifier())
	if result != nil {
		result.Reopen()
	} else {
		result = node.NewResult()
	}

	if node.IsContainer() {
		nav, err := a.navFactory(node)
		if err != nil {
			return nil, err
		}
		if !result.IsBranch() {
			result = node.NewResult()
		}
		return &branchState{
			node:      node,
			result:    result,
			parent:    parent,
			navigator: nav,
			root:      a,
		}, nil
	}

	leaf := leafState{node: node, result: result, parent: parent}
	if node.Kind == domain.NodeQuestion {
		return &questionState{leafState: leaf}, nil
	}
	return &leaf, nil
}

func (a *AssessmentState) emitNodeEnter(ctx context.Context, node *domain.Node, dir domain.Direction) {
	if a.hooks.OnNodeEnter == nil {
		return
	}
	a.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		RunID:     a.RunID(),
		NodeID:    node.Identifier,
		NodeKind:  node.Kind,
		Direction: dir,
	})
}

func (a *AssessmentState) emitNodeLeave(ctx context.Context, node *domain.Node, dir domain.Direction) {
	if a.hooks.OnNodeLeave == nil || node == nil {
		return
	}
	a.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		RunID:     a.RunID(),
		NodeID:    node.Identifier,
		NodeKind:  node.Kind,
		Direction: dir,
	})
}
