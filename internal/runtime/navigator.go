package runtime

import (
	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
)

// NodeNavigator is the sequential navigator: children are visited in
// declaration order unless a navigation rule overrides the next node.
// All methods are pure with respect to the branch result, so the same
// resolution doubles as a peek for HasNodeAfter/AllowBackNavigation.
type NodeNavigator struct {
	container *domain.Node
}

// NewNodeNavigator builds a navigator over a container node.
func NewNodeNavigator(container *domain.Node) (*NodeNavigator, error) {
	if container == nil || !container.IsContainer() {
		id := ""
		if container != nil {
			id = container.Identifier
		}
		return nil, domain.NewConfigurationError(id, "navigator requires a container node")
	}
	return &NodeNavigator{container: container}, nil
}

// DefaultNavigatorFactory builds NodeNavigators for every container.
func DefaultNavigatorFactory(container *domain.Node) (ports.Navigator, error) {
	return NewNodeNavigator(container)
}

// Node looks up a direct child by identifier.
func (n *NodeNavigator) Node(identifier string) *domain.Node {
	return n.container.Child(identifier)
}

// NodeAfter resolves the node to visit after current.
//
// Resolution order: a result-level next_node rule recorded on the latest
// result for current wins, then the node's own static rule, then declared
// order. Dangling rule targets fall back to declared order rather than
// failing. A rule naming the exit sentinel resolves to no node with
// direction exit. Jumping to an earlier position classifies the transition
// as backward so the host animates it correctly.
func (n *NodeNavigator) NodeAfter(current *domain.Node, branch *domain.Result) domain.NavigationPoint {
	next, direction := n.resolveNext(current, branch)
	point := domain.NavigationPoint{Node: next, Direction: direction}
	n.attachAsyncActions(&point, current, next)
	return point
}

func (n *NodeNavigator) resolveNext(current *domain.Node, branch *domain.Result) (*domain.Node, domain.Direction) {
	if current != nil {
		ruleTarget := ""
		if branch != nil {
			if last := branch.LastResult(current.EffectiveResultIdentifier()); last != nil && last.NextNodeIdentifier != "" {
				ruleTarget = last.NextNodeIdentifier
			}
		}
		if ruleTarget == "" {
			ruleTarget = current.NextNodeIdentifier
		}
		if ruleTarget == domain.ExitIdentifier {
			return nil, domain.DirectionExit
		}
		if ruleTarget != "" {
			if target := n.container.Child(ruleTarget); target != nil {
				direction := domain.DirectionForward
				if n.container.ChildIndex(ruleTarget) < n.container.ChildIndex(current.Identifier) {
					direction = domain.DirectionBackward
				}
				return target, direction
			}
			// Dangling rule target: fall back to declared order.
		}
	}

	children := n.container.Children
	if current == nil {
		if len(children) == 0 {
			return nil, domain.DirectionForward
		}
		return children[0], domain.DirectionForward
	}
	idx := n.container.ChildIndex(current.Identifier)
	if idx < 0 || idx+1 >= len(children) {
		return nil, domain.DirectionForward
	}
	return children[idx+1], domain.DirectionForward
}

// NodeBefore resolves the node visited immediately before current using the
// branch's transition log. With no recorded transitions it steps back one
// position in declared order.
func (n *NodeNavigator) NodeBefore(current *domain.Node, branch *domain.Result) domain.NavigationPoint {
	prev := n.resolvePrevious(current, branch)
	point := domain.NavigationPoint{Node: prev, Direction: domain.DirectionBackward}
	n.attachAsyncActions(&point, current, prev)
	return point
}

func (n *NodeNavigator) resolvePrevious(current *domain.Node, branch *domain.Result) *domain.Node {
	children := n.container.Children
	if current == nil {
		// Re-entering backward: resume at the node of the last recorded
		// result, defaulting to the first child.
		if branch != nil && len(branch.PathHistory) > 0 {
			last := branch.PathHistory[len(branch.PathHistory)-1]
			if c := n.container.ChildByResultIdentifier(last.Identifier); c != nil {
				return c
			}
		}
		if len(children) > 0 {
			return children[0]
		}
		return nil
	}

	if branch == nil || len(branch.Path) == 0 {
		return n.stepBack(current)
	}

	// Scan the transition log backward for the forward entry into current;
	// the marker before it names the previously visited node.
	path := branch.Path
	i := len(path) - 1
	for ; i >= 0; i-- {
		if path[i].Identifier == current.Identifier && path[i].Direction == domain.DirectionForward {
			break
		}
	}
	switch {
	case i < 0:
		return n.stepBack(current)
	case i == 0:
		return nil
	default:
		if c := n.container.Child(path[i-1].Identifier); c != nil {
			return c
		}
		return n.stepBack(current)
	}
}

func (n *NodeNavigator) stepBack(current *domain.Node) *domain.Node {
	idx := n.container.ChildIndex(current.Identifier)
	if idx <= 0 {
		return nil
	}
	return n.container.Children[idx-1]
}

// HasNodeAfter reports whether a forward transition from current resolves a
// node. Pure peek; no counters move.
func (n *NodeNavigator) HasNodeAfter(current *domain.Node, branch *domain.Result) bool {
	return n.NodeAfter(current, branch).Node != nil
}

// AllowBackNavigation reports whether a backward transition from current
// resolves a node.
func (n *NodeNavigator) AllowBackNavigation(current *domain.Node, branch *domain.Result) bool {
	return n.NodeBefore(current, branch).Node != nil
}

// Progress computes marker progress at current. The children are restricted
// to the prefix ending at current; the last marker appearing in that prefix
// gives the current index and the marker count gives the total. Returns nil
// when no markers are declared, none land in the prefix, or current lies
// strictly past the last marker.
func (n *NodeNavigator) Progress(current *domain.Node, branch *domain.Result) *domain.Progress {
	markers := n.container.ProgressMarkers
	if len(markers) == 0 || current == nil {
		return nil
	}
	idx := n.container.ChildIndex(current.Identifier)
	if idx < 0 {
		return nil
	}
	if lastPos := n.container.ChildIndex(markers[len(markers)-1]); lastPos >= 0 && idx > lastPos {
		return nil
	}
	cur := -1
	for i, m := range markers {
		pos := n.container.ChildIndex(m)
		if pos >= 0 && pos <= idx {
			cur = i
		}
	}
	if cur < 0 {
		return nil
	}
	return &domain.Progress{Current: cur, Total: len(markers)}
}

// attachAsyncActions unions in the background actions crossing this
// transition: configs starting on entry to next (or on container entry when
// there is no current node) and configs stopping on exit from current.
// Permissions required by starting actions ride along.
func (n *NodeNavigator) attachAsyncActions(point *domain.NavigationPoint, current, next *domain.Node) {
	for _, a := range n.container.AsyncActions {
		startsHere := (a.StartStepIdentifier == "" && current == nil) ||
			(next != nil && a.StartStepIdentifier == next.Identifier)
		if startsHere {
			point.AsyncActions.Union(domain.AsyncActionNavigation{Start: []domain.AsyncActionConfig{a}})
			point.Permissions = domain.UnionStrings(point.Permissions, a.Permissions)
		}
		stopsHere := (current != nil && a.StopStepIdentifier == current.Identifier) ||
			(next == nil && point.Direction != domain.DirectionBackward && a.StopStepIdentifier == "")
		if stopsHere {
			point.AsyncActions.Union(domain.AsyncActionNavigation{Stop: []domain.AsyncActionConfig{a}})
		}
	}
}
