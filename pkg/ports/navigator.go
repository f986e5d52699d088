package ports

import "github.com/BiAffectBridge/cairn/pkg/domain"

// Navigator computes next/previous nodes and transition metadata for one
// container level. Implementations must be pure: given a current node and
// the authoritative branch result history they return a NavigationPoint
// without mutating either, so the same calls can be used as peeks.
type Navigator interface {
	// NodeAfter resolves the node to visit after current. A nil current
	// means "entering the container". A nil Node in the returned point
	// means this level is exhausted.
	NodeAfter(current *domain.Node, branch *domain.Result) domain.NavigationPoint

	// NodeBefore resolves the node visited immediately before current,
	// reconstructed from the branch's transition log.
	NodeBefore(current *domain.Node, branch *domain.Result) domain.NavigationPoint

	// HasNodeAfter reports whether NodeAfter would resolve a node.
	HasNodeAfter(current *domain.Node, branch *domain.Result) bool

	// AllowBackNavigation reports whether NodeBefore would resolve a node.
	AllowBackNavigation(current *domain.Node, branch *domain.Result) bool

	// Progress computes the (current, total) marker progress for current,
	// or nil when progress is indeterminate at this position.
	Progress(current *domain.Node, branch *domain.Result) *domain.Progress

	// Node performs a direct child lookup by identifier. Returns nil on a
	// dangling reference; callers fall back to declared order.
	Node(identifier string) *domain.Node
}

// NavigatorFactory builds the navigator for a container node. The default
// factory returns the sequential node navigator; custom assessments may
// substitute rule engines of their own.
type NavigatorFactory func(container *domain.Node) (Navigator, error)
