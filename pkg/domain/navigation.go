package domain

// Direction classifies a transition between nodes.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
	// DirectionExit marks a transition that leaves the run entirely
	// (early exit requested by a navigation rule).
	DirectionExit Direction = "exit"
)

// NavigationPoint is the resolved outcome of a single navigation query:
// the node to visit next (nil means the current level is exhausted), the
// direction of travel, and the side effects the transition carries.
type NavigationPoint struct {
	Node         *Node
	Direction    Direction
	AsyncActions AsyncActionNavigation
	Permissions  []string
}

// Request converts the point's side-effect sets into a transition request
// that can be handed to a controller or a child branch.
func (p NavigationPoint) Request() *TransitionRequest {
	if len(p.Permissions) == 0 && p.AsyncActions.IsEmpty() {
		return nil
	}
	return &TransitionRequest{
		Permissions:  p.Permissions,
		AsyncActions: p.AsyncActions,
	}
}

// TransitionRequest carries additional permissions and async-action
// scheduling requested alongside a goForward/goBackward call. Sets are
// merged with union semantics; a previously resolved request is never
// dropped.
type TransitionRequest struct {
	Permissions  []string              `json:"permissions,omitempty"`
	AsyncActions AsyncActionNavigation `json:"async_actions,omitzero"`
}

// Progress is a coarse (current, total) indicator computed against a
// container's progress markers.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	// IsEstimated is reserved for rule-driven subtrees where the marker
	// math is a guess. Nothing sets it yet.
	IsEstimated bool `json:"is_estimated"`
}

// UnionStrings merges two string sets preserving first-seen order.
func UnionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
