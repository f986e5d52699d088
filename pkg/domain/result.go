package domain

import (
	"time"

	"github.com/google/uuid"
)

// Result kind constants. A single struct with a discriminant keeps the
// serialized form closed and lets stores round-trip the tree without a
// type registry.
const (
	ResultBase       = "base"
	ResultAnswer     = "answer"
	ResultCollection = "collection"
	ResultBranch     = "branch"
	ResultAssessment = "assessment"
)

// PathMarker records a single transition in a branch's traversal log:
// the identifier of the node entered and the direction of entry.
type PathMarker struct {
	Identifier string    `json:"identifier"`
	Direction  Direction `json:"direction"`
}

// Result is the output record for a visited node. Field usage depends on
// Kind: Answer carries an answer value, Collection carries identifier-keyed
// children, Branch additionally carries the ordered path history and the
// transition log, Assessment adds the run identifier and schema version.
//
// Results are mutable while a run is in flight and owned by value by their
// parent branch; they are never shared across two containers.
type Result struct {
	Identifier string    `json:"identifier"`
	Kind       string    `json:"type"`
	StartedAt  time.Time `json:"start_time"`
	EndedAt    time.Time `json:"end_time,omitzero"`

	// NextNodeIdentifier is a result-level navigation rule. When set it
	// overrides both declaration order and the node's own static rule for
	// the transition out of this node.
	NextNodeIdentifier string `json:"next_node,omitempty"`

	// Answer holds the collected value for answer results.
	Answer any `json:"answer,omitempty"`

	// Children holds identifier-keyed child results (collection kinds).
	// Keying by identifier makes the one-result-per-identifier invariant
	// structural.
	Children map[string]*Result `json:"children,omitempty"`

	// PathHistory is the ordered list of results for nodes visited in
	// traversal order. At most one trailing entry per identifier is live;
	// re-visiting a node replaces rather than duplicates it.
	PathHistory []*Result `json:"path_history,omitempty"`

	// Path is the ordered transition log used to reconstruct "previous"
	// during backward navigation.
	Path []PathMarker `json:"path,omitempty"`

	// Assessment-level fields.
	RunID             string `json:"run_id,omitempty"`
	AssessmentVersion string `json:"assessment_version,omitempty"`
}

// NewResult creates a base result stamped with the current time.
func NewResult(identifier string) *Result {
	return &Result{
		Identifier: identifier,
		Kind:       ResultBase,
		StartedAt:  time.Now(),
	}
}

// NewAnswerResult creates an answer result with no answer recorded yet.
func NewAnswerResult(identifier string) *Result {
	r := NewResult(identifier)
	r.Kind = ResultAnswer
	return r
}

// NewCollectionResult creates an empty collection result.
func NewCollectionResult(identifier string) *Result {
	r := NewResult(identifier)
	r.Kind = ResultCollection
	r.Children = make(map[string]*Result)
	return r
}

// NewBranchResult creates an empty branch result.
func NewBranchResult(identifier string) *Result {
	r := NewResult(identifier)
	r.Kind = ResultBranch
	return r
}

// NewAssessmentResult creates the root result for a run, assigning a fresh
// run identifier.
func NewAssessmentResult(identifier, version string) *Result {
	r := NewBranchResult(identifier)
	r.Kind = ResultAssessment
	r.RunID = uuid.NewString()
	r.AssessmentVersion = version
	return r
}

// IsBranch reports whether this result carries branch traversal state.
func (r *Result) IsBranch() bool {
	return r.Kind == ResultBranch || r.Kind == ResultAssessment
}

// End stamps the result's end time. Calling End twice keeps the first stamp.
func (r *Result) End() {
	if r.EndedAt.IsZero() {
		r.EndedAt = time.Now()
	}
}

// Reopen clears the end stamp when a node is re-entered, so the eventual
// End reflects the final visit.
func (r *Result) Reopen() {
	r.EndedAt = time.Time{}
}

// AppendPathHistory appends a child result to the traversal history. If the
// trailing entry already records the same identifier it is replaced, so two
// forward requests without an intervening move append at most one entry.
func (r *Result) AppendPathHistory(child *Result) {
	if child == nil {
		return
	}
	if n := len(r.PathHistory); n > 0 && r.PathHistory[n-1].Identifier == child.Identifier {
		r.PathHistory[n-1] = child
		return
	}
	r.PathHistory = append(r.PathHistory, child)
}

// AppendPathMarker records a transition in the traversal log. A marker
// identical to the trailing entry is dropped, so re-entering the same node
// in the same direction (a resumed run, a repeated request) logs one entry.
func (r *Result) AppendPathMarker(m PathMarker) {
	if n := len(r.Path); n > 0 && r.Path[n-1] == m {
		return
	}
	r.Path = append(r.Path, m)
}

// LastResult scans the path history backward for the most recent result
// recorded under the given identifier. Returns nil when the node has not
// been visited.
func (r *Result) LastResult(identifier string) *Result {
	for i := len(r.PathHistory) - 1; i >= 0; i-- {
		if r.PathHistory[i].Identifier == identifier {
			return r.PathHistory[i]
		}
	}
	return nil
}

// SetChild stores a child result, replacing any previous result recorded
// under the same identifier.
func (r *Result) SetChild(child *Result) {
	if child == nil {
		return
	}
	if r.Children == nil {
		r.Children = make(map[string]*Result)
	}
	r.Children[child.Identifier] = child
}

// Clone returns a deep copy. Stores use it so persisted trees cannot be
// mutated through retained pointers.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Children != nil {
		cp.Children = make(map[string]*Result, len(r.Children))
		for k, v := range r.Children {
			cp.Children[k] = v.Clone()
		}
	}
	if r.PathHistory != nil {
		cp.PathHistory = make([]*Result, len(r.PathHistory))
		for i, v := range r.PathHistory {
			cp.PathHistory[i] = v.Clone()
		}
	}
	if r.Path != nil {
		cp.Path = append([]PathMarker(nil), r.Path...)
	}
	return &cp
}
