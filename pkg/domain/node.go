package domain

// Node kind constants define the behavior of a node within an assessment tree.
const (
	// NodeAssessment is the root of a runnable assessment. Always a container.
	NodeAssessment = "assessment"
	// NodeSection groups child nodes into a sub-branch with its own traversal.
	NodeSection = "section"
	// NodeInstruction displays content and waits for the participant to continue.
	NodeInstruction = "instruction"
	// NodeQuestion displays a prompt and collects an answer.
	NodeQuestion = "question"
	// NodeActive runs a timed task (cognitive test, sensor recording, etc).
	NodeActive = "active"
	// NodeOverview introduces an assessment (title screen, icons, duration).
	NodeOverview = "overview"
	// NodeCompletion closes out an assessment run.
	NodeCompletion = "completion"
)

// ExitIdentifier is the reserved navigation target that requests an early
// exit from the entire run rather than a jump to a sibling node.
const ExitIdentifier = "exit"

// Node is a unit in the assessment schema tree. The Kind discriminant drives
// both (de)serialization and runtime behavior; container behavior is implied
// by a non-empty Children list. Nodes are read-only once loaded.
type Node struct {
	Identifier string `json:"identifier" yaml:"identifier"`
	Kind       string `json:"type" yaml:"type"`

	// ResultIdentifier optionally aliases the identifier used for the
	// node's result. Empty means "same as Identifier".
	ResultIdentifier string `json:"result_identifier,omitempty" yaml:"result_identifier,omitempty"`

	Comment  string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Detail   string `json:"detail,omitempty" yaml:"detail,omitempty"`

	// Button customization. HiddenButtons lists button identifiers the host
	// should not show for this node; Buttons maps button identifiers to
	// replacement labels.
	HiddenButtons []string          `json:"hidden_buttons,omitempty" yaml:"hidden_buttons,omitempty"`
	Buttons       map[string]string `json:"buttons,omitempty" yaml:"buttons,omitempty"`

	// NextNodeIdentifier is a static navigation rule: the sibling to jump to
	// after this node, overriding declaration order. The reserved value
	// "exit" requests an early exit.
	NextNodeIdentifier string `json:"next_node,omitempty" yaml:"next_node,omitempty"`

	// Container fields.
	Children        []*Node             `json:"children,omitempty" yaml:"children,omitempty"`
	ProgressMarkers []string            `json:"progress_markers,omitempty" yaml:"progress_markers,omitempty"`
	AsyncActions    []AsyncActionConfig `json:"async_actions,omitempty" yaml:"async_actions,omitempty"`

	// Question fields.
	InputType    string   `json:"input_type,omitempty" yaml:"input_type,omitempty"`
	InputOptions []string `json:"input_options,omitempty" yaml:"input_options,omitempty"`
	Optional     bool     `json:"optional,omitempty" yaml:"optional,omitempty"`

	// Version applies to assessment nodes only.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// IsContainer reports whether this node owns child nodes and therefore
// produces a branch result and its own navigator.
func (n *Node) IsContainer() bool {
	return len(n.Children) > 0
}

// EffectiveResultIdentifier returns the identifier the node's result is
// recorded under.
func (n *Node) EffectiveResultIdentifier() string {
	if n.ResultIdentifier != "" {
		return n.ResultIdentifier
	}
	return n.Identifier
}

// Child performs a direct child lookup by identifier. Returns nil when no
// child matches; dangling references are a caller concern.
func (n *Node) Child(identifier string) *Node {
	for _, c := range n.Children {
		if c.Identifier == identifier {
			return c
		}
	}
	return nil
}

// ChildIndex returns the declared position of the child with the given
// identifier, or -1.
func (n *Node) ChildIndex(identifier string) int {
	for i, c := range n.Children {
		if c.Identifier == identifier {
			return i
		}
	}
	return -1
}

// ChildByResultIdentifier finds the child whose result would be recorded
// under the given identifier.
func (n *Node) ChildByResultIdentifier(identifier string) *Node {
	for _, c := range n.Children {
		if c.EffectiveResultIdentifier() == identifier {
			return c
		}
	}
	return nil
}

// NewResult constructs the result record appropriate for this node's kind.
func (n *Node) NewResult() *Result {
	id := n.EffectiveResultIdentifier()
	switch {
	case n.Kind == NodeAssessment:
		return NewAssessmentResult(id, n.Version)
	case n.IsContainer():
		return NewBranchResult(id)
	case n.Kind == NodeQuestion:
		return NewAnswerResult(id)
	default:
		return NewResult(id)
	}
}
