package domain

// AsyncActionConfig describes a background activity (sensor recorder, audio
// capture, motion tracking) whose start and stop are scheduled relative to
// step transitions within a container.
type AsyncActionConfig struct {
	Identifier string `json:"identifier" yaml:"identifier"`
	// Type names the recorder implementation the host should run
	// (e.g. "motion", "microphone", "weather").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// StartStepIdentifier names the child on whose entry the action starts.
	// Empty means "start on entry to the container".
	StartStepIdentifier string `json:"start_step,omitempty" yaml:"start_step,omitempty"`
	// StopStepIdentifier names the child on whose exit the action stops.
	// Empty means "stop when the container is exhausted".
	StopStepIdentifier string `json:"stop_step,omitempty" yaml:"stop_step,omitempty"`

	// Permissions the host must hold before starting the action.
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// AsyncActionNavigation is the pair of action sets a transition carries:
// actions that must start on entry to the resolved node and actions that
// must stop on exit from the current one.
type AsyncActionNavigation struct {
	Start []AsyncActionConfig `json:"start,omitempty"`
	Stop  []AsyncActionConfig `json:"stop,omitempty"`
}

// IsEmpty reports whether the navigation carries no scheduling work.
func (n AsyncActionNavigation) IsEmpty() bool {
	return len(n.Start) == 0 && len(n.Stop) == 0
}

// Union merges another navigation into this one. Entries are deduplicated
// by action identifier and existing entries are never dropped.
func (n *AsyncActionNavigation) Union(other AsyncActionNavigation) {
	n.Start = unionActions(n.Start, other.Start)
	n.Stop = unionActions(n.Stop, other.Stop)
}

func unionActions(a, b []AsyncActionConfig) []AsyncActionConfig {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a))
	for _, c := range a {
		seen[c.Identifier] = struct{}{}
	}
	out := a
	for _, c := range b {
		if _, ok := seen[c.Identifier]; !ok {
			seen[c.Identifier] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
