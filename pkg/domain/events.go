package domain

import (
	"context"
	"time"
)

// FinishedReason tells the host why a run ended.
type FinishedReason string

const (
	ReasonComplete     FinishedReason = "complete"
	ReasonError        FinishedReason = "error"
	ReasonEarlyExit    FinishedReason = "early_exit"
	ReasonDiscarded    FinishedReason = "discarded"
	ReasonSaveProgress FinishedReason = "save_progress"
)

// NodeEvent describes entry into or exit from a node during traversal.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	NodeID    string    `json:"node_id"`
	NodeKind  string    `json:"node_kind"`
	Direction Direction `json:"direction"`
}

// FinishEvent describes the terminal transition of a run.
type FinishEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Reason    FinishedReason `json:"reason"`
}

// LifecycleHooks defines optional callbacks for observing a run. Hooks run
// synchronously on the navigation path; keep them cheap.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnFinished  func(context.Context, *FinishEvent)
}
