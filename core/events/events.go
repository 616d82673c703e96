// Package events defines the lifecycle events the orchestrator publishes on
// the internal bus.
package events

import (
	"time"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// TriggerEvent is published when a dispatch trigger enters the debounce
// window.
type TriggerEvent struct {
	Key   model.PlanKey
	Actor string
}

// PlanComputedEvent is published after a plan snapshot has been persisted.
type PlanComputedEvent struct {
	Key         model.PlanKey
	PlanID      string
	Assigned    int
	Unassigned  int
	ComputeTime time.Duration
}

// PlanAppliedEvent is published when every writeback for a plan succeeded.
type PlanAppliedEvent struct {
	PlanID string
	Stops  int
}

// PlanFailedEvent is published when an apply pass ended with errors.
type PlanFailedEvent struct {
	PlanID string
	Errors []string
}
