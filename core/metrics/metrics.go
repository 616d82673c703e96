// Package metrics defines the observability sink contracts for planning
// outcomes.
package metrics

import (
	"time"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// PlanComputation describes one completed planning run.
type PlanComputation struct {
	Key                model.PlanKey
	PlanID             string
	Jobs               int
	Assignments        int
	Unassigned         int
	UtilizationPercent int
	ComputeTime        time.Duration
	Time               time.Time
}

// PlanApplication describes the outcome of one apply pass.
type PlanApplication struct {
	Key       model.PlanKey
	PlanID    string
	Succeeded int
	Failed    int
	Duration  time.Duration
	Time      time.Time
}

// PlanSink records planning outcomes for observability purposes.
type PlanSink interface {
	RecordPlanComputation(PlanComputation) error
	RecordPlanApplication(PlanApplication) error
}

// NopSink implements PlanSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlanComputation(PlanComputation) error { return nil }
func (NopSink) RecordPlanApplication(PlanApplication) error { return nil }
