// Package planstore defines the persistence contracts for dispatch plans and
// their append-only event trail.
package planstore

import (
	"context"
	"errors"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// ErrNotFound is returned when no plan matches the lookup.
var ErrNotFound = errors.New("planstore: plan not found")

// PlanStore persists dispatch plans with insert-or-fully-replace semantics;
// the plan key acts as the unique constraint.
type PlanStore interface {
	GetByKey(ctx context.Context, key model.PlanKey) (*model.DispatchPlan, error)
	GetByID(ctx context.Context, id string) (*model.DispatchPlan, error)
	Upsert(ctx context.Context, plan *model.DispatchPlan) error
	Close() error
}

// EventStore appends dispatch plan events. Events are never mutated or
// deleted by this core.
type EventStore interface {
	Append(ctx context.Context, ev model.PlanEvent) error
	ListByPlan(ctx context.Context, planID string) ([]model.PlanEvent, error)
	Close() error
}
